package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/arcanaworks/arcana/internal/journal"
	"github.com/arcanaworks/arcana/internal/models"
	"github.com/arcanaworks/arcana/internal/reading"
	"github.com/arcanaworks/arcana/internal/services"
	"github.com/urfave/cli/v3"
)

// maxResumeAttempts bounds automatic reconnection after a dropped stream
// before handing control back to the user.
const maxResumeAttempts = 3

// Read generates a narrative for the pending reading, streaming text to the
// terminal as it arrives. Interrupted streams resume from the persisted
// cursor rather than starting over.
func (r *Runner) Read(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := journal.NewRepository(db)

	rdg, question, err := r.resolveReading(repo, cmd)
	if err != nil {
		return err
	}

	prefs := r.preferences(cmd.Bool("narrate"))
	narrator := r.narrator
	if narrator == nil && prefs.NarrationEnabled {
		narrator = services.NewTTSClient(r.config.Narration.BaseURL, prefs.Voice, r.httpClient)
	}

	var bridge *reading.NarrationBridge
	var voice reading.Narrator
	if narrator != nil {
		voice = narrator
		bridge = reading.NewNarrationBridge(narrator, func() models.Preferences { return prefs }, r.logger)
	}

	store := reading.NewJobStore(reading.NewSQLiteStorage(db), r.scope, r.logger)

	if cmd.Bool("ui") {
		return r.readInteractive(ctx, store, bridge, voice, repo, rdg, question)
	}
	return r.readHeadless(ctx, store, bridge, voice, repo, rdg, question)
}

// resolveReading decides which reading the command acts on: the pending
// draft when one exists, or a fresh draw when --spread asks for one.
func (r *Runner) resolveReading(repo *journal.Repository, cmd *cli.Command) (*models.Reading, string, error) {
	draft, err := repo.LoadDraft(r.scope)
	if err != nil {
		return nil, "", err
	}

	spreadKey := cmd.String("spread")
	question := cmd.String("question")

	if cmd.Bool("resume") {
		if draft == nil {
			return nil, "", fmt.Errorf("nothing to resume: no pending reading (run 'arcana draw' first)")
		}
		return draft.Reading, draft.Question, nil
	}

	if draft != nil && spreadKey == "" {
		if question == "" {
			question = draft.Question
		}
		return draft.Reading, question, nil
	}

	if spreadKey == "" {
		spreadKey = "threeCard"
	}
	rdg, err := r.drawReading(spreadKey, int64(cmd.Int("seed")))
	if err != nil {
		return nil, "", err
	}
	rdg.Question = question
	if err := repo.SaveDraft(r.scope, journal.Draft{Reading: rdg, Question: question}); err != nil {
		return nil, "", fmt.Errorf("failed to save pending reading: %w", err)
	}
	return rdg, question, nil
}

// journalCompleted saves a finished narrative and clears the pending draft.
func (r *Runner) journalCompleted(repo *journal.Repository, done reading.CompletedReading) {
	entry := &journal.Entry{
		SpreadKey: done.Reading.SpreadKey,
		Question:  done.Question,
		Cards:     done.Reading.Cards,
		Narrative: done.Narrative,
		Provider:  done.Provider,
		RequestID: done.RequestID,
	}
	if err := repo.Create(entry); err != nil {
		r.logger.Error("failed to journal completed reading", "err", err)
		return
	}
	if err := repo.ClearDraft(r.scope); err != nil {
		r.logger.Warn("failed to clear pending reading", "err", err)
	}
	r.logger.Info("reading saved to journal", "id", entry.ID, "sequence", entry.Sequence)
}

// readHeadless runs the stream without the TUI, printing narrative text as
// it grows and reconnecting on transient interruptions.
func (r *Runner) readHeadless(ctx context.Context, store *reading.JobStore, bridge *reading.NarrationBridge, narrator reading.Narrator, repo *journal.Repository, rdg *models.Reading, question string) error {
	printer := &streamPrinter{out: r.output}

	ctrl := reading.NewController(reading.ControllerOpts{
		Store:    store,
		Jobs:     r.jobs,
		Bridge:   bridge,
		Narrator: narrator,
		Logger:   r.logger,
		OnUpdate: printer.Push,
		OnComplete: func(done reading.CompletedReading) {
			r.journalCompleted(repo, done)
		},
	})
	ctrl.SetReading(rdg, question, r.persona(), models.Location{})

	spread, _ := models.SpreadByKey(rdg.SpreadKey)
	r.writePlainHeader(spread.Name)
	for _, card := range rdg.Cards {
		r.writePlain("%s\n", formatCard(spread, card))
	}
	r.writePlain("\n")

	if !ctrl.Resume(ctx) {
		if err := ctrl.Generate(ctx); err != nil {
			return err
		}
	}

	for attempt := 0; ; attempt++ {
		<-ctrl.Wait()
		snap := ctrl.Snapshot()

		switch snap.Phase {
		case reading.PhaseComplete:
			printer.Finish(snap)
			r.writePlain("\n")
			return nil
		case reading.PhaseError:
			printer.Finish(snap)
			r.writePlain("\n")
			if snap.Message != "" {
				return fmt.Errorf("reading failed: %s", snap.Message)
			}
			return fmt.Errorf("reading failed")
		}

		// Interrupted mid-stream. Reconnect a few times, then leave the
		// persisted cursor for a later `arcana read --resume`.
		if attempt >= maxResumeAttempts {
			r.writePlainln("Stream interrupted. Run 'arcana read --resume' to pick up where you left off.")
			if snap.Message != "" {
				r.writePlain("%s\n", snap.Message)
			}
			return nil
		}
		r.logger.Info("stream interrupted, reconnecting", "attempt", attempt+1)
		time.Sleep(time.Duration(attempt+1) * time.Second)
		if !ctrl.Resume(ctx) {
			r.writePlainln("Stream interrupted and the job is no longer resumable.")
			return nil
		}
	}
}

// Cancel abandons the persisted narrative job, telling the server to stop.
// The drawn cards stay pending so a fresh `read` can start over.
func (r *Runner) Cancel(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	store := reading.NewJobStore(reading.NewSQLiteStorage(db), r.scope, r.logger)
	handle := store.Load()
	if handle == nil {
		r.writePlain("No narrative job to cancel.\n")
		return nil
	}

	cancelCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := r.jobs.CancelJob(cancelCtx, handle.JobID, handle.JobToken); err != nil {
		r.logger.Warn("server-side cancel failed", "job", handle.JobID, "err", err)
	}
	store.Clear()

	r.writePlain("Cancelled narrative job %s.\n", handle.JobID)
	r.writePlain("Your drawn cards are still pending; run 'arcana read' to start over.\n")
	return nil
}

// streamPrinter writes narrative text incrementally as snapshots arrive.
// Snapshots carry the full accumulated text, so only the unseen suffix is
// printed; a snapshot rewrite that is not an extension starts a new block.
type streamPrinter struct {
	mu      sync.Mutex
	out     io.Writer
	printed string
}

func (p *streamPrinter) Push(snap reading.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.render(snap.Narrative)
}

// Finish prints whatever the final snapshot holds beyond what streamed.
func (p *streamPrinter) Finish(snap reading.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.render(snap.Narrative)
}

func (p *streamPrinter) render(text string) {
	if text == p.printed {
		return
	}
	if strings.HasPrefix(text, p.printed) {
		io.WriteString(p.out, text[len(p.printed):])
	} else {
		io.WriteString(p.out, "\n\n"+text)
	}
	p.printed = text
}
