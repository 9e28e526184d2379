package main

import (
	"context"
	"fmt"

	"github.com/arcanaworks/arcana/internal/journal"
	"github.com/arcanaworks/arcana/internal/models"
	"github.com/arcanaworks/arcana/internal/shared"
	"github.com/arcanaworks/arcana/internal/tasks"
	"github.com/urfave/cli/v3"
)

// JournalList lists saved readings, newest first.
func (r *Runner) JournalList(ctx context.Context, cmd *cli.Command) error {
	limit := int(cmd.Int("limit"))
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	entries, err := journal.NewRepository(db).List(limit)
	if err != nil {
		return err
	}

	if useJSON {
		return r.writeJSON(entries, pretty)
	}

	if len(entries) == 0 {
		r.writePlain("No saved readings yet.\n")
		return nil
	}

	r.writePlainHeader("Journal")
	for _, entry := range entries {
		question := entry.Question
		if question == "" {
			question = "(no question)"
		}
		spreadName := entry.SpreadKey
		if spread, ok := models.SpreadByKey(entry.SpreadKey); ok {
			spreadName = spread.Name
		}
		r.writePlain("#%-4d %s  %-22s %s\n", entry.Sequence, entry.CreatedAt.Format("2006-01-02"), spreadName, question)
		r.writePlain("      id: %s\n", entry.ID)
	}
	return nil
}

// JournalShow prints one saved reading in full.
func (r *Runner) JournalShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: entry id", shared.ErrMissingArgument)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	entry, err := journal.NewRepository(db).Get(id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(entry, true)
	}

	spread, _ := models.SpreadByKey(entry.SpreadKey)
	r.writePlainHeader(fmt.Sprintf("Reading #%d — %s", entry.Sequence, spread.Name))
	r.writePlain("Drawn %s\n", entry.CreatedAt.Format("January 2, 2006 at 15:04"))
	if entry.Question != "" {
		r.writePlain("Question: %s\n", entry.Question)
	}
	r.writePlain("\n")
	for _, card := range entry.Cards {
		r.writePlain("%s\n", formatCard(spread, card))
	}
	r.writePlainln("%s", entry.Narrative)
	return nil
}

// JournalExport writes saved readings out to files in the chosen format.
func (r *Runner) JournalExport(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	outputDir := cmd.String("output")
	ids := cmd.StringSlice("id")
	workers := int(cmd.Int("workers"))

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	engine := tasks.NewExportEngine(journal.NewRepository(db))

	progress := make(chan tasks.ProgressUpdate, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.writePlain("%s\n", update.Message)
		}
	}()

	result, err := engine.BulkExport(ctx, progress, ids, tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  outputDir,
		NumWorkers: workers,
	})
	close(progress)
	<-done
	if err != nil {
		return err
	}

	r.writePlainln("Exported %d/%d readings to %s", result.SuccessfulExports, result.TotalEntries, result.OutputDirectory)
	if result.FailedExports > 0 {
		r.writePlain("%d failed; see %s\n", result.FailedExports, result.ManifestPath)
	}
	return nil
}

// JournalDelete removes a saved reading.
func (r *Runner) JournalDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: entry id", shared.ErrMissingArgument)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := journal.NewRepository(db).Delete(id); err != nil {
		return err
	}
	r.writePlain("Deleted reading %s.\n", id)
	return nil
}
