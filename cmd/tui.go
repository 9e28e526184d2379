package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/arcanaworks/arcana/internal/journal"
	"github.com/arcanaworks/arcana/internal/models"
	"github.com/arcanaworks/arcana/internal/reading"
	"github.com/arcanaworks/arcana/internal/shared"
	"github.com/arcanaworks/arcana/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
)

// readInteractive launches the interactive viewer for a streaming narrative.
// The viewer's pause and resume keys feed the signal hub, so the controller
// treats them exactly like a backgrounded and re-foregrounded session.
func (r *Runner) readInteractive(ctx context.Context, store *reading.JobStore, bridge *reading.NarrationBridge, narrator reading.Narrator, repo *journal.Repository, rdg *models.Reading, question string) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	logPath := filepath.Join(os.TempDir(), "arcana-tui.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()
	logger := shared.NewLogger(logFile)

	hub := reading.NewSignalHub()
	snapshots := make(chan reading.Snapshot, 16)

	ctrl := reading.NewController(reading.ControllerOpts{
		Store:    store,
		Jobs:     r.jobs,
		Bridge:   bridge,
		Narrator: narrator,
		Signals:  hub,
		Logger:   logger,
		OnUpdate: func(snap reading.Snapshot) {
			// Drop the oldest snapshot rather than block the stream.
			for {
				select {
				case snapshots <- snap:
					return
				default:
					select {
					case <-snapshots:
					default:
					}
				}
			}
		},
		OnComplete: func(done reading.CompletedReading) {
			r.journalCompleted(repo, done)
		},
	})
	ctrl.SetReading(rdg, question, r.persona(), models.Location{})
	ctrl.Start(ctx)
	defer ctrl.Close()

	if snap := ctrl.Snapshot(); !snap.StreamActive && snap.Phase != reading.PhaseComplete {
		if err := ctrl.Generate(ctx); err != nil {
			return err
		}
	}

	model := ui.NewModel(ctx, ctrl, hub, snapshots, rdg)
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
