// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

// setupCommand handles database and configuration initialization.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// drawCommand draws a spread and stores it as the pending reading.
func drawCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "draw",
		Usage: "Draw cards for a spread",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "spread",
				Aliases: []string{"s"},
				Usage:   "Spread key (single, threeCard, crossroads)",
				Value:   "threeCard",
			},
			&cli.StringFlag{
				Name:    "question",
				Aliases: []string{"q"},
				Usage:   "Question to hold in mind for the reading",
			},
			&cli.IntFlag{
				Name:  "seed",
				Usage: "Deterministic shuffle seed (0 uses the clock)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.Draw,
	}
}

// readCommand streams a narrative for the pending reading.
func readCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "read",
		Usage: "Generate and stream a narrative for the pending reading",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "spread",
				Aliases: []string{"s"},
				Usage:   "Draw a fresh spread instead of using the pending one",
			},
			&cli.StringFlag{
				Name:    "question",
				Aliases: []string{"q"},
				Usage:   "Question to hold in mind for the reading",
			},
			&cli.IntFlag{
				Name:  "seed",
				Usage: "Deterministic shuffle seed for a fresh draw",
			},
			&cli.BoolFlag{
				Name:  "resume",
				Usage: "Resume an interrupted reading and do not start a new one",
			},
			&cli.BoolFlag{
				Name:  "narrate",
				Usage: "Queue spoken narration even if disabled in config",
			},
			&cli.BoolFlag{
				Name:  "ui",
				Usage: "Watch the narrative stream in the interactive viewer",
			},
		},
		Action: r.Read,
	}
}

// cancelCommand abandons the persisted generation job.
func cancelCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "cancel",
		Usage:  "Cancel the in-progress narrative job",
		Action: r.Cancel,
	}
}

// journalCommand handles saved reading operations.
func journalCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "journal",
		Usage: "Browse saved readings",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List saved readings, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of entries to return",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.JournalList,
			},
			{
				Name:  "show",
				Usage: "Show one saved reading in full",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.JournalShow,
			},
			{
				Name:  "delete",
				Usage: "Delete a saved reading",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Action: r.JournalDelete,
			},
			{
				Name:  "export",
				Usage: "Export saved readings to files",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (json, markdown, txt, csv)",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (default: journal_export_{epoch})",
					},
					&cli.StringSliceFlag{
						Name:  "id",
						Usage: "Entry IDs to export (default: all)",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent export workers",
						Value: 4,
					},
				},
				Action: r.JournalExport,
			},
		},
	}
}

// serveCommand runs the local stub reading server.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run a local stub reading server for development",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address",
				Value: "localhost:8080",
			},
			&cli.DurationFlag{
				Name:  "delay",
				Usage: "Gap between streamed events",
				Value: 250 * time.Millisecond,
			},
		},
		Action: r.Serve,
	}
}
