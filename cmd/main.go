package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/arcanaworks/arcana/internal/services"
	"github.com/arcanaworks/arcana/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	var tokens oauth2.TokenSource
	if config.Server.SessionToken != "" {
		tokens = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: config.Server.SessionToken})
	}
	jobs := services.NewJobsClient(config.Server.BaseURL, http.DefaultClient, tokens)

	var narrator *services.TTSClient
	if config.Narration.Enabled {
		narrator = services.NewTTSClient(config.Narration.BaseURL, config.Narration.Voice, http.DefaultClient)
	}

	runner := NewRunner(RunnerOpts{
		Config:   config,
		Jobs:     jobs,
		Narrator: narrator,
		Logger:   logger,
	})

	app := &cli.Command{
		Name:     "arcana",
		Usage:    "Draw tarot spreads and stream narrated readings",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
