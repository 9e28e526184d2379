package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/arcanaworks/arcana/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve runs a local stub of the reading server. Useful for trying the
// client end to end without a real backend: point server.base_url at it.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	addr := cmd.String("addr")
	delay := cmd.Duration("delay")

	jobs := server.NewJobsHandler(r.logger)
	jobs.EventDelay = delay

	router := server.NewBasicRouter()
	router.Use(server.LoggingMiddleware(r.logger))
	router.Handler(jobs)

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	r.logger.Info("stub reading server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
