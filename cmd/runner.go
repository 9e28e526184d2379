package main

import (
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/arcanaworks/arcana/internal/models"
	"github.com/arcanaworks/arcana/internal/services"
	"github.com/arcanaworks/arcana/internal/shared"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	jobs       *services.JobsClient
	narrator   *services.TTSClient
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	scope      string
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Jobs       *services.JobsClient
	Narrator   *services.TTSClient
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Scope      string
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Scope == "" {
		opts.Scope = sessionScope()
	}

	return &Runner{
		config:     opts.Config,
		jobs:       opts.Jobs,
		narrator:   opts.Narrator,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		scope:      opts.Scope,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, drawCommand, readCommand, cancelCommand, journalCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// openDatabase opens the configured SQLite database and brings the schema up
// to date. Migrations are idempotent, so every command can call this.
func (r *Runner) openDatabase() (*sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Storage.MaxOpenConns, r.config.Storage.MaxIdleConns)
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

// preferences derives narration preferences from configuration, with the
// --narrate flag forcing narration on for one invocation.
func (r *Runner) preferences(forceNarration bool) models.Preferences {
	prefs := models.Preferences{
		NarrationEnabled: r.config.Narration.Enabled || forceNarration,
		Provider:         r.config.Narration.Provider,
	}
	if prefs.NarrationEnabled {
		prefs.Voice = r.config.Narration.Voice
		if prefs.Voice == "" {
			prefs.Voice = "selene"
		}
	}
	return prefs
}

// persona returns the personalization block from configuration.
func (r *Runner) persona() models.Personalization {
	return models.Personalization{
		Name:      r.config.Persona.Name,
		Birthdate: r.config.Persona.Birthdate,
		Tone:      r.config.Persona.Tone,
	}
}

// sessionScope returns the persistence scope for job and draft state. It is
// stable across invocations so an interrupted reading survives a restart.
func sessionScope() string {
	if s := os.Getenv("ARCANA_SCOPE"); s != "" {
		return s
	}
	return "default"
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
