package shared_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arcanaworks/arcana/internal/shared"
)

func TestGenerateID(t *testing.T) {
	a := shared.GenerateID()
	b := shared.GenerateID()
	if a == "" || a == b {
		t.Errorf("ids = %q, %q", a, b)
	}
}

func TestCollapseSpace(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"what awaits me?", "what awaits me?"},
		{"  what   awaits\tme?  ", "what awaits me?"},
		{"line\nbreaks\ntoo", "line breaks too"},
	}
	for _, tc := range tests {
		if got := shared.CollapseSpace(tc.in); got != tc.want {
			t.Errorf("CollapseSpace(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMarshalJSON(t *testing.T) {
	data := map[string]int{"cards": 3}

	compact, err := shared.MarshalJSON(data, false)
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if string(compact) != `{"cards":3}` {
		t.Errorf("compact = %s", compact)
	}

	pretty, err := shared.MarshalJSON(data, true)
	if err != nil {
		t.Fatalf("MarshalJSON pretty: %v", err)
	}
	if !strings.Contains(string(pretty), "\n") {
		t.Errorf("pretty output not indented: %s", pretty)
	}
}

func TestConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		config := shared.DefaultConfig()
		if config.Server.BaseURL == "" {
			t.Error("default config has no server base URL")
		}
		if config.Storage.Path == "" {
			t.Error("default config has no storage path")
		}
	})

	t.Run("LoadFromFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		contents := `
[server]
base_url = "https://readings.example.com"
session_token = "tok"

[narration]
enabled = true
voice = "selene"
provider = "aurora"

[storage]
path = "readings.db"
`
		if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}

		config, err := shared.LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig: %v", err)
		}
		if config.Server.BaseURL != "https://readings.example.com" || config.Server.SessionToken != "tok" {
			t.Errorf("server = %+v", config.Server)
		}
		if !config.Narration.Enabled || config.Narration.Voice != "selene" {
			t.Errorf("narration = %+v", config.Narration)
		}
		if config.Storage.Path != "readings.db" {
			t.Errorf("storage = %+v", config.Storage)
		}
	})

	t.Run("LoadMissingFile", func(t *testing.T) {
		if _, err := shared.LoadConfig(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
			t.Error("expected an error for a missing config file")
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := shared.CreateConfigFile(path); err != nil {
			t.Fatalf("CreateConfigFile: %v", err)
		}
		if _, err := shared.LoadConfig(path); err != nil {
			t.Errorf("created config does not parse: %v", err)
		}
		if err := shared.CreateConfigFile(path); err == nil {
			t.Error("expected an error when the config already exists")
		}
	})
}

func TestMigrations(t *testing.T) {
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("NewDatabase: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	// Running again is a no-op, not an error.
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("second RunMigrations: %v", err)
	}

	for _, table := range []string{"journal_entries", "journal_entries_sequence", "reading_drafts", "job_state"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %q missing after migrations: %v", table, err)
		}
	}

	t.Run("Rollback", func(t *testing.T) {
		if err := shared.RollbackMigration(db); err != nil {
			t.Fatalf("RollbackMigration: %v", err)
		}
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='journal_entries'").Scan(&name)
		if err == nil {
			t.Error("journal_entries still present after rollback")
		}
	})
}
