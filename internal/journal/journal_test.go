package journal_test

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/arcanaworks/arcana/internal/journal"
	"github.com/arcanaworks/arcana/internal/models"
	"github.com/arcanaworks/arcana/internal/shared"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	shared.ConfigureDatabase(db, 1, 1)
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

func testEntry(createdAt time.Time) *journal.Entry {
	return &journal.Entry{
		SpreadKey: "threeCard",
		Question:  "What awaits me?",
		Cards: []models.DrawnCard{
			{Card: models.Card{Key: "major_00_fool", Name: "The Fool"}, Position: 1, Orientation: models.Upright},
			{Card: models.Card{Key: "major_13_death", Name: "Death"}, Position: 2, Orientation: models.Reversed},
			{Card: models.Card{Key: "major_17_star", Name: "The Star"}, Position: 3, Orientation: models.Upright},
		},
		Narrative: "The cards speak of change.",
		Provider:  "aurora",
		RequestID: "req-1",
		CreatedAt: createdAt,
	}
}

func TestRepositoryEntries(t *testing.T) {
	t.Run("CreateAssignsIdentity", func(t *testing.T) {
		repo := journal.NewRepository(openTestDB(t))

		entry := testEntry(time.Time{})
		if err := repo.Create(entry); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if entry.ID == "" {
			t.Error("Create did not assign an ID")
		}
		if entry.Sequence != 1 {
			t.Errorf("sequence = %d, want 1", entry.Sequence)
		}
		if entry.CreatedAt.IsZero() {
			t.Error("Create did not stamp a creation time")
		}

		second := testEntry(time.Time{})
		if err := repo.Create(second); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if second.Sequence != 2 {
			t.Errorf("second sequence = %d, want 2", second.Sequence)
		}
	})

	t.Run("CreateValidates", func(t *testing.T) {
		repo := journal.NewRepository(openTestDB(t))

		noNarrative := testEntry(time.Time{})
		noNarrative.Narrative = ""
		if err := repo.Create(noNarrative); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("empty narrative: err = %v", err)
		}

		noCards := testEntry(time.Time{})
		noCards.Cards = nil
		if err := repo.Create(noCards); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("no cards: err = %v", err)
		}
	})

	t.Run("GetRoundTrip", func(t *testing.T) {
		repo := journal.NewRepository(openTestDB(t))
		entry := testEntry(time.Time{})
		if err := repo.Create(entry); err != nil {
			t.Fatalf("Create: %v", err)
		}

		got, err := repo.Get(entry.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.Narrative != entry.Narrative || got.Question != entry.Question {
			t.Errorf("got = %+v", got)
		}
		if len(got.Cards) != 3 || got.Cards[1].Orientation != models.Reversed {
			t.Errorf("cards = %+v", got.Cards)
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		repo := journal.NewRepository(openTestDB(t))
		if _, err := repo.Get("nope"); !errors.Is(err, shared.ErrEntryNotFound) {
			t.Errorf("err = %v, want ErrEntryNotFound", err)
		}
	})

	t.Run("ListNewestFirst", func(t *testing.T) {
		repo := journal.NewRepository(openTestDB(t))
		base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		for i := 0; i < 5; i++ {
			entry := testEntry(base.Add(time.Duration(i) * time.Minute))
			if err := repo.Create(entry); err != nil {
				t.Fatalf("Create: %v", err)
			}
		}

		entries, err := repo.List(3)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(entries) != 3 {
			t.Fatalf("got %d entries, want 3", len(entries))
		}
		if entries[0].Sequence != 5 || entries[2].Sequence != 3 {
			t.Errorf("order = [%d %d %d], want newest first", entries[0].Sequence, entries[1].Sequence, entries[2].Sequence)
		}

		all, err := repo.List(0)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(all) != 5 {
			t.Errorf("List(0) returned %d entries, want all 5", len(all))
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := journal.NewRepository(openTestDB(t))
		entry := testEntry(time.Time{})
		if err := repo.Create(entry); err != nil {
			t.Fatalf("Create: %v", err)
		}

		if err := repo.Delete(entry.ID); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := repo.Get(entry.ID); !errors.Is(err, shared.ErrEntryNotFound) {
			t.Errorf("deleted entry still readable: %v", err)
		}
		if err := repo.Delete(entry.ID); !errors.Is(err, shared.ErrEntryNotFound) {
			t.Errorf("second delete: err = %v, want ErrEntryNotFound", err)
		}
	})
}

func TestRepositoryDrafts(t *testing.T) {
	reading := &models.Reading{
		SpreadKey: "threeCard",
		Seed:      42,
		Cards: []models.DrawnCard{
			{Card: models.Card{Key: "major_00_fool", Name: "The Fool"}, Position: 1, Orientation: models.Upright},
		},
	}

	t.Run("SaveLoadClear", func(t *testing.T) {
		repo := journal.NewRepository(openTestDB(t))

		if err := repo.SaveDraft("default", journal.Draft{Reading: reading, Question: "hm?"}); err != nil {
			t.Fatalf("SaveDraft: %v", err)
		}

		draft, err := repo.LoadDraft("default")
		if err != nil {
			t.Fatalf("LoadDraft: %v", err)
		}
		if draft == nil || draft.Reading == nil {
			t.Fatal("draft did not round-trip")
		}
		if draft.Reading.Seed != 42 || draft.Question != "hm?" {
			t.Errorf("draft = %+v", draft)
		}

		if err := repo.ClearDraft("default"); err != nil {
			t.Fatalf("ClearDraft: %v", err)
		}
		if draft, err := repo.LoadDraft("default"); err != nil || draft != nil {
			t.Errorf("after clear: draft = %v, err = %v", draft, err)
		}
	})

	t.Run("SaveReplacesExisting", func(t *testing.T) {
		repo := journal.NewRepository(openTestDB(t))

		if err := repo.SaveDraft("default", journal.Draft{Reading: reading, Question: "first"}); err != nil {
			t.Fatalf("SaveDraft: %v", err)
		}
		if err := repo.SaveDraft("default", journal.Draft{Reading: reading, Question: "second"}); err != nil {
			t.Fatalf("SaveDraft: %v", err)
		}

		draft, err := repo.LoadDraft("default")
		if err != nil {
			t.Fatalf("LoadDraft: %v", err)
		}
		if draft.Question != "second" {
			t.Errorf("question = %q, want the replacement", draft.Question)
		}
	})

	t.Run("ScopesAreIsolated", func(t *testing.T) {
		repo := journal.NewRepository(openTestDB(t))
		if err := repo.SaveDraft("mine", journal.Draft{Reading: reading}); err != nil {
			t.Fatalf("SaveDraft: %v", err)
		}
		if draft, err := repo.LoadDraft("theirs"); err != nil || draft != nil {
			t.Errorf("cross-scope draft = %v, err = %v", draft, err)
		}
	})

	t.Run("MissingDraftIsNil", func(t *testing.T) {
		repo := journal.NewRepository(openTestDB(t))
		if draft, err := repo.LoadDraft("default"); err != nil || draft != nil {
			t.Errorf("draft = %v, err = %v", draft, err)
		}
	})

	t.Run("NilReadingRejected", func(t *testing.T) {
		repo := journal.NewRepository(openTestDB(t))
		if err := repo.SaveDraft("default", journal.Draft{}); err == nil {
			t.Error("expected an error for a draft without a reading")
		}
	})

	t.Run("MalformedDraftIsNil", func(t *testing.T) {
		db := openTestDB(t)
		repo := journal.NewRepository(db)
		if _, err := db.Exec(
			"INSERT INTO reading_drafts (scope, reading_json, question, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)",
			"default", "{broken", "",
		); err != nil {
			t.Fatalf("seed malformed draft: %v", err)
		}
		if draft, err := repo.LoadDraft("default"); err != nil || draft != nil {
			t.Errorf("malformed draft = %v, err = %v", draft, err)
		}
	})
}
