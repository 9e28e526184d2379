// package journal persists completed readings to the local database.
//
// Every finished narrative is recorded as an [Entry] so the user can revisit
// past readings. The package also keeps the single pending reading draft a
// resumable job needs to reconstruct its context after a restart.
package journal

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/arcanaworks/arcana/internal/models"
	"github.com/arcanaworks/arcana/internal/shared"
)

// Entry is one journaled reading.
type Entry struct {
	ID        string             `json:"id"`
	Sequence  int                `json:"sequence"`
	SpreadKey string             `json:"spread_key"`
	Question  string             `json:"question,omitempty"`
	Cards     []models.DrawnCard `json:"cards"`
	Narrative string             `json:"narrative"`
	Provider  string             `json:"provider,omitempty"`
	RequestID string             `json:"request_id,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

// Repository provides journal persistence over SQLite.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a Repository with the given database connection.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// NextSequence atomically increments and returns the next journal sequence
// number. Sequence numbers give entries a stable human-readable ordering.
func (r *Repository) NextSequence() (int, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("UPDATE journal_entries_sequence SET value = value + 1 WHERE id = 1"); err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	var sequence int
	if err := tx.QueryRow("SELECT value FROM journal_entries_sequence WHERE id = 1").Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to get sequence value: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit sequence transaction: %w", err)
	}
	return sequence, nil
}

// Create inserts a new entry with a generated ID and sequence.
func (r *Repository) Create(entry *Entry) error {
	if entry.Narrative == "" {
		return fmt.Errorf("%w: entry has no narrative", shared.ErrInvalidInput)
	}
	if len(entry.Cards) == 0 {
		return fmt.Errorf("%w: entry has no cards", shared.ErrInvalidInput)
	}

	sequence, err := r.NextSequence()
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	entry.Sequence = sequence
	if entry.ID == "" {
		entry.ID = shared.GenerateID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	cardsJSON, err := json.Marshal(entry.Cards)
	if err != nil {
		return fmt.Errorf("failed to marshal cards: %w", err)
	}

	query := `
		INSERT INTO journal_entries (id, sequence, spread_key, question, cards_json, narrative, provider, request_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query,
		entry.ID,
		entry.Sequence,
		entry.SpreadKey,
		entry.Question,
		string(cardsJSON),
		entry.Narrative,
		entry.Provider,
		entry.RequestID,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert journal entry: %w", err)
	}
	return nil
}

// Get retrieves an entry by ID.
func (r *Repository) Get(id string) (*Entry, error) {
	query := `
		SELECT id, sequence, spread_key, question, cards_json, narrative, provider, request_id, created_at
		FROM journal_entries
		WHERE id = ?
	`
	return r.scanOne(r.db.QueryRow(query, id))
}

// List returns the most recent entries, newest first. A non-positive limit
// returns every entry.
func (r *Repository) List(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1 // SQLite treats a negative LIMIT as unbounded
	}
	query := `
		SELECT id, sequence, spread_key, question, cards_json, narrative, provider, request_id, created_at
		FROM journal_entries
		ORDER BY created_at DESC
		LIMIT ?
	`
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// Delete removes an entry by ID.
func (r *Repository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM journal_entries WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete journal entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return shared.ErrEntryNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanOne(row *sql.Row) (*Entry, error) {
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.ErrEntryNotFound
		}
		return nil, err
	}
	return entry, nil
}

func scanEntry(row rowScanner) (*Entry, error) {
	var entry Entry
	var cardsJSON string
	err := row.Scan(
		&entry.ID,
		&entry.Sequence,
		&entry.SpreadKey,
		&entry.Question,
		&cardsJSON,
		&entry.Narrative,
		&entry.Provider,
		&entry.RequestID,
		&entry.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan journal entry: %w", err)
	}
	if err := json.Unmarshal([]byte(cardsJSON), &entry.Cards); err != nil {
		return nil, fmt.Errorf("failed to parse cards for entry %s: %w", entry.ID, err)
	}
	return &entry, nil
}
