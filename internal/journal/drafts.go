package journal

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/arcanaworks/arcana/internal/models"
)

// Draft is the reading a still-running generation job was created from.
// One draft exists per session scope; it is written when a job starts and
// removed when the narrative completes or the job is cancelled.
type Draft struct {
	Reading  *models.Reading `json:"reading"`
	Question string          `json:"question,omitempty"`
}

// SaveDraft stores or replaces the pending draft for a scope.
func (r *Repository) SaveDraft(scope string, draft Draft) error {
	if draft.Reading == nil {
		return fmt.Errorf("draft has no reading")
	}
	readingJSON, err := json.Marshal(draft.Reading)
	if err != nil {
		return fmt.Errorf("failed to marshal draft reading: %w", err)
	}
	_, err = r.db.Exec(`
		INSERT INTO reading_drafts (scope, reading_json, question, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (scope) DO UPDATE SET
			reading_json = excluded.reading_json,
			question = excluded.question,
			updated_at = CURRENT_TIMESTAMP
	`, scope, string(readingJSON), draft.Question)
	if err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

// LoadDraft returns the pending draft for a scope, or nil when none exists.
// A malformed record is treated as absent.
func (r *Repository) LoadDraft(scope string) (*Draft, error) {
	var readingJSON, question string
	err := r.db.QueryRow(
		"SELECT reading_json, question FROM reading_drafts WHERE scope = ?", scope,
	).Scan(&readingJSON, &question)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}

	var reading models.Reading
	if err := json.Unmarshal([]byte(readingJSON), &reading); err != nil {
		return nil, nil
	}
	return &Draft{Reading: &reading, Question: question}, nil
}

// ClearDraft removes the pending draft for a scope.
func (r *Repository) ClearDraft(scope string) error {
	if _, err := r.db.Exec("DELETE FROM reading_drafts WHERE scope = ?", scope); err != nil {
		return fmt.Errorf("failed to clear draft: %w", err)
	}
	return nil
}
