package reading

import (
	"database/sql"
	"errors"
)

// Storage is the persistence medium for job state. One record exists per
// (scope, feature) pair; a scope corresponds to one client session and is
// never shared between concurrent sessions.
//
// Implementations may fail (locked database, missing file, read-only
// filesystem). Callers in this package treat every failure as "storage
// unavailable" and degrade to in-memory state rather than surfacing errors.
type Storage interface {
	// Get returns the stored record, or ok=false if none exists.
	Get(scope, feature string) (value []byte, ok bool)
	// Put stores or replaces the record.
	Put(scope, feature string, value []byte) error
	// Delete removes the record; deleting a missing record is not an error.
	Delete(scope, feature string) error
}

// SQLiteStorage persists job state records in the job_state table created by
// the shared migrations.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage wraps an open database handle.
func NewSQLiteStorage(db *sql.DB) *SQLiteStorage {
	return &SQLiteStorage{db: db}
}

func (s *SQLiteStorage) Get(scope, feature string) ([]byte, bool) {
	var payload string
	err := s.db.QueryRow(
		"SELECT payload FROM job_state WHERE scope = ? AND feature = ?",
		scope, feature,
	).Scan(&payload)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, false
		}
		return nil, false
	}
	return []byte(payload), true
}

func (s *SQLiteStorage) Put(scope, feature string, value []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO job_state (scope, feature, payload, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (scope, feature) DO UPDATE SET
			payload = excluded.payload,
			updated_at = CURRENT_TIMESTAMP
	`, scope, feature, string(value))
	return err
}

func (s *SQLiteStorage) Delete(scope, feature string) error {
	_, err := s.db.Exec("DELETE FROM job_state WHERE scope = ? AND feature = ?", scope, feature)
	return err
}
