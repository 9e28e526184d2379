package reading

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

// featureKey is the fixed record name for the narrative generation job.
// A scope holds at most one such record.
const featureKey = "narrative_job"

// JobHandle identifies one in-progress narrative generation job.
type JobHandle struct {
	JobID    string `json:"jobId"`
	JobToken string `json:"jobToken"`
	// Cursor is the id of the last stream event successfully applied.
	// Resuming re-opens the stream from this id.
	Cursor int64 `json:"cursor"`
	// ReadingKey fingerprints the reading the job was created for. A
	// persisted job whose key no longer matches the current reading is
	// stale and must not be resumed.
	ReadingKey string `json:"readingKey"`
}

// JobStore is the durable record of the single active job. It is the only
// component that touches persistent storage for job state.
//
// Writes are throttled: cursor updates land in storage on every fifth event
// or after a second has elapsed, whichever comes first, unless forced.
// A force write happens before any pause so a durable checkpoint always
// exists when the stream is torn down.
//
// Storage failures are logged and swallowed; persistence is best-effort
// and must never break the stream it is checkpointing.
type JobStore struct {
	storage Storage
	scope   string
	logger  *log.Logger

	mu      sync.Mutex
	handle  *JobHandle
	writeEv rate.Sometimes
}

// NewJobStore creates a JobStore bound to one session scope.
func NewJobStore(storage Storage, scope string, logger *log.Logger) *JobStore {
	if logger == nil {
		logger = log.Default()
	}
	return &JobStore{
		storage: storage,
		scope:   scope,
		logger:  logger.With("component", "jobstore", "scope", scope),
		writeEv: rate.Sometimes{Every: 5, Interval: time.Second},
	}
}

// Persist records a new job handle in memory and storage.
func (s *JobStore) Persist(handle JobHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := handle
	s.handle = &h
	s.writeEv = rate.Sometimes{Every: 5, Interval: time.Second}
	s.write()
}

// Load returns the persisted job handle, or nil when none exists. A
// malformed record is treated as absent.
func (s *JobStore) Load() *JobHandle {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle != nil {
		h := *s.handle
		return &h
	}

	data, ok := s.storage.Get(s.scope, featureKey)
	if !ok {
		return nil
	}
	var h JobHandle
	if err := json.Unmarshal(data, &h); err != nil || h.JobID == "" {
		s.logger.Debug("discarding malformed job record", "err", err)
		return nil
	}
	s.handle = &h
	out := h
	return &out
}

// Clear removes the job record from memory and storage.
func (s *JobStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handle = nil
	if err := s.storage.Delete(s.scope, featureKey); err != nil {
		s.logger.Debug("failed to delete job record", "err", err)
	}
}

// UpdateCursor advances the cursor to eventID. The cursor never rewinds:
// an eventID at or below the current cursor is ignored. When force is set
// the new cursor is written to storage immediately; otherwise the write is
// throttled.
func (s *JobStore) UpdateCursor(eventID int64, force bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle == nil || eventID <= s.handle.Cursor {
		if force && s.handle != nil {
			s.write()
		}
		return
	}
	s.handle.Cursor = eventID

	if force {
		s.write()
		return
	}
	s.writeEv.Do(s.write)
}

// Cursor returns the current in-memory cursor, or -1 when no job is held.
func (s *JobStore) Cursor() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == nil {
		return -1
	}
	return s.handle.Cursor
}

// write serializes the in-memory handle to storage. Callers hold s.mu.
func (s *JobStore) write() {
	if s.handle == nil {
		return
	}
	data, err := json.Marshal(s.handle)
	if err != nil {
		s.logger.Debug("failed to marshal job record", "err", err)
		return
	}
	if err := s.storage.Put(s.scope, featureKey, data); err != nil {
		s.logger.Debug("failed to persist job record", "err", err)
	}
}
