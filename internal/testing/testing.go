// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/arcanaworks/arcana/internal/models"
	"github.com/arcanaworks/arcana/internal/reading"
)

// MemoryStorage is an in-memory reading.Storage test double.
type MemoryStorage struct {
	mu       sync.Mutex
	records  map[string][]byte
	FailPuts bool // when set, Put returns an error
	PutCount int
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{records: make(map[string][]byte)}
}

func (m *MemoryStorage) key(scope, feature string) string { return scope + "/" + feature }

func (m *MemoryStorage) Get(scope, feature string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.records[m.key(scope, feature)]
	return v, ok
}

func (m *MemoryStorage) Put(scope, feature string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailPuts {
		return errors.New("storage unavailable")
	}
	m.PutCount++
	m.records[m.key(scope, feature)] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStorage) Delete(scope, feature string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, m.key(scope, feature))
	return nil
}

// MockNarrator records queued chunks and can be scripted to reject them.
type MockNarrator struct {
	mu        sync.Mutex
	Chunks    []string
	FailAfter int // reject chunks once this many have been accepted; 0 means never
}

func (m *MockNarrator) QueueChunk(_ context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAfter > 0 && len(m.Chunks) >= m.FailAfter {
		return errors.New("queue full")
	}
	m.Chunks = append(m.Chunks, text)
	return nil
}

// Queued returns a copy of the accepted chunks.
func (m *MockNarrator) Queued() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Chunks...)
}

// QueuedChars returns the total characters accepted.
func (m *MockNarrator) QueuedChars() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, c := range m.Chunks {
		total += len(c)
	}
	return total
}

// SSEFrame renders one server-sent-event frame.
func SSEFrame(eventType string, data string) string {
	return fmt.Sprintf("event: %s\ndata: %s\n\n", eventType, data)
}

// DeltaFrame renders a delta frame with the given id and text.
func DeltaFrame(id int, text string) string {
	return SSEFrame("delta", fmt.Sprintf(`{"eventId":%d,"text":%q}`, id, text))
}

// DoneFrame renders a done frame.
func DoneFrame(id int, text string) string {
	return SSEFrame("done", fmt.Sprintf(`{"eventId":%d,"text":%q,"provider":"mock","requestId":"req-1"}`, id, text))
}

// ScriptedJobService is a reading.JobService test double. Each OpenStream
// call consumes the next scripted response.
type ScriptedJobService struct {
	mu sync.Mutex

	JobID    string
	JobToken string

	CreateCalls int
	CreateErr   error

	// Streams are consumed in order; each entry is either an SSE body or
	// an error to return from OpenStream.
	Streams []ScriptedStream

	StreamCalls []int64 // cursor of each OpenStream call
	CancelCalls int
}

// ScriptedStream is one scripted OpenStream outcome.
type ScriptedStream struct {
	Status      int
	ContentType string
	Body        string
	Err         error
	// Close blocks the body after the scripted content: when set, the body
	// stays open until the context is cancelled (simulating a live stream).
	Hang bool
}

func (s *ScriptedJobService) CreateJob(_ context.Context, _ *reading.ReadingRequest) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CreateCalls++
	if s.CreateErr != nil {
		return "", "", s.CreateErr
	}
	if s.JobID == "" {
		s.JobID = "job-1"
	}
	if s.JobToken == "" {
		s.JobToken = "token-1"
	}
	return s.JobID, s.JobToken, nil
}

func (s *ScriptedJobService) OpenStream(ctx context.Context, _, _ string, cursor int64) (*reading.StreamResponse, error) {
	s.mu.Lock()
	s.StreamCalls = append(s.StreamCalls, cursor)
	if len(s.Streams) == 0 {
		s.mu.Unlock()
		return nil, errors.New("no scripted stream")
	}
	next := s.Streams[0]
	s.Streams = s.Streams[1:]
	s.mu.Unlock()

	if next.Err != nil {
		return nil, next.Err
	}
	status := next.Status
	if status == 0 {
		status = 200
	}
	contentType := next.ContentType
	if contentType == "" {
		contentType = "text/event-stream"
	}

	var body io.ReadCloser
	if next.Hang {
		body = &hangingBody{reader: strings.NewReader(next.Body), ctx: ctx}
	} else {
		body = io.NopCloser(strings.NewReader(next.Body))
	}
	return &reading.StreamResponse{Status: status, ContentType: contentType, Body: body}, nil
}

func (s *ScriptedJobService) CancelJob(_ context.Context, _, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CancelCalls++
	return nil
}

// hangingBody serves its content, then blocks until the context ends,
// the shape of a live SSE connection waiting for more events.
type hangingBody struct {
	reader *strings.Reader
	ctx    context.Context
}

func (h *hangingBody) Read(p []byte) (int, error) {
	n, err := h.reader.Read(p)
	if err == io.EOF && n == 0 {
		<-h.ctx.Done()
		return 0, h.ctx.Err()
	}
	if err == io.EOF {
		return n, nil
	}
	return n, err
}

func (h *hangingBody) Close() error { return nil }

// StreamingPrefs returns preferences with streaming narration fully enabled.
func StreamingPrefs() models.Preferences {
	return models.Preferences{NarrationEnabled: true, Voice: "selene", Provider: "aurora"}
}

// MustThreeCardReading draws a deterministic three-card reading for tests.
func MustThreeCardReading(t *testing.T) *models.Reading {
	t.Helper()
	deck, err := models.DefaultDeck()
	if err != nil {
		t.Fatalf("failed to load deck: %v", err)
	}
	spread, ok := models.SpreadByKey("threeCard")
	if !ok {
		t.Fatal("threeCard spread missing from catalog")
	}
	r, err := models.Draw(deck, spread, 42)
	if err != nil {
		t.Fatalf("failed to draw reading: %v", err)
	}
	return r
}
