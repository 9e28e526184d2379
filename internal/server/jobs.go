package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/arcanaworks/arcana/internal/reading"
	"github.com/arcanaworks/arcana/internal/shared"
	"github.com/charmbracelet/log"
)

// stubProvider is the provider name the stub reports in meta and done events.
const stubProvider = "aurora"

// JobsHandler is an in-process stand-in for the reading server's jobs API.
// It accepts job creation, replays an event log over SSE from any cursor,
// and honors cancellation, which makes it useful both for local development
// (the serve command) and for exercising clients against the real wire
// contract in tests.
//
// Narratives are composed deterministically from the card meanings in the
// request, so repeated runs of the same draw stream identical events.
type JobsHandler struct {
	logger *log.Logger

	// EventDelay is the gap between streamed events. Zero replays the whole
	// log immediately, which is what tests want.
	EventDelay time.Duration

	mu   sync.Mutex
	jobs map[string]*stubJob
}

type stubJob struct {
	token     string
	events    []stubEvent
	cancelled bool
}

// stubEvent is one SSE frame of the job's event log.
type stubEvent struct {
	eventType string
	payload   map[string]any
	id        int64
}

// NewJobsHandler creates an empty stub jobs server.
func NewJobsHandler(logger *log.Logger) *JobsHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &JobsHandler{
		logger: logger.With("component", "stub-server"),
		jobs:   map[string]*stubJob{},
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *JobsHandler) Routes() []string {
	return []string{
		"POST /jobs",
		"GET /jobs/{jobID}/stream",
		"POST /jobs/{jobID}/cancel",
	}
}

// ServeHTTP dispatches to the jobs endpoints.
func (h *JobsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/jobs":
		h.createJob(w, r)
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/stream"):
		h.streamJob(w, r)
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/cancel"):
		h.cancelJob(w, r)
	default:
		http.NotFound(w, r)
	}
}

// createJob validates the payload, composes the event log, and returns the
// job identity.
func (h *JobsHandler) createJob(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") == "" {
		writeError(w, http.StatusUnauthorized, "session required")
		return
	}

	var req reading.ReadingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if len(req.Cards) == 0 || req.Spread.Key == "" {
		writeError(w, http.StatusBadRequest, "reading has no cards")
		return
	}

	job := &stubJob{
		token:  shared.GenerateID(),
		events: composeEvents(&req),
	}

	jobID := shared.GenerateID()
	h.mu.Lock()
	h.jobs[jobID] = job
	h.mu.Unlock()

	h.logger.Info("job created", "job", jobID, "spread", req.Spread.Key, "events", len(job.events))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{
		"jobId":    jobID,
		"jobToken": job.token,
	})
}

// streamJob replays the job's event log over SSE, skipping events at or
// below the cursor.
func (h *JobsHandler) streamJob(w http.ResponseWriter, r *http.Request) {
	jobID := pathSegment(r.URL.Path, "/jobs/", "/stream")

	h.mu.Lock()
	job, ok := h.jobs[jobID]
	h.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if r.Header.Get("X-Job-Token") != job.token {
		writeError(w, http.StatusForbidden, "invalid job token")
		return
	}
	if job.isCancelled() {
		writeError(w, http.StatusGone, "job no longer exists")
		return
	}

	cursor, _ := strconv.ParseInt(r.URL.Query().Get("cursor"), 10, 64)

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for _, ev := range job.events {
		if ev.id <= cursor {
			continue
		}
		select {
		case <-r.Context().Done():
			return
		default:
		}
		if job.isCancelled() {
			return
		}

		data, err := json.Marshal(ev.payload)
		if err != nil {
			h.logger.Error("failed to marshal event", "err", err)
			return
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.eventType, data)
		flusher.Flush()

		if h.EventDelay > 0 {
			time.Sleep(h.EventDelay)
		}
	}
}

// cancelJob marks the job cancelled; later stream opens get 410.
func (h *JobsHandler) cancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := pathSegment(r.URL.Path, "/jobs/", "/cancel")

	h.mu.Lock()
	job, ok := h.jobs[jobID]
	h.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if r.Header.Get("X-Job-Token") != job.token {
		writeError(w, http.StatusForbidden, "invalid job token")
		return
	}

	job.cancel()
	h.logger.Info("job cancelled", "job", jobID)
	w.WriteHeader(http.StatusNoContent)
}

func (j *stubJob) isCancelled() bool {
	// jobs are only mutated under the handler mutex; cancelled is a
	// one-way latch so a racy read is harmless
	return j.cancelled
}

func (j *stubJob) cancel() {
	j.cancelled = true
}

// composeEvents builds the full event log for a request: one meta event,
// sentence-by-sentence deltas, and a final done event.
func composeEvents(req *reading.ReadingRequest) []stubEvent {
	narrative := composeNarrative(req)
	requestID := shared.GenerateID()

	themes := make([]string, 0, len(req.Cards))
	for _, card := range req.Cards {
		themes = append(themes, card.Name)
	}

	var id int64 = 1
	events := []stubEvent{{
		eventType: "meta",
		id:        id,
		payload: map[string]any{
			"eventId":        id,
			"provider":       stubProvider,
			"requestId":      requestID,
			"themes":         themes,
			"spreadAnalysis": fmt.Sprintf("A %s reading of %d cards.", req.Spread.Name, len(req.Cards)),
		},
	}}

	// Subsequent deltas carry a leading space so the concatenation of all
	// delta texts reproduces the final narrative exactly.
	for i, sentence := range splitSentences(narrative) {
		if i > 0 {
			sentence = " " + sentence
		}
		id++
		events = append(events, stubEvent{
			eventType: "delta",
			id:        id,
			payload: map[string]any{
				"eventId": id,
				"text":    sentence,
			},
		})
	}

	id++
	events = append(events, stubEvent{
		eventType: "done",
		id:        id,
		payload: map[string]any{
			"eventId":   id,
			"text":      narrative,
			"provider":  stubProvider,
			"requestId": requestID,
		},
	})
	return events
}

// composeNarrative strings the card meanings into a short deterministic
// narrative.
func composeNarrative(req *reading.ReadingRequest) string {
	var b strings.Builder
	if req.Question != "" {
		fmt.Fprintf(&b, "You asked: %s. ", strings.TrimRight(req.Question, "?.!"))
	}
	for i, card := range req.Cards {
		if i > 0 {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "In the position of %s, %s appears %s. %s", card.PositionLabel, card.Name, card.Orientation, card.Meaning)
		if !strings.HasSuffix(card.Meaning, ".") {
			b.WriteString(".")
		}
	}
	b.WriteString(" Carry these images with you as the day unfolds.")
	return b.String()
}

// splitSentences breaks text at sentence ends, keeping the terminator.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			end := i + 1
			if s := strings.TrimSpace(text[start:end]); s != "" {
				sentences = append(sentences, s)
			}
			start = end
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// pathSegment extracts the segment between prefix and suffix, e.g. the job
// ID from /jobs/{id}/stream.
func pathSegment(path, prefix, suffix string) string {
	s := strings.TrimPrefix(path, prefix)
	s = strings.TrimSuffix(s, suffix)
	return strings.Trim(s, "/")
}

// writeError writes a JSON error body in the shape clients expect.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
