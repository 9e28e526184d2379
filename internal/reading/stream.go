package reading

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// StreamResponse is the raw result of opening a stream connection.
// The reader validates status and content type before consuming Body.
type StreamResponse struct {
	Status      int
	ContentType string
	Body        io.ReadCloser
}

// StreamSource opens the server-sent-event connection for a job. The
// per-job token authorizes the call on its own, which is what lets a
// resumed session pick the stream back up without re-deriving auth state.
type StreamSource interface {
	OpenStream(ctx context.Context, jobID, jobToken string, cursor int64) (*StreamResponse, error)
}

// TextUpdate is the coalesced narrative state pushed to the subscriber.
type TextUpdate struct {
	Text      string
	Reasoning string
	Meta      *Meta
	Final     bool
}

// StreamOutcome distinguishes how a stream attempt ended.
type StreamOutcome int

const (
	// OutcomeCompleted means a done event arrived and the narrative is final.
	OutcomeCompleted StreamOutcome = iota
	// OutcomeInterrupted means the attempt was aborted, superseded, or the
	// connection dropped before a done event. The cursor has been
	// checkpointed; calling Stream again resumes where this attempt left
	// off.
	OutcomeInterrupted
)

// StreamResult summarizes a finished stream attempt.
type StreamResult struct {
	Outcome   StreamOutcome
	FinalText string
	Reasoning string
	Provider  string
	RequestID string
	Meta      *Meta
}

// pushInterval bounds how often coalesced text updates reach the
// subscriber; snapshot and done events push immediately.
const pushInterval = 120 * time.Millisecond

// maxErrorBody caps how much of a non-SSE response body is read for an
// error message.
const maxErrorBody = 8 << 10

// StreamReader consumes the generation event stream for one job at a time.
//
// Each call to Stream supersedes the previous one: the reader hands out an
// epoch per attempt and an attempt that no longer holds the current epoch
// must not touch shared state. That guarantee is what makes "abort the old
// connection, then open a new one" safe against late frames.
type StreamReader struct {
	source   StreamSource
	store    *JobStore
	bridge   *NarrationBridge
	logger   *log.Logger
	onUpdate func(TextUpdate)

	mu        sync.Mutex
	epoch     uint64
	cancel    context.CancelFunc
	jobID     string
	text      string
	reasoning string
	meta      *Meta
	lastPush  time.Time
}

// NewStreamReader creates a reader. onUpdate may be nil; bridge may be nil
// when narration is not wired.
func NewStreamReader(source StreamSource, store *JobStore, bridge *NarrationBridge, logger *log.Logger, onUpdate func(TextUpdate)) *StreamReader {
	if logger == nil {
		logger = log.Default()
	}
	return &StreamReader{
		source:   source,
		store:    store,
		bridge:   bridge,
		logger:   logger.With("component", "stream"),
		onUpdate: onUpdate,
	}
}

// Text returns the current accumulated narrative.
func (r *StreamReader) Text() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.text
}

// Abort cancels the in-flight attempt, if any. The attempt checkpoints its
// cursor and finishes with OutcomeInterrupted.
func (r *StreamReader) Abort() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
	}
}

// Stream opens the event stream for handle and consumes it until a done
// event, a fatal error, or an interruption.
//
// A previous in-flight attempt is aborted synchronously before the new
// connection opens, so at most one connection is ever live. Interruptions
// (cancellation, connection drop) are not errors: they return a result with
// OutcomeInterrupted after force-persisting the cursor. Errors are
// *TransportError for a rejected open and *FatalError for a server-reported
// generation failure.
func (r *StreamReader) Stream(ctx context.Context, handle JobHandle) (*StreamResult, error) {
	streamCtx, myEpoch := r.begin(ctx, handle)
	defer r.release(myEpoch)

	cursor := handle.Cursor
	if c := r.store.Cursor(); c > cursor {
		cursor = c
	}

	resp, err := r.source.OpenStream(streamCtx, handle.JobID, handle.JobToken, cursor)
	if err != nil {
		if streamCtx.Err() != nil {
			return r.interrupted(myEpoch), nil
		}
		return nil, &TransportError{Status: 0, ServerMessage: err.Error()}
	}
	if terr := checkStreamResponse(resp); terr != nil {
		resp.Body.Close()
		return nil, terr
	}
	defer resp.Body.Close()

	return r.consume(streamCtx, myEpoch, resp.Body)
}

// begin registers a new attempt: it cancels the previous one, installs a
// fresh cancel func, and resets accumulators when the job changed.
func (r *StreamReader) begin(ctx context.Context, handle JobHandle) (context.Context, uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		r.cancel()
	}
	r.epoch++
	myEpoch := r.epoch

	streamCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	if r.jobID != handle.JobID {
		r.jobID = handle.JobID
		r.text = ""
		r.reasoning = ""
		r.meta = nil
	}
	return streamCtx, myEpoch
}

// release clears the cancel func if this attempt still owns it.
func (r *StreamReader) release(myEpoch uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.epoch == myEpoch && r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

// interrupted checkpoints the cursor and builds an interruption result.
func (r *StreamReader) interrupted(myEpoch uint64) *StreamResult {
	r.store.UpdateCursor(r.store.Cursor(), true)

	r.mu.Lock()
	defer r.mu.Unlock()
	return &StreamResult{
		Outcome:   OutcomeInterrupted,
		FinalText: r.text,
		Reasoning: r.reasoning,
		Meta:      r.meta,
	}
}

// consume reads and applies frames until the stream ends one way or another.
func (r *StreamReader) consume(ctx context.Context, myEpoch uint64, body io.Reader) (*StreamResult, error) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)

	var eventType string
	var data strings.Builder

	dispatch := func() (*StreamResult, error) {
		defer func() { eventType = ""; data.Reset() }()
		if eventType == "" && data.Len() == 0 {
			return nil, nil
		}
		ev, err := parseEvent(eventType, []byte(data.String()))
		if err != nil {
			// An unreadable error frame still means the server failed the
			// job; everything else malformed is skipped.
			if eventType == string(EventError) {
				return nil, &FatalError{Message: genericTransportMessage, Cause: err}
			}
			r.logger.Warn("skipping malformed event frame", "type", eventType, "err", err)
			return nil, nil
		}
		return r.apply(ctx, myEpoch, ev)
	}

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			result, err := dispatch()
			if result != nil || err != nil {
				return result, err
			}
		case strings.HasPrefix(line, ":"):
			// comment/heartbeat
		case strings.HasPrefix(line, "event:"):
			eventType = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}

	// Dangling frame without a trailing blank line, then the connection
	// closed. Apply it before deciding how this attempt ended.
	if result, err := dispatch(); result != nil || err != nil {
		return result, err
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		r.logger.Warn("stream connection dropped", "err", err)
	}
	// No done event: interruption, resumable from the checkpointed cursor.
	return r.interrupted(myEpoch), nil
}

// apply mutates accumulated state for one event. A non-nil result or error
// ends the stream. Superseded attempts return an interruption immediately
// and mutate nothing.
func (r *StreamReader) apply(ctx context.Context, myEpoch uint64, ev Event) (*StreamResult, error) {
	r.mu.Lock()
	if r.epoch != myEpoch {
		result := &StreamResult{Outcome: OutcomeInterrupted, FinalText: r.text, Reasoning: r.reasoning, Meta: r.meta}
		r.mu.Unlock()
		return result, nil
	}

	// Duplicate suppression: anything at or below the cursor was already
	// applied by an earlier attempt.
	if ev.ID <= r.store.Cursor() {
		r.mu.Unlock()
		return nil, nil
	}

	switch ev.Type {
	case EventMeta:
		r.meta = ev.Meta
		r.mu.Unlock()
		r.store.UpdateCursor(ev.ID, false)
		r.push(false)
		return nil, nil

	case EventDelta:
		r.text += ev.Text
		r.mu.Unlock()
		r.store.UpdateCursor(ev.ID, false)
		if r.bridge != nil {
			r.bridge.AppendText(ctx, ev.Text)
		}
		r.push(false)
		return nil, nil

	case EventSnapshot:
		// Authoritative resync; replaces local accumulation. Not fed to the
		// narration bridge; the coverage check at stream end accounts for
		// any text narration never saw.
		r.text = ev.Text
		r.mu.Unlock()
		r.store.UpdateCursor(ev.ID, false)
		r.push(true)
		return nil, nil

	case EventReasoning:
		if ev.Replace {
			r.reasoning = ev.Text
		} else {
			r.reasoning += ev.Text
		}
		r.mu.Unlock()
		r.store.UpdateCursor(ev.ID, false)
		r.push(false)
		return nil, nil

	case EventDone:
		if ev.Text != "" {
			r.text = ev.Text
		}
		result := &StreamResult{
			Outcome:   OutcomeCompleted,
			FinalText: r.text,
			Reasoning: r.reasoning,
			Provider:  ev.Provider,
			RequestID: ev.RequestID,
			Meta:      r.meta,
		}
		r.mu.Unlock()
		r.store.UpdateCursor(ev.ID, true)
		r.push(true)
		return result, nil

	case EventError:
		msg := ev.Message
		r.mu.Unlock()
		r.store.UpdateCursor(ev.ID, true)
		if msg == "" {
			msg = genericTransportMessage
		}
		return nil, &FatalError{Message: msg}

	default:
		r.mu.Unlock()
		return nil, nil
	}
}

// push delivers the current text to the subscriber, coalescing rapid deltas
// to at most one update per pushInterval unless forced.
func (r *StreamReader) push(force bool) {
	if r.onUpdate == nil {
		return
	}
	r.mu.Lock()
	if !force && time.Since(r.lastPush) < pushInterval {
		r.mu.Unlock()
		return
	}
	r.lastPush = time.Now()
	update := TextUpdate{Text: r.text, Reasoning: r.reasoning, Meta: r.meta, Final: force}
	r.mu.Unlock()
	r.onUpdate(update)
}

// checkStreamResponse validates that the open attempt produced a usable
// event stream. A non-SSE body is always an error, whatever the status.
func checkStreamResponse(resp *StreamResponse) *TransportError {
	isSSE := strings.HasPrefix(resp.ContentType, "text/event-stream")
	if resp.Status >= 200 && resp.Status < 300 && isSSE {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &TransportError{Status: resp.Status, ServerMessage: extractErrorMessage(body)}
}

// extractErrorMessage pulls a message out of an error body, accepting
// either {"error": "..."} or plain text.
func extractErrorMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return strings.TrimSpace(string(body))
}
