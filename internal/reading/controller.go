package reading

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/arcanaworks/arcana/internal/models"
	"github.com/arcanaworks/arcana/internal/shared"
	"github.com/charmbracelet/log"
)

// Phase is the narrative generation phase shown to the user.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAnalyzing
	PhaseDrafting
	PhasePolishing
	PhaseComplete
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAnalyzing:
		return "analyzing"
	case PhaseDrafting:
		return "drafting"
	case PhasePolishing:
		return "polishing"
	case PhaseComplete:
		return "complete"
	case PhaseError:
		return "error"
	default:
		return ""
	}
}

// JobService is the reading server as the controller sees it.
type JobService interface {
	StreamSource

	// CreateJob submits a validated payload and returns the job identity.
	CreateJob(ctx context.Context, req *ReadingRequest) (jobID, jobToken string, err error)

	// CancelJob tells the server to stop a job. Best-effort: the controller
	// ignores the result beyond logging.
	CancelJob(ctx context.Context, jobID, jobToken string) error
}

// Snapshot is the controller state pushed to the UI layer.
type Snapshot struct {
	Phase        Phase
	StreamActive bool
	Narrative    string
	Reasoning    string
	Message      string // user-facing, empty unless something needs saying
	Meta         *Meta
}

// CompletedReading is handed to the completion callback when a narrative
// finishes, so the host can journal it.
type CompletedReading struct {
	Reading   *models.Reading
	Question  string
	Narrative string
	Reasoning string
	Provider  string
	RequestID string
}

// ControllerOpts collects the controller's collaborators. Everything is
// passed explicitly; the controller performs no ambient lookups.
type ControllerOpts struct {
	Store    *JobStore
	Jobs     JobService
	Bridge   *NarrationBridge // may be nil
	Narrator Narrator         // used for the one-shot full-text fallback; may be nil
	Signals  EnvironmentSignals
	Logger   *log.Logger

	// OnUpdate receives coalesced state snapshots. May be nil.
	OnUpdate func(Snapshot)
	// OnComplete receives the finished narrative. May be nil.
	OnComplete func(CompletedReading)
}

// Controller orchestrates the narrative generation lifecycle: start, resume
// across interruptions, pause on backgrounding, and cancellation. It owns
// the phase state machine and guarantees at most one active stream.
type Controller struct {
	store      *JobStore
	jobs       JobService
	bridge     *NarrationBridge
	narrator   Narrator
	signals    EnvironmentSignals
	logger     *log.Logger
	onUpdate   func(Snapshot)
	onComplete func(CompletedReading)
	reader     *StreamReader

	mu              sync.Mutex
	phase           Phase
	streamActive    bool
	inFlight        bool
	reading         *models.Reading
	question        string
	personalization models.Personalization
	location        models.Location
	narrative       string
	reasoning       string
	message         string
	meta            *Meta
	unsubscribe     func()
	attemptDone     chan struct{}
}

// NewController wires a controller from its collaborators.
func NewController(opts ControllerOpts) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	c := &Controller{
		store:      opts.Store,
		jobs:       opts.Jobs,
		bridge:     opts.Bridge,
		narrator:   opts.Narrator,
		signals:    opts.Signals,
		logger:     logger.With("component", "controller"),
		onUpdate:   opts.OnUpdate,
		onComplete: opts.OnComplete,
		phase:      PhaseIdle,
	}
	c.reader = NewStreamReader(opts.Jobs, opts.Store, opts.Bridge, logger, c.onStreamUpdate)
	return c
}

// SetReading installs the reading the next Generate or Resume acts on.
func (c *Controller) SetReading(reading *models.Reading, question string, personalization models.Personalization, location models.Location) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reading = reading
	c.question = question
	c.personalization = personalization
	c.location = location
}

// Start subscribes to environment signals and attempts a resume of any
// persisted job. Call Close when leaving the feature.
func (c *Controller) Start(ctx context.Context) {
	if c.signals != nil {
		unsub := c.signals.Subscribe(EnvironmentHooks{
			BecameVisible: func() { c.Resume(ctx) },
			BecameHidden:  func() { c.Pause() },
			NavigatedAway: func() { c.Pause() },
		})
		c.mu.Lock()
		c.unsubscribe = unsub
		c.mu.Unlock()
	}
	c.Resume(ctx)
}

// Close unsubscribes from signals and pauses any live stream.
func (c *Controller) Close() {
	c.mu.Lock()
	unsub := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()
	if unsub != nil {
		unsub()
	}
	c.Pause()
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Wait returns a channel closed when the current stream attempt finishes.
// With no attempt in flight the returned channel is already closed.
func (c *Controller) Wait() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.attemptDone == nil {
		done := make(chan struct{})
		close(done)
		return done
	}
	return c.attemptDone
}

// Generate starts a new generation job for the current reading.
//
// The in-flight guard is checked synchronously so a double invocation (the
// terminal equivalent of a double-click) cannot issue two job-creation
// requests. Validation failures and busy states return an error without
// touching the network.
func (c *Controller) Generate(ctx context.Context) error {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return shared.ErrGenerationBusy
	}
	if c.reading == nil || len(c.reading.Cards) == 0 {
		c.mu.Unlock()
		return shared.ErrNoCardsDrawn
	}
	req, verr := BuildRequest(c.reading, c.question, c.personalization, c.location)
	if verr != nil {
		c.message = "Some reading details are missing. Please review your draw and try again."
		c.mu.Unlock()
		c.pushUpdate()
		return verr
	}
	c.inFlight = true
	c.message = ""
	c.mu.Unlock()

	// A previous attempt that somehow lingers must die before the new job
	// exists, never after.
	c.reader.Abort()
	if c.bridge != nil {
		c.bridge.Reset()
	}

	jobID, jobToken, err := c.jobs.CreateJob(ctx, req)
	if err != nil {
		c.logger.Error("job creation failed", "err", err)
		c.failAttempt(userMessageFor(err), false)
		return err
	}

	handle := JobHandle{
		JobID:      jobID,
		JobToken:   jobToken,
		Cursor:     0,
		ReadingKey: ReadingKey(req),
	}
	c.store.Persist(handle)

	c.beginAttempt(PhaseAnalyzing)
	go c.run(context.WithoutCancel(ctx), handle)
	return nil
}

// Resume continues a persisted job if one exists, its fingerprint still
// matches the current reading, and nothing is already streaming. It reports
// whether a resume attempt was started.
func (c *Controller) Resume(ctx context.Context) bool {
	c.mu.Lock()
	if c.inFlight || c.phase == PhaseComplete || c.phase == PhaseError || c.reading == nil {
		c.mu.Unlock()
		return false
	}
	req, verr := BuildRequest(c.reading, c.question, c.personalization, c.location)
	if verr != nil {
		c.mu.Unlock()
		return false
	}
	c.mu.Unlock()

	handle := c.store.Load()
	if handle == nil {
		return false
	}
	if handle.ReadingKey != ReadingKey(req) {
		c.logger.Info("persisted job is for a different reading, discarding", "job", handle.JobID)
		c.store.Clear()
		return false
	}

	c.mu.Lock()
	if c.inFlight { // lost a race with another trigger
		c.mu.Unlock()
		return false
	}
	c.inFlight = true
	c.mu.Unlock()

	phase := PhaseAnalyzing
	if handle.Cursor > 0 {
		phase = PhaseDrafting
	}
	c.beginAttempt(phase)
	c.logger.Info("resuming narrative stream", "job", handle.JobID, "cursor", handle.Cursor)
	go c.run(context.WithoutCancel(ctx), *handle)
	return true
}

// Pause aborts the live connection without giving up the job. The cursor is
// force-persisted by the reader's teardown, so a later Resume picks up
// exactly where this left off.
func (c *Controller) Pause() {
	c.reader.Abort()
}

// Cancel abandons the current job entirely: the connection is aborted, the
// server is told to stop (best-effort), persisted state is cleared, and the
// phase returns to idle.
func (c *Controller) Cancel(ctx context.Context) {
	c.reader.Abort()

	if handle := c.store.Load(); handle != nil {
		go func(h JobHandle) {
			cancelCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := c.jobs.CancelJob(cancelCtx, h.JobID, h.JobToken); err != nil {
				c.logger.Debug("server-side cancel failed", "job", h.JobID, "err", err)
			}
		}(*handle)
	}
	c.store.Clear()
	if c.bridge != nil {
		c.bridge.Reset()
	}

	c.mu.Lock()
	c.phase = PhaseIdle
	c.streamActive = false
	c.narrative = ""
	c.reasoning = ""
	c.message = ""
	c.meta = nil
	c.mu.Unlock()
	c.pushUpdate()
}

// run consumes one stream attempt to its conclusion.
func (c *Controller) run(ctx context.Context, handle JobHandle) {
	result, err := c.reader.Stream(ctx, handle)

	switch {
	case err != nil:
		var terr *TransportError
		if errors.As(err, &terr) {
			if terr.Resumable() {
				// The job may still be alive server-side; stay paused and
				// let the next trigger retry. Connection-level failures
				// stay silent, status-coded ones surface their message.
				msg := ""
				if terr.Status != 0 {
					msg = terr.UserMessage()
				}
				c.logger.Warn("stream open failed, will retry on next trigger", "err", err)
				c.pauseAttempt(msg)
				return
			}
			c.failAttempt(terr.UserMessage(), true)
			return
		}
		var ferr *FatalError
		if errors.As(err, &ferr) {
			c.failAttempt(ferr.Message, true)
			return
		}
		c.failAttempt(genericTransportMessage, true)

	case result.Outcome == OutcomeInterrupted:
		c.pauseAttempt("")

	default:
		c.finishAttempt(ctx, result)
	}
}

// finishAttempt runs the completion path: final narration flush, the
// one-shot coverage fallback, store cleanup, and the complete phase.
func (c *Controller) finishAttempt(ctx context.Context, result *StreamResult) {
	if strings.TrimSpace(result.FinalText) == "" {
		c.logger.Error("stream completed with empty narrative")
		c.failAttempt("The narrative came back empty. Please try again.", true)
		return
	}

	c.setPhase(PhasePolishing)

	if c.bridge != nil {
		c.bridge.FinishStream(ctx, result.FinalText)
		if c.bridge.FallbackNeeded() && c.narrator != nil {
			if err := c.narrator.QueueChunk(ctx, result.FinalText); err != nil {
				c.logger.Warn("fallback narration failed", "err", err)
			}
		}
	}

	c.store.Clear()

	c.mu.Lock()
	c.phase = PhaseComplete
	c.streamActive = false
	c.inFlight = false
	c.narrative = result.FinalText
	c.reasoning = result.Reasoning
	if result.Meta != nil {
		c.meta = result.Meta
	}
	done := c.attemptDone
	c.attemptDone = nil
	completed := CompletedReading{
		Reading:   c.reading,
		Question:  c.question,
		Narrative: result.FinalText,
		Reasoning: result.Reasoning,
		Provider:  result.Provider,
		RequestID: result.RequestID,
	}
	c.mu.Unlock()

	c.pushUpdate()
	if c.onComplete != nil {
		c.onComplete(completed)
	}
	if done != nil {
		close(done)
	}
}

// beginAttempt marks a stream attempt as live.
func (c *Controller) beginAttempt(phase Phase) {
	c.mu.Lock()
	c.phase = phase
	c.streamActive = true
	c.attemptDone = make(chan struct{})
	c.mu.Unlock()
	c.pushUpdate()
}

// pauseAttempt records an interruption: stream inactive, phase unchanged.
func (c *Controller) pauseAttempt(message string) {
	c.mu.Lock()
	c.streamActive = false
	c.inFlight = false
	if message != "" {
		c.message = message
	}
	done := c.attemptDone
	c.attemptDone = nil
	c.mu.Unlock()
	c.pushUpdate()
	if done != nil {
		close(done)
	}
}

// failAttempt records a fatal failure and optionally clears the persisted
// job, since a fatal job cannot be resumed.
func (c *Controller) failAttempt(message string, clearStore bool) {
	if clearStore {
		c.store.Clear()
	}
	c.mu.Lock()
	c.phase = PhaseError
	c.streamActive = false
	c.inFlight = false
	c.message = message
	done := c.attemptDone
	c.attemptDone = nil
	c.mu.Unlock()
	c.pushUpdate()
	if done != nil {
		close(done)
	}
}

func (c *Controller) setPhase(phase Phase) {
	c.mu.Lock()
	c.phase = phase
	c.mu.Unlock()
	c.pushUpdate()
}

// onStreamUpdate receives coalesced text updates from the reader.
func (c *Controller) onStreamUpdate(u TextUpdate) {
	c.mu.Lock()
	c.narrative = u.Text
	c.reasoning = u.Reasoning
	if u.Meta != nil {
		c.meta = u.Meta
	}
	if c.phase == PhaseAnalyzing && u.Text != "" {
		c.phase = PhaseDrafting
	}
	c.mu.Unlock()
	c.pushUpdate()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		Phase:        c.phase,
		StreamActive: c.streamActive,
		Narrative:    c.narrative,
		Reasoning:    c.reasoning,
		Message:      c.message,
		Meta:         c.meta,
	}
}

func (c *Controller) pushUpdate() {
	if c.onUpdate == nil {
		return
	}
	c.mu.Lock()
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.onUpdate(snap)
}

// userMessageFor maps a job-creation error to a user-facing message.
func userMessageFor(err error) string {
	var terr *TransportError
	if errors.As(err, &terr) {
		return terr.UserMessage()
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return "Some reading details are missing. Please review your draw and try again."
	}
	return genericTransportMessage
}
