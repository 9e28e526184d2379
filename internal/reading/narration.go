package reading

import (
	"context"
	"strings"
	"sync"

	"github.com/arcanaworks/arcana/internal/models"
	"github.com/charmbracelet/log"
)

// Narrator queues a chunk of text for speech playback.
//
// QueueChunk returns an error when the chunk cannot be accepted (queue full,
// backend unavailable). The bridge treats any error as terminal for the
// current stream. It never retries per-chunk.
type Narrator interface {
	QueueChunk(ctx context.Context, text string) error
}

// Chunking thresholds. A chunk is emitted once the buffer has both
// minChunkWords and minChunkChars, or has reached targetChunkChars, or the
// caller forces a flush. Boundaries snap to the last sentence or clause
// break at or before maxChunkChars.
const (
	minChunkWords    = 8
	minChunkChars    = 48
	targetChunkChars = 280
	maxChunkChars    = 360
	openingMinChars  = 16
)

// DefaultCoverageThreshold is the fraction of final text that must have been
// queued for narration to be considered complete. Below it, a one-shot
// full-text fallback narration is requested instead. Tunable, not exact.
const DefaultCoverageThreshold = 0.60

// NarrationBridge buffers streamed text and hands speakable chunks to a
// Narrator as the narrative arrives.
//
// The bridge is inert unless narration is enabled, a voice is configured,
// and the provider supports streaming playback. Eligibility is re-checked
// on every append, but once a stream is suppressed it stays suppressed
// until Reset.
type NarrationBridge struct {
	narrator  Narrator
	prefs     func() models.Preferences
	logger    *log.Logger
	threshold float64

	mu          sync.Mutex
	buf         string
	suppressed  bool
	wanted      bool // narration was eligible at least once this stream
	started     bool // at least one chunk has been queued
	queuedChars int
	fallback    bool
}

// NewNarrationBridge creates a bridge. prefs is called on every append so
// preference changes mid-stream can suppress narration.
func NewNarrationBridge(narrator Narrator, prefs func() models.Preferences, logger *log.Logger) *NarrationBridge {
	if logger == nil {
		logger = log.Default()
	}
	return &NarrationBridge{
		narrator:  narrator,
		prefs:     prefs,
		logger:    logger.With("component", "narration"),
		threshold: DefaultCoverageThreshold,
	}
}

// AppendText adds streamed text to the buffer and emits any chunks that are
// ready.
func (b *NarrationBridge) AppendText(ctx context.Context, delta string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.suppressed {
		return
	}
	p := b.prefs()
	if !p.NarrationEnabled || !p.VoiceOn() || !p.SupportsStreaming() || b.narrator == nil {
		b.suppressed = true
		return
	}
	b.wanted = true
	b.buf += delta
	b.flushReady(ctx, false)
}

// Flush emits buffered text. With force set, everything buffered is emitted
// regardless of thresholds, used at stream end so all text is spoken.
func (b *NarrationBridge) Flush(ctx context.Context, force bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.suppressed {
		return
	}
	b.flushReady(ctx, force)
}

// Reset clears all state for a new stream.
func (b *NarrationBridge) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = ""
	b.suppressed = false
	b.wanted = false
	b.started = false
	b.queuedChars = 0
	b.fallback = false
}

// FinishStream performs the final flush and the coverage check against the
// final narrative text. If narration was wanted but the queued chunks cover
// less than the threshold fraction of the final text, the fallback flag is
// set so the caller can request a single full-text narration.
func (b *NarrationBridge) FinishStream(ctx context.Context, finalText string) {
	b.Flush(ctx, true)

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.wanted || len(finalText) == 0 {
		return
	}
	coverage := float64(b.queuedChars) / float64(len(finalText))
	if coverage < b.threshold {
		b.logger.Warn("narration fell behind", "coverage", coverage)
		b.fallback = true
	}
}

// FallbackNeeded reports and consumes the fallback flag. It returns true at
// most once per stream so a full-text fallback is never requested twice.
func (b *NarrationBridge) FallbackNeeded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.fallback {
		return false
	}
	b.fallback = false
	return true
}

// flushReady emits chunks while the buffer satisfies the thresholds.
// Callers hold b.mu.
func (b *NarrationBridge) flushReady(ctx context.Context, force bool) {
	for b.buf != "" && !b.suppressed {
		cut := 0
		switch {
		case force:
			cut = chunkBoundary(b.buf, maxChunkChars)
		case len(b.buf) >= targetChunkChars:
			cut = chunkBoundary(b.buf, maxChunkChars)
		case !b.started && len(b.buf) >= openingMinChars && sentenceEnd(b.buf) > 0:
			// Opening exception: speak a short first chunk as soon as a
			// complete sentence exists so playback starts promptly.
			cut = sentenceEnd(b.buf)
		case len(b.buf) >= minChunkChars && wordCount(b.buf) >= minChunkWords:
			cut = chunkBoundary(b.buf, maxChunkChars)
		default:
			return
		}
		if cut <= 0 {
			return
		}
		b.emit(ctx, strings.TrimSpace(b.buf[:cut]))
		b.buf = b.buf[cut:]
	}
}

// emit queues one chunk. Any rejection suppresses narration for the rest of
// the stream. Callers hold b.mu.
func (b *NarrationBridge) emit(ctx context.Context, chunk string) {
	if chunk == "" {
		return
	}
	if err := b.narrator.QueueChunk(ctx, chunk); err != nil {
		b.logger.Warn("narration chunk rejected, suppressing", "err", err)
		b.suppressed = true
		return
	}
	b.started = true
	b.queuedChars += len(chunk)
}

// chunkBoundary returns the index to cut a chunk at: the last sentence
// break at or before limit, then the last clause break, then the last word
// break, then limit itself. The whole string is returned when it fits.
func chunkBoundary(s string, limit int) int {
	if len(s) <= limit {
		return len(s)
	}
	window := s[:limit]

	if i := lastBreakEnd(window, ".!?"); i > 0 {
		return i
	}
	if i := lastBreakEnd(window, ";:,\n—"); i > 0 {
		return i
	}
	if i := strings.LastIndexByte(window, ' '); i > 0 {
		return i
	}
	return limit
}

// sentenceEnd returns the index just past the first sentence terminator,
// or 0 when the buffer holds no complete sentence yet.
func sentenceEnd(s string) int {
	if i := strings.IndexAny(s, ".!?"); i >= 0 {
		return i + 1
	}
	return 0
}

// lastBreakEnd returns the index just past the last occurrence of any rune
// in chars, or 0 when none is present.
func lastBreakEnd(s, chars string) int {
	best := 0
	for _, c := range chars {
		if i := strings.LastIndex(s, string(c)); i >= 0 {
			if end := i + len(string(c)); end > best {
				best = end
			}
		}
	}
	return best
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
