// Narration (text-to-speech) backend client
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/arcanaworks/arcana/internal/shared"
	"golang.org/x/time/rate"
)

// TTSClient queues narration chunks with the speech backend. It implements
// reading.Narrator.
//
// Posts are rate-limited client-side: the generation stream can produce
// chunks far faster than speech plays back, and the backend's queue is
// bounded.
type TTSClient struct {
	baseURL    string
	voice      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewTTSClient creates a narration client for the given backend and voice.
func NewTTSClient(baseURL, voice string, client *http.Client) *TTSClient {
	if baseURL == "" {
		baseURL = "http://localhost:8090"
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &TTSClient{
		baseURL:    baseURL,
		voice:      voice,
		httpClient: client,
		limiter:    rate.NewLimiter(rate.Limit(2), 4),
	}
}

// speechRequest is the body of POST /speech/queue.
type speechRequest struct {
	Voice string `json:"voice"`
	Text  string `json:"text"`
}

// QueueChunk submits one chunk for playback. A saturated or unavailable
// queue returns shared.ErrNarrationQueueFull / shared.ErrNarrationUnavailable
// so the bridge can suppress itself instead of retrying.
func (c *TTSClient) QueueChunk(ctx context.Context, text string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrNarrationUnavailable, err)
	}

	body, err := json.Marshal(speechRequest{Voice: c.voice, Text: text})
	if err != nil {
		return fmt.Errorf("failed to marshal speech request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/speech/queue", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrNarrationUnavailable, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
		return fmt.Errorf("%w: status %d", shared.ErrNarrationQueueFull, resp.StatusCode)
	default:
		return fmt.Errorf("%w: status %d", shared.ErrNarrationUnavailable, resp.StatusCode)
	}
}
