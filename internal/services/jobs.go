// Jobs API client for the narrative reading server
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/arcanaworks/arcana/internal/reading"
	"golang.org/x/oauth2"
)

// JobsClient is the HTTP client for the reading server's jobs API.
// It implements reading.JobService.
type JobsClient struct {
	baseURL    string
	httpClient *http.Client
	tokens     oauth2.TokenSource
}

// NewJobsClient creates a jobs client. tokens supplies the user session
// bearer token for job creation; stream and cancel calls rely on the
// per-job token instead and work without it.
func NewJobsClient(baseURL string, client *http.Client, tokens oauth2.TokenSource) *JobsClient {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &JobsClient{
		baseURL:    baseURL,
		httpClient: client,
		tokens:     tokens,
	}
}

// jobCreated is the response shape of POST /jobs.
type jobCreated struct {
	JobID    string `json:"jobId"`
	JobToken string `json:"jobToken"`
}

// CreateJob submits the reading payload and returns the new job identity.
func (c *JobsClient) CreateJob(ctx context.Context, req *reading.ReadingRequest) (string, string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal reading request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/jobs", bytes.NewReader(body))
	if err != nil {
		return "", "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.tokens != nil {
		token, err := c.tokens.Token()
		if err != nil {
			return "", "", fmt.Errorf("failed to get session token: %w", err)
		}
		token.SetAuthHeader(httpReq)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", "", &reading.TransportError{Status: 0, ServerMessage: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", "", &reading.TransportError{
			Status:        resp.StatusCode,
			ServerMessage: errorMessageFrom(respBody),
		}
	}

	var created jobCreated
	if err := json.Unmarshal(respBody, &created); err != nil {
		return "", "", fmt.Errorf("malformed job creation response: %w", err)
	}
	if created.JobID == "" || created.JobToken == "" {
		return "", "", fmt.Errorf("job creation response missing job identity")
	}
	return created.JobID, created.JobToken, nil
}

// OpenStream opens the event stream for a job from the given cursor. The
// caller owns Body and is responsible for validating status and content
// type; this method only fails on connection-level errors.
func (c *JobsClient) OpenStream(ctx context.Context, jobID, jobToken string, cursor int64) (*reading.StreamResponse, error) {
	url := c.baseURL + "/jobs/" + jobID + "/stream?cursor=" + strconv.FormatInt(cursor, 10)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("X-Job-Token", jobToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stream connection failed: %w", err)
	}

	return &reading.StreamResponse{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        resp.Body,
	}, nil
}

// CancelJob tells the server to stop a job. The response body is ignored;
// only connection or status failures are reported, and callers treat even
// those as advisory.
func (c *JobsClient) CancelJob(ctx context.Context, jobID, jobToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/jobs/"+jobID+"/cancel", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Job-Token", jobToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("cancel request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("cancel returned status %d", resp.StatusCode)
	}
	return nil
}

// errorMessageFrom extracts {"error": "..."} from an error body, falling
// back to the raw text.
func errorMessageFrom(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return string(bytes.TrimSpace(body))
}
