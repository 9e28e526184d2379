package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/arcanaworks/arcana/internal/services"
	"github.com/arcanaworks/arcana/internal/shared"
)

func TestTTSClientQueueChunk(t *testing.T) {
	ctx := context.Background()

	t.Run("QueuesChunk", func(t *testing.T) {
		var mu sync.Mutex
		var got struct {
			Voice string `json:"voice"`
			Text  string `json:"text"`
		}
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/speech/queue" {
				t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			}
			mu.Lock()
			defer mu.Unlock()
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Errorf("decode body: %v", err)
			}
			w.WriteHeader(http.StatusAccepted)
		}))
		t.Cleanup(srv.Close)

		client := services.NewTTSClient(srv.URL, "selene", srv.Client())
		if err := client.QueueChunk(ctx, "The Fool steps out."); err != nil {
			t.Fatalf("QueueChunk: %v", err)
		}

		mu.Lock()
		defer mu.Unlock()
		if got.Voice != "selene" || got.Text != "The Fool steps out." {
			t.Errorf("request = %+v", got)
		}
	})

	t.Run("SaturatedQueue", func(t *testing.T) {
		for _, status := range []int{http.StatusTooManyRequests, http.StatusServiceUnavailable} {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(status)
			}))
			client := services.NewTTSClient(srv.URL, "selene", srv.Client())
			err := client.QueueChunk(ctx, "chunk")
			srv.Close()
			if !errors.Is(err, shared.ErrNarrationQueueFull) {
				t.Errorf("status %d: err = %v, want ErrNarrationQueueFull", status, err)
			}
		}
	})

	t.Run("BackendError", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		t.Cleanup(srv.Close)

		client := services.NewTTSClient(srv.URL, "selene", srv.Client())
		if err := client.QueueChunk(ctx, "chunk"); !errors.Is(err, shared.ErrNarrationUnavailable) {
			t.Errorf("err = %v, want ErrNarrationUnavailable", err)
		}
	})

	t.Run("ConnectionFailure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		srv.Close()

		client := services.NewTTSClient(srv.URL, "selene", nil)
		if err := client.QueueChunk(ctx, "chunk"); !errors.Is(err, shared.ErrNarrationUnavailable) {
			t.Errorf("err = %v, want ErrNarrationUnavailable", err)
		}
	})

	t.Run("CancelledContext", func(t *testing.T) {
		client := services.NewTTSClient("http://localhost:1", "selene", nil)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		if err := client.QueueChunk(cancelled, "chunk"); !errors.Is(err, shared.ErrNarrationUnavailable) {
			t.Errorf("err = %v, want ErrNarrationUnavailable", err)
		}
	})
}
