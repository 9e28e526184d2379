package server_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/arcanaworks/arcana/internal/server"
	"github.com/arcanaworks/arcana/internal/shared"
)

func TestBasicRouter(t *testing.T) {
	t.Run("HandleEnforcesMethod", func(t *testing.T) {
		router := server.NewBasicRouter()
		router.Handle(http.MethodPost, "/jobs", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusCreated)
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs", nil))
		if rec.Code != http.StatusCreated {
			t.Errorf("POST status = %d, want 201", rec.Code)
		}

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("GET status = %d, want 405", rec.Code)
		}
	})

	t.Run("MiddlewareOrder", func(t *testing.T) {
		var calls []string
		mw := func(name string) server.Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					calls = append(calls, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := server.NewBasicRouter()
		router.Use(mw("outer"), mw("inner"))
		router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls = append(calls, "handler")
		}))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))
		if got := strings.Join(calls, ","); got != "outer,inner,handler" {
			t.Errorf("call order = %s", got)
		}
	})

	t.Run("UnknownRoute", func(t *testing.T) {
		router := server.NewBasicRouter()
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestLoggingMiddleware(t *testing.T) {
	var buf strings.Builder
	logger := shared.NewLogger(&buf)

	handler := server.LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/jobs", nil))

	logged := buf.String()
	if !strings.Contains(logged, "/jobs") || !strings.Contains(logged, "418") {
		t.Errorf("log output = %q", logged)
	}
}
