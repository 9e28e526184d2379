package reading

import (
	"fmt"
	"net/http"
	"strings"
)

// ValidationError describes why a reading request could not be built.
// It is returned as a value, not raised, so the caller can surface a
// specific message without a network round-trip.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid reading request: %s: %s", e.Field, e.Reason)
}

// TransportError describes a failed job-creation or stream-open exchange.
type TransportError struct {
	Status        int    // HTTP status, 0 for connection-level failures
	ServerMessage string // body-supplied message, may be empty
}

func (e *TransportError) Error() string {
	if e.ServerMessage != "" {
		return fmt.Sprintf("transport error (status %d): %s", e.Status, e.ServerMessage)
	}
	return fmt.Sprintf("transport error (status %d)", e.Status)
}

// maxServerMessageLen bounds how long a server-supplied message may be
// before the generic per-status fallback is preferred instead.
const maxServerMessageLen = 240

// statusFallbacks maps known HTTP statuses to user-facing messages.
var statusFallbacks = map[int]string{
	http.StatusUnauthorized:    "Please sign in to generate a narrative.",
	http.StatusForbidden:       "This reading couldn't be resumed.",
	http.StatusNotFound:        "This reading couldn't be resumed.",
	http.StatusConflict:        "Something changed on the server. Please refresh and try again.",
	http.StatusGone:            "This request expired. Please generate a new narrative.",
	http.StatusTooManyRequests: "You're going a little fast. Please wait a moment and try again.",
}

const genericTransportMessage = "Something went wrong generating your narrative. Please try again."

// UserMessage returns the message to surface for this error, preferring a
// short server-supplied message over the per-status fallback.
func (e *TransportError) UserMessage() string {
	msg := strings.TrimSpace(e.ServerMessage)
	if msg != "" && len(msg) <= maxServerMessageLen {
		return msg
	}
	if fallback, ok := statusFallbacks[e.Status]; ok {
		return fallback
	}
	return genericTransportMessage
}

// Resumable reports whether a later resume attempt could still succeed.
// Expired, missing, or forbidden jobs are gone for good.
func (e *TransportError) Resumable() bool {
	switch e.Status {
	case http.StatusForbidden, http.StatusNotFound, http.StatusGone:
		return false
	}
	return true
}

// FatalError is a terminal generation failure: the job cannot continue and
// must not be resumed.
type FatalError struct {
	Message string // user-facing
	Cause   error
}

func (e *FatalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("generation failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("generation failed: %s", e.Message)
}

func (e *FatalError) Unwrap() error { return e.Cause }
