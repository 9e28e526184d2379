// Package services implements HTTP clients for the application's remote
// collaborators: the reading server's jobs API and the narration
// (text-to-speech) backend.
//
// # Jobs API
//
// [JobsClient] talks to the reading server:
//   - POST /jobs creates a generation job; authenticated with the user's
//     session bearer token via an [oauth2.TokenSource]
//   - GET /jobs/{id}/stream opens the server-sent-event stream; authorized
//     by the per-job token alone (X-Job-Token header) so a resumed session
//     needs no user re-authentication
//   - POST /jobs/{id}/cancel is best-effort; the response body is ignored
//
// JobsClient satisfies the reading package's JobService interface. It never
// interprets stream frames; parsing and cursor tracking belong to
// reading.StreamReader.
//
// # Narration
//
// [TTSClient] implements reading.Narrator over the narration backend's
// chunk queue, rate-limited client-side so a fast generation stream cannot
// flood the speech queue.
//
// # Error Handling
//
// Non-2xx responses become reading.TransportError values carrying the HTTP
// status and any short server-supplied message; queue saturation from the
// narration backend maps to [shared.ErrNarrationQueueFull].
package services
