// Package reading implements the narrative generation job lifecycle.
//
// A reading's narrative is produced by a server-side generation job and
// streamed back as server-sent events. This package owns everything between
// "the user asked for a narrative" and "the final text is on screen":
//
//   - [JobStore] : durable record of the single in-flight job (id, token,
//     cursor, reading fingerprint) so a job survives process restarts
//   - [StreamReader] : opens and parses the event stream, accumulates text,
//     tracks the resumable cursor, and guards against superseded attempts
//   - [NarrationBridge] : slices incoming text into speakable chunks for a
//     text-to-speech backend
//   - [Controller] : the state machine tying the above together: start,
//     resume, pause, and cancel, with at most one live stream at a time
//   - [BuildRequest] : assembles and validates the outbound generation
//     payload before it ever reaches the network
//
// Collaborators (HTTP clients, storage, narration backends, environment
// signals) are injected as interfaces; the package has no network or
// platform dependencies of its own beyond what callers hand it.
package reading
