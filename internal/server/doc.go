// Package server provides HTTP routing, middleware, and a stub implementation
// of the reading server's jobs API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Stub Jobs Server
//
// [JobsHandler] implements the jobs API contract the client speaks:
//
//	POST /jobs                  → create a job, returns jobId and jobToken
//	GET  /jobs/{id}/stream      → SSE event stream, replayable from ?cursor=
//	POST /jobs/{id}/cancel      → stop the job; later streams return 410
//
// Narratives are composed deterministically from the card meanings in the
// request. The handler backs the serve command for local development and
// lets tests exercise clients against real HTTP and SSE framing.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
