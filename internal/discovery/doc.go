// Package discovery manages the session to the content-discovery
// backend and exposes the search and crawl request surface.
//
// # Overview
//
// The Manager owns the only mutable connection state in the core: a
// connection state machine (disconnected, connecting, connected,
// reconnecting, error), a cached health probe, and the rate-limit
// window reported by the backend. Connect, disconnect, and reconnect
// transitions are serialized; searches and crawls proceed concurrently
// once connected, bounded by the Client's concurrency gate.
//
// # Request discipline
//
// Every outbound request goes through the same sequence: ensure the
// session is connected (reconnecting with exponential backoff if not),
// wait cooperatively for the server-reported rate-limit window to
// clear, then pace through the client-side limiter. Transport-level
// failures retry up to MaxRetries with the same backoff formula. An
// explicit rate-limit response is never retried inline: it surfaces as
// a distinct RateLimitError so the caller decides whether and when to
// resubmit. Non-success responses and malformed payloads fail fast with
// the server-provided detail attached.
package discovery
