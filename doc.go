// Package session converges a multi-portal front end to a correct
// authenticated/unauthenticated state on top of a hosted auth service, and
// exposes the authorization decision the routing layer gates navigation with.
//
// Lifecycle:
//   - Controller owns the state machine: bootstrap via a one-shot
//     current-session query, a strictly ordered session-change event queue,
//     a safety timeout so the UI never hangs in the bootstrapping state, and
//     idempotent teardown. It is the only writer of the Store's Snapshot.
//   - ResolveIdentity reconciles the raw session's signup-time claims with
//     the asynchronously fetched profile record. Profile fetches never block
//     the UI; a response is merged against whatever Identity is current at
//     merge time, and discarded after a sign-out.
//
// Authorization:
//   - Authorize is a pure, total function from (Snapshot, RoleSet) to a
//     Decision: proceed, redirect to login (carrying the requested location)
//     or redirect home for valid-but-misrouted subjects. RouteGuard adapts
//     it to go-router middleware.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter describing lifecycle
//     events (session started/ended, bootstrap timeout, profile merges).
//     Sinks run best-effort (errors are logged) so you can forward to a
//     database or queue without blocking the event loop.
package session
