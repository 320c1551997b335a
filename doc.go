// Package cookieauth provides cookie-session authentication with encrypted
// credentials: login issues a random session token bound to the username
// inside an AEAD-sealed cookie value, and every authenticated request
// revalidates that credential against the server-side session record under a
// sliding idle timeout.
//
// The package is designed for concurrent server workloads: Engine methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// cookieauth is the public surface. It exposes [Engine], [Builder],
// [Config], the sentinel errors, and value types (UserRecord, AuthResult,
// MetricsSnapshot). Flow orchestration and rate limiting live under
// internal/ and are never exported. The user store is a collaborator behind
// [UserProvider]; this package never persists user records.
//
// # What this package must NOT do
//
//   - Render responses. Every failure is a typed sentinel the caller maps
//     to its own presentation.
//   - Proactively expire sessions. Idle timeout is checked lazily at
//     authentication time; no background sweeper is started.
//   - Expose key material, the session store, or encoding details in its
//     public API.
package cookieauth
