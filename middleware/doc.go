// Package middleware exposes HTTP middleware built on top of
// cookieauth.Engine authorization.
//
// # Guards
//
//   - [Guard] — cookie extraction, scope authorization, identity injection.
//
// The guard reads the session cookie through a [cookie.Adapter], calls
// Engine.Authorize, and injects the result into the request context for
// downstream handlers.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself — all decisions are delegated to
// Engine.Authorize.
//
// # What this package must NOT do
//
//   - Decode or parse credentials (delegates to Engine).
//   - Touch the session store (Engine handles I/O).
//   - Make authorization decisions beyond mapping Engine sentinels to
//     status codes.
package middleware
