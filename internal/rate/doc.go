// Package rate provides Redis-backed fixed-window counters used to throttle
// repeated failed logins.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key
// prefixes:
//   - cal:  — login per-username
//   - cali: — login per-IP
//
// # What this package must NOT do
//
//   - Decide which operations are throttled (the Engine does).
//   - Be imported outside the cookieauth module.
package rate
