// Package flows holds the orchestration bodies for login, logout, and the
// per-request authentication pipeline. Each flow is a pure function over a
// dependency struct of injected closures, so the Engine stays a thin wiring
// layer and every decision point is testable with fakes, including the
// clock.
package flows
