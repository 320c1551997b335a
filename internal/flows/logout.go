package flows

import (
	"context"

	"github.com/aditnw/cookieauth/session"
)

// LogoutErrors carries host-level sentinel errors used by the logout flow.
type LogoutErrors struct {
	EngineNotReady error
	NotLoggedIn    error
	TokenInvalid   error
}

// LogoutEvents carries audit event names emitted by the logout flow.
type LogoutEvents struct {
	Logout string
}

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	DecodeCredential func(credential []byte) (username, token string, err error)
	Sessions         session.Store

	MetricInc    func(int)
	LogoutMetric int
	EmitAudit    func(ctx context.Context, event string, success bool, username string, cause error, meta func() map[string]string)
	Events       LogoutEvents
	Errors       LogoutErrors
}

// RunLogout removes the session named by the credential. Logging out twice
// is not an error; only an undecodable credential is.
func RunLogout(ctx context.Context, credential []byte, deps LogoutDeps) error {
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, string, error, func() map[string]string) {}
	}
	if deps.DecodeCredential == nil || deps.Sessions == nil {
		return deps.Errors.EngineNotReady
	}

	if len(credential) == 0 {
		return deps.Errors.NotLoggedIn
	}

	username, _, err := deps.DecodeCredential(credential)
	if err != nil {
		return deps.Errors.TokenInvalid
	}

	if err := deps.Sessions.Remove(ctx, username); err != nil {
		return err
	}

	deps.MetricInc(deps.LogoutMetric)
	deps.EmitAudit(ctx, deps.Events.Logout, true, username, nil, nil)
	return nil
}
