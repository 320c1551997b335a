package flows

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/aditnw/cookieauth/scope"
	"github.com/aditnw/cookieauth/session"
)

// UserRecord is the flow-local user model. The Engine converts from its
// public record type so flows never import the root package.
type UserRecord struct {
	Username     string
	PasswordHash string
	Scopes       scope.Set
	Disabled     bool
}

// AuthErrors carries host-level sentinel errors used by the authentication
// pipeline.
type AuthErrors struct {
	EngineNotReady      error
	NotLoggedIn         error
	TokenInvalid        error
	SessionTimedOut     error
	AccessNotAuthorized error
}

// AuthMetrics carries metric IDs incremented by the pipeline.
type AuthMetrics struct {
	AuthSuccess    int
	AuthFailure    int
	SessionExpired int
}

// AuthEvents carries audit event names emitted by the pipeline.
type AuthEvents struct {
	AuthFailure    string
	SessionExpired string
	ScopeDenied    string
}

// AuthDeps captures the authentication pipeline dependencies.
type AuthDeps struct {
	IdleTimeout time.Duration

	Now              func() time.Time
	DecodeCredential func(credential []byte) (username, token string, err error)
	GetUser          func(ctx context.Context, username string) (UserRecord, bool, error)
	Sessions         session.Store

	MetricInc func(int)
	EmitAudit func(ctx context.Context, event string, success bool, username string, cause error, meta func() map[string]string)

	Metrics AuthMetrics
	Events  AuthEvents
	Errors  AuthErrors
}

func (deps *AuthDeps) fillDefaults() {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, string, error, func() map[string]string) {}
	}
}

// RunAuthenticate validates one authentication attempt. The steps run in a
// fixed order and every failure is terminal:
//
//  1. missing credential            -> NotLoggedIn
//  2. credential does not decode    -> TokenInvalid
//  3. unknown username              -> NotLoggedIn
//  4. no session record             -> NotLoggedIn
//  5. token differs from session    -> SessionTimedOut (session kept)
//  6. idle window exceeded          -> SessionTimedOut (session removed)
//  7. otherwise touch LastActivity and return the user
//
// Step 5 folds a superseded login into the timeout signal on purpose: the
// caller's remedy is identical, and a distinct "stale token" answer would
// tell an attacker the stolen credential was once real.
func RunAuthenticate(ctx context.Context, credential []byte, deps AuthDeps) (UserRecord, error) {
	deps.fillDefaults()
	if deps.DecodeCredential == nil || deps.GetUser == nil || deps.Sessions == nil || deps.IdleTimeout <= 0 {
		return UserRecord{}, deps.Errors.EngineNotReady
	}

	if len(credential) == 0 {
		return UserRecord{}, deps.Errors.NotLoggedIn
	}

	username, tok, err := deps.DecodeCredential(credential)
	if err != nil {
		deps.MetricInc(deps.Metrics.AuthFailure)
		deps.EmitAudit(ctx, deps.Events.AuthFailure, false, "", deps.Errors.TokenInvalid, func() map[string]string {
			return map[string]string{"reason": "credential_decode"}
		})
		return UserRecord{}, deps.Errors.TokenInvalid
	}

	user, found, err := deps.GetUser(ctx, username)
	if err != nil {
		return UserRecord{}, err
	}
	if !found {
		deps.MetricInc(deps.Metrics.AuthFailure)
		deps.EmitAudit(ctx, deps.Events.AuthFailure, false, username, deps.Errors.NotLoggedIn, func() map[string]string {
			return map[string]string{"reason": "unknown_user"}
		})
		return UserRecord{}, deps.Errors.NotLoggedIn
	}

	rec, found, err := deps.Sessions.Get(ctx, username)
	if err != nil {
		return UserRecord{}, err
	}
	if !found {
		deps.MetricInc(deps.Metrics.AuthFailure)
		deps.EmitAudit(ctx, deps.Events.AuthFailure, false, username, deps.Errors.NotLoggedIn, func() map[string]string {
			return map[string]string{"reason": "no_session"}
		})
		return UserRecord{}, deps.Errors.NotLoggedIn
	}

	if subtle.ConstantTimeCompare([]byte(tok), []byte(rec.Token)) != 1 {
		// superseded login; the live session stays
		deps.MetricInc(deps.Metrics.SessionExpired)
		deps.EmitAudit(ctx, deps.Events.SessionExpired, false, username, deps.Errors.SessionTimedOut, func() map[string]string {
			return map[string]string{"reason": "token_superseded"}
		})
		return UserRecord{}, deps.Errors.SessionTimedOut
	}

	now := deps.Now()
	if now.Sub(rec.LastActivity) >= deps.IdleTimeout {
		if err := deps.Sessions.Remove(ctx, username); err != nil {
			return UserRecord{}, err
		}
		deps.MetricInc(deps.Metrics.SessionExpired)
		deps.EmitAudit(ctx, deps.Events.SessionExpired, false, username, deps.Errors.SessionTimedOut, func() map[string]string {
			return map[string]string{"reason": "idle_timeout"}
		})
		return UserRecord{}, deps.Errors.SessionTimedOut
	}

	// sliding window: every authenticated request extends the session
	if err := deps.Sessions.Touch(ctx, username, now); err != nil {
		return UserRecord{}, err
	}

	deps.MetricInc(deps.Metrics.AuthSuccess)
	return user, nil
}

// RunAuthorize wraps RunAuthenticate with a required-scope membership
// check. Scope denial is distinct from every authentication failure: the
// user stays logged in and the session was already touched.
func RunAuthorize(ctx context.Context, credential []byte, requiredScope string, deps AuthDeps) (UserRecord, error) {
	user, err := RunAuthenticate(ctx, credential, deps)
	if err != nil {
		return UserRecord{}, err
	}

	if !user.Scopes.Has(requiredScope) {
		deps.fillDefaults()
		deps.MetricInc(deps.Metrics.AuthFailure)
		deps.EmitAudit(ctx, deps.Events.ScopeDenied, false, user.Username, deps.Errors.AccessNotAuthorized, func() map[string]string {
			return map[string]string{"required_scope": requiredScope}
		})
		return UserRecord{}, deps.Errors.AccessNotAuthorized
	}

	return user, nil
}
