package flows

import (
	"context"
	"errors"
	"time"

	"github.com/aditnw/cookieauth/session"
)

// LoginErrors carries host-level sentinel errors used by the login flow.
type LoginErrors struct {
	EngineNotReady     error
	InvalidCredentials error
	AccountDisabled    error
	LoginRateLimited   error
}

// LoginMetrics carries metric IDs incremented by the login flow.
type LoginMetrics struct {
	LoginSuccess     int
	LoginFailure     int
	LoginRateLimited int
	SessionCreated   int
}

// LoginEvents carries audit event names emitted by the login flow.
type LoginEvents struct {
	LoginSuccess     string
	LoginFailure     string
	LoginRateLimited string
}

// LoginDeps captures login flow dependencies. CheckRate, IncrementRate,
// ResetRate, and the password-upgrade trio are optional; everything else is
// required.
//
// CheckRate and IncrementRate signal an exhausted attempt budget with an
// error matching Errors.LoginRateLimited. Any other error is an
// infrastructure failure and surfaces to the caller unchanged; it is never
// reported as a rate limit.
type LoginDeps struct {
	Now                 func() time.Time
	ClientIPFromContext func(context.Context) string

	GetUser        func(ctx context.Context, username string) (UserRecord, bool, error)
	VerifyPassword func(password, encodedHash string) bool
	DummyVerify    func()

	NeedsRehash        func(encodedHash string) bool
	HashPassword       func(password string) (string, error)
	UpdatePasswordHash func(ctx context.Context, username, newHash string) error

	GenerateToken    func() (string, error)
	EncodeCredential func(username, token string) ([]byte, error)
	Sessions         session.Store

	CheckRate     func(ctx context.Context, username, ip string) error
	IncrementRate func(ctx context.Context, username, ip string) error
	ResetRate     func(ctx context.Context, username, ip string) error

	MetricInc func(int)
	EmitAudit func(ctx context.Context, event string, success bool, username string, cause error, meta func() map[string]string)
	Warn      func(format string, args ...any)

	Metrics LoginMetrics
	Events  LoginEvents
	Errors  LoginErrors
}

func (deps *LoginDeps) fillDefaults() {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.ClientIPFromContext == nil {
		deps.ClientIPFromContext = func(context.Context) string { return "" }
	}
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, string, error, func() map[string]string) {}
	}
	if deps.Warn == nil {
		deps.Warn = func(string, ...any) {}
	}
	if deps.DummyVerify == nil {
		deps.DummyVerify = func() {}
	}
}

// RunLogin verifies the password, replaces any prior session for the
// username, and returns the transportable credential. The unconditional
// session overwrite is what enforces at most one live session per user.
func RunLogin(ctx context.Context, username, password string, deps LoginDeps) ([]byte, error) {
	deps.fillDefaults()
	if deps.GetUser == nil ||
		deps.VerifyPassword == nil ||
		deps.GenerateToken == nil ||
		deps.EncodeCredential == nil ||
		deps.Sessions == nil {
		return nil, deps.Errors.EngineNotReady
	}

	ip := deps.ClientIPFromContext(ctx)

	if deps.CheckRate != nil {
		if err := deps.CheckRate(ctx, username, ip); err != nil {
			if !errors.Is(err, deps.Errors.LoginRateLimited) {
				return nil, err
			}
			deps.MetricInc(deps.Metrics.LoginRateLimited)
			deps.EmitAudit(ctx, deps.Events.LoginRateLimited, false, username, deps.Errors.LoginRateLimited, nil)
			return nil, deps.Errors.LoginRateLimited
		}
	}

	if username == "" || password == "" {
		return nil, failLogin(ctx, username, ip, "empty_input", deps)
	}

	user, found, err := deps.GetUser(ctx, username)
	if err != nil {
		return nil, err
	}
	if !found {
		// burn hash-verification time so the response does not reveal
		// whether the username exists
		deps.DummyVerify()
		return nil, failLogin(ctx, username, ip, "unknown_user", deps)
	}

	if !deps.VerifyPassword(password, user.PasswordHash) {
		return nil, failLogin(ctx, username, ip, "password_mismatch", deps)
	}

	if user.Disabled {
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, username, deps.Errors.AccountDisabled, func() map[string]string {
			return map[string]string{"reason": "account_disabled"}
		})
		return nil, deps.Errors.AccountDisabled
	}

	maybeUpgradeHash(ctx, username, password, user.PasswordHash, deps)
	password = ""

	tok, err := deps.GenerateToken()
	if err != nil {
		return nil, err
	}

	if err := deps.Sessions.Put(ctx, username, session.Record{
		Token:        tok,
		LastActivity: deps.Now(),
	}); err != nil {
		return nil, err
	}

	credential, err := deps.EncodeCredential(username, tok)
	if err != nil {
		return nil, err
	}

	if deps.ResetRate != nil {
		if err := deps.ResetRate(ctx, username, ip); err != nil {
			deps.Warn("cookieauth: login limiter reset failed: %v", err)
		}
	}

	deps.MetricInc(deps.Metrics.SessionCreated)
	deps.MetricInc(deps.Metrics.LoginSuccess)
	deps.EmitAudit(ctx, deps.Events.LoginSuccess, true, username, nil, nil)

	return credential, nil
}

func failLogin(ctx context.Context, username, ip, reason string, deps LoginDeps) error {
	if deps.IncrementRate != nil {
		if err := deps.IncrementRate(ctx, username, ip); err != nil {
			if !errors.Is(err, deps.Errors.LoginRateLimited) {
				// infra failure, not an exhausted budget; surfacing it as
				// a rate limit would mislead users and operators
				return err
			}
			deps.MetricInc(deps.Metrics.LoginRateLimited)
			deps.EmitAudit(ctx, deps.Events.LoginRateLimited, false, username, deps.Errors.LoginRateLimited, nil)
			return deps.Errors.LoginRateLimited
		}
	}

	deps.MetricInc(deps.Metrics.LoginFailure)
	deps.EmitAudit(ctx, deps.Events.LoginFailure, false, username, deps.Errors.InvalidCredentials, func() map[string]string {
		return map[string]string{"reason": reason}
	})
	return deps.Errors.InvalidCredentials
}

// maybeUpgradeHash rehashes the password after a successful verification
// against a legacy or under-parameterized hash. Best effort only; login
// never fails because an upgrade write failed.
func maybeUpgradeHash(ctx context.Context, username, password, currentHash string, deps LoginDeps) {
	if deps.NeedsRehash == nil || deps.HashPassword == nil || deps.UpdatePasswordHash == nil {
		return
	}
	if !deps.NeedsRehash(currentHash) {
		return
	}

	newHash, err := deps.HashPassword(password)
	if err != nil {
		deps.Warn("cookieauth: password hash upgrade generation failed: %v", err)
		return
	}
	if err := deps.UpdatePasswordHash(ctx, username, newHash); err != nil {
		deps.Warn("cookieauth: password hash upgrade update failed: %v", err)
	}
}
