package cookieauth

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/aditnw/cookieauth/internal/flows"
	"github.com/aditnw/cookieauth/internal/rate"
	"github.com/aditnw/cookieauth/password"
	"github.com/aditnw/cookieauth/session"
	"github.com/aditnw/cookieauth/token"
)

// Engine is the façade over the authentication flows. Construct it through
// [Builder.Build]; a zero Engine returns ErrEngineNotReady from every
// operation. All methods are safe for concurrent use.
type Engine struct {
	config       Config
	codec        *token.Codec
	hasher       *password.Hasher
	sessionStore session.Store
	rateLimiter  *rate.Limiter
	userProvider UserProvider
	audit        *auditDispatcher
	metrics      *Metrics
	now          func() time.Time
}

// Close flushes and stops the audit dispatcher. Safe to call more than
// once, and safe on a nil Engine.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// Config returns a copy of the engine's effective configuration.
func (e *Engine) Config() Config {
	if e == nil {
		return Config{}
	}
	return cloneConfig(e.config)
}

// Metrics exposes the engine's counters, primarily for exporters.
func (e *Engine) Metrics() *Metrics {
	if e == nil {
		return nil
	}
	return e.metrics
}

// MetricsSnapshot returns a point-in-time copy of all counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// AuditDropped reports how many audit events were discarded because the
// buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// HashPassword hashes a plaintext password with the engine's argon2id
// parameters. Intended for registration and password-change handlers, which
// live outside this package.
func (e *Engine) HashPassword(pw string) (string, error) {
	if e == nil || e.hasher == nil {
		return "", ErrEngineNotReady
	}
	return e.hasher.Hash(pw)
}

/*
====================================
OPERATIONS
====================================
*/

// Login verifies username/password and establishes a session, replacing any
// previous session for the same username. On success the returned
// credential is the value to set as the session cookie.
//
// Failures: ErrInvalidCredentials (unknown user or wrong password, folded
// together), ErrAccountDisabled, ErrLoginRateLimited, or a wrapped store
// or limiter error (matching ErrRedisUnavailable for transport outages,
// never ErrLoginRateLimited).
func (e *Engine) Login(ctx context.Context, username, pw string) (LoginResult, error) {
	if e == nil || e.codec == nil {
		return LoginResult{}, ErrEngineNotReady
	}

	upgraded := false
	deps := flows.LoginDeps{
		Now:                 e.now,
		ClientIPFromContext: clientIPFromContext,
		GetUser:             e.getUser,
		VerifyPassword:      e.hasher.Verify,
		DummyVerify:         e.hasher.DummyVerify,
		GenerateToken:       token.Generate,
		EncodeCredential:    e.codec.Encode,
		Sessions:            e.sessionStore,
		MetricInc:           e.metricInc,
		EmitAudit:           e.emitAudit,
		Warn:                log.Printf,
		Metrics: flows.LoginMetrics{
			LoginSuccess:     int(MetricLoginSuccess),
			LoginFailure:     int(MetricLoginFailure),
			LoginRateLimited: int(MetricLoginRateLimited),
			SessionCreated:   int(MetricSessionCreated),
		},
		Events: flows.LoginEvents{
			LoginSuccess:     EventLogin,
			LoginFailure:     EventLogin,
			LoginRateLimited: EventRateLimited,
		},
		Errors: flows.LoginErrors{
			EngineNotReady:     ErrEngineNotReady,
			InvalidCredentials: ErrInvalidCredentials,
			AccountDisabled:    ErrAccountDisabled,
			LoginRateLimited:   ErrLoginRateLimited,
		},
	}

	if e.config.Password.UpgradeOnLogin {
		deps.NeedsRehash = e.hasher.NeedsRehash
		deps.HashPassword = e.hasher.Hash
		deps.UpdatePasswordHash = func(ctx context.Context, username, newHash string) error {
			if err := e.userProvider.UpdatePasswordHash(ctx, username, newHash); err != nil {
				return err
			}
			upgraded = true
			e.metricInc(int(MetricHashUpgraded))
			e.emitAudit(ctx, EventHashUpgrade, true, username, nil, nil)
			return nil
		}
	}

	if e.rateLimiter != nil {
		deps.CheckRate = loginRateFunc(e.rateLimiter.Check)
		deps.IncrementRate = loginRateFunc(e.rateLimiter.Increment)
		deps.ResetRate = e.rateLimiter.Reset
	}

	credential, err := flows.RunLogin(ctx, username, pw, deps)
	if err != nil {
		return LoginResult{}, err
	}

	return LoginResult{
		Credential:   string(credential),
		Username:     username,
		HashUpgraded: upgraded,
	}, nil
}

// Authenticate validates the credential against the session store under the
// sliding idle timeout, touching the session on success.
//
// Failures: ErrNotLoggedIn, ErrTokenInvalid, ErrSessionTimedOut, or a
// wrapped store error.
func (e *Engine) Authenticate(ctx context.Context, credential []byte) (AuthResult, error) {
	if e == nil || e.codec == nil {
		return AuthResult{}, ErrEngineNotReady
	}

	start := e.now()
	user, err := flows.RunAuthenticate(ctx, credential, e.authDeps())
	e.observeAuthLatency(start)
	if err != nil {
		return AuthResult{}, err
	}
	return e.toResult(user), nil
}

// Authorize is Authenticate plus a scope membership check. A scope denial
// leaves the session logged in and already touched.
func (e *Engine) Authorize(ctx context.Context, credential []byte, requiredScope string) (AuthResult, error) {
	if e == nil || e.codec == nil {
		return AuthResult{}, ErrEngineNotReady
	}

	start := e.now()
	user, err := flows.RunAuthorize(ctx, credential, requiredScope, e.authDeps())
	e.observeAuthLatency(start)
	if err != nil {
		return AuthResult{}, err
	}
	return e.toResult(user), nil
}

// Logout removes the session named by the credential. Idempotent: logging
// out an already-absent session succeeds.
func (e *Engine) Logout(ctx context.Context, credential []byte) error {
	if e == nil || e.codec == nil {
		return ErrEngineNotReady
	}

	return flows.RunLogout(ctx, credential, flows.LogoutDeps{
		DecodeCredential: e.codec.Decode,
		Sessions:         e.sessionStore,
		MetricInc:        e.metricInc,
		LogoutMetric:     int(MetricLogout),
		EmitAudit:        e.emitAudit,
		Events:           flows.LogoutEvents{Logout: EventLogout},
		Errors: flows.LogoutErrors{
			EngineNotReady: ErrEngineNotReady,
			NotLoggedIn:    ErrNotLoggedIn,
			TokenInvalid:   ErrTokenInvalid,
		},
	})
}

/*
====================================
WIRING
====================================
*/

func (e *Engine) authDeps() flows.AuthDeps {
	return flows.AuthDeps{
		IdleTimeout:      e.config.Session.IdleTimeout,
		Now:              e.now,
		DecodeCredential: e.codec.Decode,
		GetUser:          e.getUser,
		Sessions:         e.sessionStore,
		MetricInc:        e.metricInc,
		EmitAudit:        e.emitAudit,
		Metrics: flows.AuthMetrics{
			AuthSuccess:    int(MetricAuthSuccess),
			AuthFailure:    int(MetricAuthFailure),
			SessionExpired: int(MetricSessionExpired),
		},
		Events: flows.AuthEvents{
			AuthFailure:    EventAuthenticate,
			SessionExpired: EventAuthenticate,
			ScopeDenied:    EventAuthorize,
		},
		Errors: flows.AuthErrors{
			EngineNotReady:      ErrEngineNotReady,
			NotLoggedIn:         ErrNotLoggedIn,
			TokenInvalid:        ErrTokenInvalid,
			SessionTimedOut:     ErrSessionTimedOut,
			AccessNotAuthorized: ErrAccessNotAuthorized,
		},
	}
}

// loginRateFunc adapts a limiter call to the engine's sentinels: an
// exhausted attempt budget becomes ErrLoginRateLimited, while Redis
// transport failures keep their ErrRedisUnavailable identity.
func loginRateFunc(call func(ctx context.Context, username, ip string) error) func(ctx context.Context, username, ip string) error {
	return func(ctx context.Context, username, ip string) error {
		err := call(ctx, username, ip)
		if errors.Is(err, rate.ErrRateLimited) {
			return ErrLoginRateLimited
		}
		return err
	}
}

func (e *Engine) getUser(ctx context.Context, username string) (flows.UserRecord, bool, error) {
	user, found, err := e.userProvider.GetUser(ctx, username)
	if err != nil || !found {
		return flows.UserRecord{}, found, err
	}
	return flows.UserRecord{
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		Scopes:       user.Scopes,
		Disabled:     user.Disabled,
	}, true, nil
}

func (e *Engine) toResult(user flows.UserRecord) AuthResult {
	return AuthResult{
		Username: user.Username,
		User: UserRecord{
			Username:     user.Username,
			PasswordHash: user.PasswordHash,
			Scopes:       user.Scopes,
			Disabled:     user.Disabled,
		},
	}
}

func (e *Engine) metricInc(id int) {
	if e.metrics == nil {
		return
	}
	e.metrics.Inc(MetricID(id))
}

func (e *Engine) observeAuthLatency(start time.Time) {
	if e.metrics == nil || !e.metrics.LatencyEnabled() {
		return
	}
	e.metrics.Observe(MetricAuthenticateLatency, e.now().Sub(start))
}

// emitAudit builds and queues one event. meta is a closure so the metadata
// map is only allocated when auditing is on.
func (e *Engine) emitAudit(ctx context.Context, eventType string, success bool, username string, cause error, meta func() map[string]string) {
	if e.audit == nil {
		return
	}

	event := newAuditEvent(eventType)
	event.Username = username
	event.IP = clientIPFromContext(ctx)
	event.Success = success
	if cause != nil {
		event.Error = cause.Error()
	}
	if meta != nil {
		event.Metadata = meta()
	}

	e.audit.Emit(ctx, event)
}
