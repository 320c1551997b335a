package cookieauth

import (
	"errors"
	"time"

	"github.com/aditnw/cookieauth/internal/rate"
	"github.com/aditnw/cookieauth/password"
	"github.com/aditnw/cookieauth/session"
	"github.com/aditnw/cookieauth/token"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an Engine. A Builder is single-use: Build can be called
// once. Not safe for concurrent use; configure on one goroutine, then share
// the Engine.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	userProvider UserProvider
	sessionStore session.Store
	auditSink    AuditSink
	clock        func() time.Time

	built bool
}

// New returns a Builder preloaded with DefaultConfig. Key material and a
// UserProvider must still be supplied before Build.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the builder's config wholesale. Call it before the
// field-level With helpers or they are overwritten.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithKeys sets the credential encryption keys directly, bypassing any
// configured key file. keys[0] becomes the active sealing key.
func (b *Builder) WithKeys(keys ...[]byte) *Builder {
	b.config.Token.Keys = keys
	b.config.Token.KeyFile = ""
	return b
}

// WithKeyFile points the engine at a base64 key file, first line active.
func (b *Builder) WithKeyFile(path string) *Builder {
	b.config.Token.KeyFile = path
	return b
}

// WithRedis wires a Redis client. It backs the session store (unless one is
// injected with WithSessionStore) and the login rate limiter.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserProvider wires the application's user store. Required.
func (b *Builder) WithUserProvider(up UserProvider) *Builder {
	b.userProvider = up
	return b
}

// WithSessionStore overrides the default store selection. Useful for
// custom backends; most callers rely on WithRedis or the in-memory default.
func (b *Builder) WithSessionStore(store session.Store) *Builder {
	b.sessionStore = store
	return b
}

// WithAuditSink wires the audit destination. Ignored unless Audit.Enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithClock overrides the engine's time source. Intended for tests driving
// the idle timeout deterministically.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// WithIdleTimeout overrides Session.IdleTimeout.
func (b *Builder) WithIdleTimeout(d time.Duration) *Builder {
	b.config.Session.IdleTimeout = d
	return b
}

// Build validates the configuration, assembles all collaborators, and
// returns a ready Engine. The Engine owns a background audit goroutine when
// auditing is enabled; call Engine.Close to flush and stop it.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	b.built = true

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.userProvider == nil {
		return nil, errors.New("user provider required")
	}

	// -------- KEYRING / CODEC --------
	var (
		ring *token.Keyring
		err  error
	)
	if len(cfg.Token.Keys) > 0 {
		ring, err = token.NewKeyring(cfg.Token.Keys...)
	} else {
		ring, err = token.LoadKeyFile(cfg.Token.KeyFile)
	}
	if err != nil {
		return nil, err
	}

	codec, err := token.NewCodec(ring)
	if err != nil {
		return nil, err
	}

	// -------- PASSWORD HASHER --------
	hasher, err := password.NewHasher(cfg.Password.hasherConfig())
	if err != nil {
		return nil, err
	}

	// -------- SESSION STORE --------
	store := b.sessionStore
	if store == nil {
		if b.redis != nil {
			guardTTL := cfg.Session.IdleTimeout * time.Duration(cfg.Session.GuardTTLFactor)
			store = session.NewRedisStore(b.redis, cfg.Session.RedisPrefix, guardTTL)
		} else {
			store = session.NewMemoryStore()
		}
	}

	// -------- RATE LIMITER --------
	var limiter *rate.Limiter
	if b.redis != nil && cfg.RateLimit.Enabled {
		limiter = rate.New(b.redis, rate.Config{
			EnableIPThrottle: cfg.RateLimit.EnableIPThrottle,
			MaxAttempts:      cfg.RateLimit.MaxAttempts,
			Cooldown:         cfg.RateLimit.Cooldown,
		})
	}

	clock := b.clock
	if clock == nil {
		clock = time.Now
	}

	engine := &Engine{
		config:       cfg,
		codec:        codec,
		hasher:       hasher,
		sessionStore: store,
		rateLimiter:  limiter,
		userProvider: b.userProvider,
		audit:        newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:      NewMetrics(cfg.Metrics),
		now:          clock,
	}

	return engine, nil
}
