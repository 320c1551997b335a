package cookieauth

import (
	"errors"
	"net/http"
	"time"

	"github.com/aditnw/cookieauth/password"
)

// Config holds all engine settings. Instances are intended to be configured
// before Build and treated as immutable afterwards.
type Config struct {
	Token     TokenConfig
	Session   SessionConfig
	Password  PasswordConfig
	RateLimit RateLimitConfig
	Cookie    CookieConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig controls credential encryption.
//
// Exactly one of Keys or KeyFile must be set. When both are empty, Build
// fails: the engine never generates a key silently, because a restart would
// invalidate every outstanding credential without a trace.
type TokenConfig struct {
	// Keys are raw 32-byte XChaCha20-Poly1305 keys. Keys[0] seals new
	// credentials; every key is tried when opening, which allows rotation
	// without logging everyone out.
	Keys [][]byte

	// KeyFile is a path to a file of base64-encoded keys, one per line,
	// first line active. Ignored when Keys is set.
	KeyFile string
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls session records and idle expiry.
type SessionConfig struct {
	// IdleTimeout is the sliding window: a session whose last activity is
	// at least this long ago is treated as timed out. Default 15 minutes.
	IdleTimeout time.Duration

	// RedisPrefix namespaces session and rate-limit keys when a Redis
	// store is used.
	RedisPrefix string

	// GuardTTLFactor sizes the Redis key TTL as a multiple of IdleTimeout.
	// The TTL is a garbage-collection backstop, not the expiry mechanism;
	// keeping it slack preserves the distinction between a timed-out
	// session and no session at all. Default 4.
	GuardTTLFactor int
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig carries argon2id parameters plus the upgrade policy.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32

	// UpgradeOnLogin rewrites the stored hash with current parameters
	// after a successful verify against an outdated hash (including
	// legacy bcrypt hashes).
	UpgradeOnLogin bool
}

func (p PasswordConfig) hasherConfig() password.Config {
	return password.Config{
		Memory:      p.Memory,
		Time:        p.Time,
		Parallelism: p.Parallelism,
		SaltLength:  p.SaltLength,
		KeyLength:   p.KeyLength,
	}
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RateLimitConfig controls login throttling. Requires a Redis client;
// when none is wired, throttling is silently disabled.
type RateLimitConfig struct {
	Enabled          bool
	EnableIPThrottle bool
	MaxAttempts      int
	Cooldown         time.Duration
}

/*
====================================
COOKIE CONFIG
====================================
*/

// CookieConfig is consumed by the HTTP middleware and the cookie helpers.
// The engine itself never touches cookies.
type CookieConfig struct {
	Name     string
	Path     string
	Secure   bool
	HTTPOnly bool
	SameSite http.SameSite

	// MaxAge bounds the cookie lifetime in the browser. Zero means a
	// session cookie; server-side idle expiry applies regardless.
	MaxAge time.Duration
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls the async audit pipeline.
type AuditConfig struct {
	Enabled    bool
	BufferSize int

	// DropIfFull drops events instead of blocking the caller when the
	// buffer is full. Dropped events are counted and visible through
	// Engine.AuditDropped.
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled bool

	// EnableLatencyHistograms additionally tracks authenticate latency in
	// fixed buckets. Off by default; the extra atomics are cheap but not
	// free on hot paths.
	EnableLatencyHistograms bool
}

// DefaultConfig returns a Config with production-safe defaults. Key
// material is deliberately absent and must be supplied by the caller.
func DefaultConfig() Config {
	return Config{
		Session: SessionConfig{
			IdleTimeout:    15 * time.Minute,
			RedisPrefix:    "ca",
			GuardTTLFactor: 4,
		},
		Password: PasswordConfig{
			Memory:         64 * 1024,
			Time:           3,
			Parallelism:    2,
			SaltLength:     16,
			KeyLength:      32,
			UpgradeOnLogin: true,
		},
		RateLimit: RateLimitConfig{
			Enabled:          true,
			EnableIPThrottle: false,
			MaxAttempts:      5,
			Cooldown:         10 * time.Minute,
		},
		Cookie: CookieConfig{
			Name:     "tides",
			Path:     "/",
			Secure:   true,
			HTTPOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if len(cfg.Token.Keys) > 0 {
		out.Token.Keys = make([][]byte, len(cfg.Token.Keys))
		for i, k := range cfg.Token.Keys {
			out.Token.Keys[i] = cloneBytes(k)
		}
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks internal consistency. Build calls it; callers only need
// it when constructing configs dynamically.
func (c *Config) Validate() error {
	// Token
	if len(c.Token.Keys) == 0 && c.Token.KeyFile == "" {
		return errors.New("Token requires Keys or KeyFile")
	}

	// Session
	if c.Session.IdleTimeout <= 0 {
		return errors.New("Session IdleTimeout must be > 0")
	}
	if c.Session.GuardTTLFactor < 1 {
		return errors.New("Session GuardTTLFactor must be >= 1")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}

	// Rate limit
	if c.RateLimit.Enabled {
		if c.RateLimit.MaxAttempts <= 0 {
			return errors.New("RateLimit MaxAttempts must be > 0")
		}
		if c.RateLimit.Cooldown <= 0 {
			return errors.New("RateLimit Cooldown must be > 0")
		}
	}

	// Cookie
	if c.Cookie.Name == "" {
		return errors.New("Cookie Name must not be empty")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0")
	}

	return nil
}
