package cookieauth

import (
	"errors"

	"github.com/aditnw/cookieauth/session"
)

// Sentinel errors returned by Engine operations. Callers are expected to
// branch with errors.Is; errors may be wrapped with operational context.
var (
	// ErrEngineNotReady is returned when Build was not called or failed.
	ErrEngineNotReady = errors.New("engine not initialized")

	// ErrNotLoggedIn means no usable session exists: the request carried no
	// credential, the named user is unknown, or the server holds no session
	// record for them.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrTokenInvalid means the presented credential could not be decrypted
	// or did not decode to a well-formed username:token pair.
	ErrTokenInvalid = errors.New("token invalid")

	// ErrSessionTimedOut means a session record exists but is no longer
	// current: either the presented token was superseded by a newer login,
	// or the idle timeout elapsed since the last authenticated request.
	ErrSessionTimedOut = errors.New("session timed out")

	// ErrInvalidCredentials is returned by Login when the username is
	// unknown or the password does not verify. The two cases are
	// deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccessNotAuthorized means the caller authenticated but lacks the
	// required scope.
	ErrAccessNotAuthorized = errors.New("access not authorized")

	// ErrAccountDisabled is returned by Login when the password verified
	// but the account is administratively disabled.
	ErrAccountDisabled = errors.New("account disabled")

	// ErrLoginRateLimited means too many failed login attempts were seen
	// for this username or client IP within the cooldown window.
	ErrLoginRateLimited = errors.New("too many login attempts")

	// ErrRedisUnavailable is returned when a required Redis round trip
	// failed and the operation could not be completed. It shares the
	// session store's identity, and the login limiter wraps the same
	// sentinel, so errors.Is matches regardless of which subsystem hit
	// the outage.
	ErrRedisUnavailable = session.ErrRedisUnavailable
)
