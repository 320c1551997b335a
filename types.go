package cookieauth

import (
	"context"

	"github.com/aditnw/cookieauth/scope"
)

// Common scope names. Applications may define their own; these are just the
// conventional defaults used by the examples.
const (
	ScopeUser  = "user"
	ScopeAdmin = "admin"
)

// UserRecord is the application-owned view of a user that the engine needs
// to authenticate and authorize requests. The engine never stores these;
// they are fetched through a UserProvider on every operation that needs one.
type UserRecord struct {
	Username     string
	PasswordHash string
	Scopes       scope.Set
	Disabled     bool
}

// UserProvider is implemented by the application's user store.
//
// GetUser reports (record, true, nil) when the user exists and
// (zero, false, nil) when it does not. A non-nil error means the lookup
// itself failed and the operation is aborted.
type UserProvider interface {
	GetUser(ctx context.Context, username string) (UserRecord, bool, error)

	// UpdatePasswordHash is called after a successful login when the
	// stored hash uses outdated parameters and upgrade-on-login is
	// enabled. Implementations that do not support rewriting hashes may
	// return an error; the login still succeeds.
	UpdatePasswordHash(ctx context.Context, username, newHash string) error
}

// AuthResult is returned by successful Authenticate and Authorize calls.
type AuthResult struct {
	// Username is the authenticated identity, as carried in the credential
	// and confirmed against the session store.
	Username string

	// User is the provider's record for Username at authentication time.
	User UserRecord
}

// LoginResult is returned by a successful Login call.
type LoginResult struct {
	// Credential is the opaque value to hand back to the client, typically
	// as a cookie. It is URL- and cookie-safe.
	Credential string

	// Username echoes the authenticated identity.
	Username string

	// HashUpgraded reports whether the stored password hash was rewritten
	// with current parameters during this login.
	HashUpgraded bool
}
