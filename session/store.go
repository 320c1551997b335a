package session

import (
	"context"
	"errors"
	"time"
)

// ErrNoSession is returned by Touch when the username has no record. Touch
// is only valid after a successful lookup, so seeing this error means a
// caller contract was broken; it is never mapped to a user-facing failure.
var ErrNoSession = errors.New("no session for username")

// ErrRedisUnavailable wraps transport-level Redis failures.
var ErrRedisUnavailable = errors.New("redis unavailable")

// Record is one active login. Token is the opaque random value the client's
// credential must match; LastActivity drives the sliding idle timeout; Aux
// is an opaque persistence slot the store carries but never interprets.
type Record struct {
	Token        string
	LastActivity time.Time
	Aux          []byte
}

// Store maps usernames to their single active session record.
//
// Implementations must make every operation atomic with respect to one
// username's record, and must not serialize operations on different
// usernames against each other.
type Store interface {
	// Put unconditionally upserts the record, invalidating any prior
	// session for the username.
	Put(ctx context.Context, username string, rec Record) error

	// Get returns the current record and whether one exists.
	Get(ctx context.Context, username string) (Record, bool, error)

	// Remove deletes the session. Removing an absent session is a no-op.
	Remove(ctx context.Context, username string) error

	// Touch advances LastActivity to now. LastActivity never moves
	// backwards. Touching an absent session returns ErrNoSession.
	Touch(ctx context.Context, username string, now time.Time) error
}
