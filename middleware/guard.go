package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"

	cookieauth "github.com/aditnw/cookieauth"
	"github.com/aditnw/cookieauth/cookie"
)

type authResultContextKey struct{}

// AuthResultFromContext returns the identity injected by Guard.
func AuthResultFromContext(ctx context.Context) (cookieauth.AuthResult, bool) {
	res, ok := ctx.Value(authResultContextKey{}).(cookieauth.AuthResult)
	return res, ok
}

// Guard authorizes every request against requiredScope before invoking the
// wrapped handler. The failure mapping follows the sentinel taxonomy:
//
//   - NotLoggedIn, SessionTimedOut  -> 401
//   - TokenInvalid                  -> 401, and the stale cookie is cleared
//   - AccessNotAuthorized           -> 403, user stays logged in
//   - anything else                 -> 500
func Guard(engine *cookieauth.Engine, adapter cookie.Adapter, requiredScope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			credential, _ := adapter.Read(r)

			ctx := cookieauth.WithClientIP(r.Context(), remoteIP(r))
			res, err := engine.Authorize(ctx, credential, requiredScope)
			if err != nil {
				writeFailure(w, adapter, err)
				return
			}

			ctx = context.WithValue(ctx, authResultContextKey{}, res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeFailure(w http.ResponseWriter, adapter cookie.Adapter, err error) {
	switch {
	case errors.Is(err, cookieauth.ErrTokenInvalid):
		// the client is carrying a cookie that will never decode; make
		// it stop
		adapter.Clear(w)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, cookieauth.ErrNotLoggedIn),
		errors.Is(err, cookieauth.ErrSessionTimedOut):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, cookieauth.ErrAccessNotAuthorized):
		http.Error(w, "forbidden", http.StatusForbidden)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
