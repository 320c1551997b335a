// Package cookie moves the opaque credential blob between the transport
// cookie and the authentication core.
//
// The core never sees http.Cookie; it hands this package a byte blob and
// gets one back. Any representation quirks live here — most importantly the
// byte-literal quoting some legacy clients still send, where a credential
// stored from a textual byte value arrives as b'...' around the real bytes.
package cookie

import (
	"net/http"
	"strings"
	"time"
)

// DefaultName is the cookie name used when none is configured.
const DefaultName = "tides"

// Adapter reads and writes the credential cookie. Configure once at startup
// and treat as immutable; all methods are safe for concurrent use.
type Adapter struct {
	// Name is the cookie name. Empty means DefaultName.
	Name string

	// Path defaults to "/".
	Path string

	// MaxAge bounds the cookie lifetime in the client. Zero means a
	// session cookie; the server-side idle timeout stays authoritative
	// either way.
	MaxAge time.Duration

	// Secure must be set on live deployments; localhost development needs
	// it off.
	Secure bool

	// HTTPOnly keeps the credential away from page scripts. Same
	// live-versus-localhost split as Secure.
	HTTPOnly bool

	// SameSite defaults to http.SameSiteLaxMode.
	SameSite http.SameSite
}

func (a *Adapter) name() string {
	if a.Name == "" {
		return DefaultName
	}
	return a.Name
}

func (a *Adapter) path() string {
	if a.Path == "" {
		return "/"
	}
	return a.Path
}

func (a *Adapter) sameSite() http.SameSite {
	if a.SameSite == 0 {
		return http.SameSiteLaxMode
	}
	return a.SameSite
}

// Read extracts the raw credential from the request. The second return is
// false when the cookie is absent or empty.
func (a *Adapter) Read(r *http.Request) ([]byte, bool) {
	c, err := r.Cookie(a.name())
	if err != nil || c.Value == "" {
		return nil, false
	}

	value := stripByteLiteral(c.Value)
	if value == "" {
		return nil, false
	}
	return []byte(value), true
}

// Write attaches the credential to the response.
func (a *Adapter) Write(w http.ResponseWriter, credential []byte) {
	c := &http.Cookie{
		Name:     a.name(),
		Value:    string(credential),
		Path:     a.path(),
		Secure:   a.Secure,
		HttpOnly: a.HTTPOnly,
		SameSite: a.sameSite(),
	}
	if a.MaxAge > 0 {
		c.MaxAge = int(a.MaxAge.Seconds())
	}
	http.SetCookie(w, c)
}

// Clear overwrites the cookie with an expired empty value. Used after
// logout and when a stale or undecodable credential should not be sent
// again.
func (a *Adapter) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.name(),
		Value:    "",
		Path:     a.path(),
		MaxAge:   -1,
		Secure:   a.Secure,
		HttpOnly: a.HTTPOnly,
		SameSite: a.sameSite(),
	})
}

// stripByteLiteral undoes b'...' quoting around a cookie value. Only the
// single-quote form occurs: double quotes are not valid cookie octets and
// never survive HTTP transport. Plain values pass through untouched.
func stripByteLiteral(value string) string {
	value = strings.TrimSpace(value)
	if len(value) < 3 || value[0] != 'b' {
		return value
	}
	if value[1] != '\'' || value[len(value)-1] != '\'' {
		return value
	}
	return value[2 : len(value)-1]
}
