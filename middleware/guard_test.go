package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	cookieauth "github.com/aditnw/cookieauth"
	"github.com/aditnw/cookieauth/cookie"
	"github.com/aditnw/cookieauth/scope"
)

type mapProvider struct {
	users map[string]cookieauth.UserRecord
}

func (p *mapProvider) GetUser(_ context.Context, username string) (cookieauth.UserRecord, bool, error) {
	u, ok := p.users[username]
	return u, ok, nil
}

func (p *mapProvider) UpdatePasswordHash(_ context.Context, username, newHash string) error {
	u := p.users[username]
	u.PasswordHash = newHash
	p.users[username] = u
	return nil
}

func testConfig() cookieauth.Config {
	cfg := cookieauth.DefaultConfig()
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Audit.Enabled = false
	return cfg
}

func newTestEngine(t *testing.T, clock func() time.Time) (*cookieauth.Engine, string) {
	t.Helper()

	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}

	b := cookieauth.New().
		WithConfig(testConfig()).
		WithKeys(key)
	if clock != nil {
		b = b.WithClock(clock)
	}

	provider := &mapProvider{users: map[string]cookieauth.UserRecord{}}
	engine, err := b.WithUserProvider(provider).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(engine.Close)

	hash, err := engine.HashPassword("hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	provider.users["alice"] = cookieauth.UserRecord{
		Username:     "alice",
		PasswordHash: hash,
		Scopes:       scope.NewSet("user"),
	}

	res, err := engine.Login(context.Background(), "alice", "hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	return engine, res.Credential
}

func guardedServer(engine *cookieauth.Engine, adapter cookie.Adapter, requiredScope string) http.Handler {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, ok := AuthResultFromContext(r.Context())
		if !ok {
			http.Error(w, "no identity", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(res.Username))
	})
	return Guard(engine, adapter, requiredScope)(inner)
}

func doRequest(h http.Handler, credential string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if credential != "" {
		r.AddCookie(&http.Cookie{Name: cookie.DefaultName, Value: credential})
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestGuardAllowsValidSession(t *testing.T) {
	engine, credential := newTestEngine(t, nil)
	h := guardedServer(engine, cookie.Adapter{}, "user")

	w := doRequest(h, credential)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Body.String() != "alice" {
		t.Fatalf("body = %q, want alice", w.Body.String())
	}
}

func TestGuardNoCookie(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	h := guardedServer(engine, cookie.Adapter{}, "user")

	w := doRequest(h, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestGuardTamperedCredentialClearsCookie(t *testing.T) {
	engine, credential := newTestEngine(t, nil)
	h := guardedServer(engine, cookie.Adapter{}, "user")

	tampered := []byte(credential)
	tampered[len(tampered)/2] ^= 0x01

	w := doRequest(h, string(tampered))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}

	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge != -1 {
		t.Fatalf("expected expired cookie reset, got %v", cookies)
	}
}

func TestGuardMissingScope(t *testing.T) {
	engine, credential := newTestEngine(t, nil)
	h := guardedServer(engine, cookie.Adapter{}, "admin")

	w := doRequest(h, credential)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}

	// scope denial must not end the session
	allowed := guardedServer(engine, cookie.Adapter{}, "user")
	if w := doRequest(allowed, credential); w.Code != http.StatusOK {
		t.Fatalf("session should survive scope denial, status = %d", w.Code)
	}
}

func TestGuardIdleTimeout(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	engine, credential := newTestEngine(t, func() time.Time { return now })
	h := guardedServer(engine, cookie.Adapter{}, "user")

	now = now.Add(14 * time.Minute)
	if w := doRequest(h, credential); w.Code != http.StatusOK {
		t.Fatalf("status before timeout = %d, want 200", w.Code)
	}

	// the successful request slid the window; full timeout from there
	now = now.Add(15 * time.Minute)
	if w := doRequest(h, credential); w.Code != http.StatusUnauthorized {
		t.Fatalf("status after timeout = %d, want 401", w.Code)
	}
}

func TestGuardByteLiteralCookie(t *testing.T) {
	engine, credential := newTestEngine(t, nil)
	h := guardedServer(engine, cookie.Adapter{}, "user")

	w := doRequest(h, "b'"+credential+"'")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestGuardNilEngine(t *testing.T) {
	h := guardedServer(nil, cookie.Adapter{}, "user")

	w := doRequest(h, "anything")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}
