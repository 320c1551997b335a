package cookie

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func requestWithCookie(name, value string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: name, Value: value})
	return r
}

func TestReadPlainValue(t *testing.T) {
	a := &Adapter{Name: "auth"}

	got, ok := a.Read(requestWithCookie("auth", "some-credential"))
	if !ok || string(got) != "some-credential" {
		t.Fatalf("Read = (%q, %v), want (some-credential, true)", got, ok)
	}
}

func TestReadAbsentOrEmpty(t *testing.T) {
	a := &Adapter{Name: "auth"}

	if _, ok := a.Read(httptest.NewRequest(http.MethodGet, "/", nil)); ok {
		t.Fatal("expected no credential for absent cookie")
	}
	if _, ok := a.Read(requestWithCookie("other", "value")); ok {
		t.Fatal("expected no credential for differently named cookie")
	}
	if _, ok := a.Read(requestWithCookie("auth", "")); ok {
		t.Fatal("expected no credential for empty cookie")
	}
}

func TestReadStripsByteLiteralQuoting(t *testing.T) {
	a := &Adapter{Name: "auth"}

	cases := []struct{ in, want string }{
		{"b'abc123'", "abc123"},
		{"babc", "babc"},
		// double quotes are not cookie octets; the serializer drops them
		// long before Read runs, so the leftover prefix passes through
		{"babc123", "babc123"},
		{"b'unterminated", "b'unterminated"},
		{"plain", "plain"},
	}
	for _, tc := range cases {
		got, ok := a.Read(requestWithCookie("auth", tc.in))
		if !ok || string(got) != tc.want {
			t.Fatalf("Read(%q) = (%q, %v), want (%q, true)", tc.in, got, ok, tc.want)
		}
	}

	// a quoted empty value reads as absent
	if _, ok := a.Read(requestWithCookie("auth", "b''")); ok {
		t.Fatal("expected no credential for quoted empty value")
	}
}

func TestWriteSetsFlags(t *testing.T) {
	a := &Adapter{
		Name:     "auth",
		Secure:   true,
		HTTPOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   15 * time.Minute,
	}

	w := httptest.NewRecorder()
	a.Write(w, []byte("cred"))

	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies, want 1", len(cookies))
	}
	c := cookies[0]
	if c.Name != "auth" || c.Value != "cred" {
		t.Fatalf("cookie = %s=%s", c.Name, c.Value)
	}
	if !c.Secure || !c.HttpOnly {
		t.Fatalf("flags = secure:%v httponly:%v, want both true", c.Secure, c.HttpOnly)
	}
	if c.SameSite != http.SameSiteStrictMode {
		t.Fatalf("samesite = %v, want strict", c.SameSite)
	}
	if c.MaxAge != int((15 * time.Minute).Seconds()) {
		t.Fatalf("maxage = %d", c.MaxAge)
	}
	if c.Path != "/" {
		t.Fatalf("path = %q, want /", c.Path)
	}
}

func TestWriteDefaults(t *testing.T) {
	a := &Adapter{}

	w := httptest.NewRecorder()
	a.Write(w, []byte("cred"))

	c := w.Result().Cookies()[0]
	if c.Name != DefaultName {
		t.Fatalf("name = %q, want %q", c.Name, DefaultName)
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Fatalf("samesite = %v, want lax", c.SameSite)
	}
	if c.MaxAge != 0 {
		t.Fatalf("maxage = %d, want session cookie", c.MaxAge)
	}
}

func TestClear(t *testing.T) {
	a := &Adapter{Name: "auth"}

	w := httptest.NewRecorder()
	a.Clear(w)

	c := w.Result().Cookies()[0]
	if c.Value != "" || c.MaxAge != -1 {
		t.Fatalf("clear cookie = value:%q maxage:%d", c.Value, c.MaxAge)
	}
}

func TestRoundTripThroughResponse(t *testing.T) {
	a := &Adapter{Name: "auth"}

	w := httptest.NewRecorder()
	a.Write(w, []byte("credential-bytes"))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		r.AddCookie(c)
	}

	got, ok := a.Read(r)
	if !ok || string(got) != "credential-bytes" {
		t.Fatalf("round trip = (%q, %v)", got, ok)
	}
}
