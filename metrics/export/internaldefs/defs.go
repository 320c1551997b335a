// Package internaldefs holds the metric name/help tables shared by the
// Prometheus and OpenTelemetry exporters. It exists so the two exporters
// cannot drift apart on naming.
package internaldefs

import (
	cookieauth "github.com/aditnw/cookieauth"
)

// CounterDef ties an engine MetricID to an exported metric name.
type CounterDef struct {
	ID   cookieauth.MetricID
	Name string
	Help string
}

// HistogramDef ties a histogram-backed MetricID to an exported name.
type HistogramDef struct {
	ID   cookieauth.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter, in a stable render order.
var CounterDefs = []CounterDef{
	{ID: cookieauth.MetricLoginSuccess, Name: "cookieauth_login_success_total", Help: "Successful login attempts."},
	{ID: cookieauth.MetricLoginFailure, Name: "cookieauth_login_failure_total", Help: "Failed login attempts."},
	{ID: cookieauth.MetricLoginRateLimited, Name: "cookieauth_login_rate_limited_total", Help: "Rate-limited login attempts."},
	{ID: cookieauth.MetricSessionCreated, Name: "cookieauth_session_created_total", Help: "Sessions created by login."},
	{ID: cookieauth.MetricSessionExpired, Name: "cookieauth_session_expired_total", Help: "Sessions rejected as superseded or idle-expired."},
	{ID: cookieauth.MetricAuthSuccess, Name: "cookieauth_auth_success_total", Help: "Successful authentications."},
	{ID: cookieauth.MetricAuthFailure, Name: "cookieauth_auth_failure_total", Help: "Failed authentications, including scope denials."},
	{ID: cookieauth.MetricLogout, Name: "cookieauth_logout_total", Help: "Logout operations."},
	{ID: cookieauth.MetricHashUpgraded, Name: "cookieauth_hash_upgraded_total", Help: "Password hashes rewritten with current parameters on login."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: cookieauth.MetricAuthenticateLatency, Name: "cookieauth_authenticate_latency_seconds", Help: "Authenticate latency histogram."},
}

// HistogramBounds are the upper bounds of the engine's fixed buckets, as
// Prometheus le label values.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix mirrors HistogramBounds with characters legal in
// OpenTelemetry instrument names.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw snapshot slice to the fixed
// bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to cumulative counts as the
// Prometheus exposition format requires.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
