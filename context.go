package cookieauth

import "context"

type clientIPContextKey struct{}

// WithClientIP attaches the client's remote IP to the context. Login uses
// it for per-IP throttling and audit events when present.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

func clientIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}
