package bridge

import (
	"context"
	"net/http"
)

// headerContextKey is the context key for per-request forwarded headers.
type headerContextKey struct{}

// WithRequestHeaders returns a new context carrying the given headers for
// forwarding. The header set is scoped to that context's lifetime, so
// concurrent invocations never observe one another's values.
func WithRequestHeaders(ctx context.Context, h http.Header) context.Context {
	return context.WithValue(ctx, headerContextKey{}, h)
}

// RequestHeaders extracts the forwarded headers from the context, if present.
func RequestHeaders(ctx context.Context) (http.Header, bool) {
	h, ok := ctx.Value(headerContextKey{}).(http.Header)
	return h, ok
}

// CaptureHeaders wraps a handler so each inbound request's headers are
// snapshotted into the request context before the MCP layer sees it. Tool
// handlers read them back at invocation time to forward caller credentials.
func CaptureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithRequestHeaders(r.Context(), r.Header.Clone())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
