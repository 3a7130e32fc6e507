// Package requestcontext holds request-scoped values that services read
// without importing net/http. Middleware sets them; tests and the CLI may
// inject them directly.
package requestcontext

import (
	"context"
	"time"
)

type (
	clientIPKey    struct{}
	userAgentKey   struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

func value[T any](ctx context.Context, key any) (T, bool) {
	v, ok := ctx.Value(key).(T)
	return v, ok
}

// ClientIP returns the caller address set by the metadata middleware.
func ClientIP(ctx context.Context) string {
	ip, _ := value[string](ctx, clientIPKey{})
	return ip
}

func UserAgent(ctx context.Context) string {
	ua, _ := value[string](ctx, userAgentKey{})
	return ua
}

// WithClientMetadata stores the caller address and User-Agent.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey{}, clientIP)
	return context.WithValue(ctx, userAgentKey{}, userAgent)
}

// RequestID returns the id used to correlate log lines of one request, or "".
func RequestID(ctx context.Context) string {
	id, _ := value[string](ctx, requestIDKey{})
	return id
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now returns the request-scoped time, or time.Now outside a request.
func Now(ctx context.Context) time.Time {
	if t, ok := value[time.Time](ctx, requestTimeKey{}); ok {
		return t
	}
	return time.Now()
}

func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
