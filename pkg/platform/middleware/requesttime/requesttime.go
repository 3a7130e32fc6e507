// Package requesttime provides middleware for request-scoped time.
// Every report built within one request shares the same "now", so the
// dashboard's GeneratedAt matches the request log line.
package requesttime

import (
	"net/http"
	"time"

	"pricetrends/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request
// and stores it in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
