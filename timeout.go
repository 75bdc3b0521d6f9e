package negotiate

import (
	"context"
	"net/http"
	"time"
)

// Timeout returns middleware that bounds the request context by d. Encoders
// stop once the deadline passes, and a handler error caused by it is
// answered with a 503 problem.
func Timeout(d time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
