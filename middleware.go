package negotiate

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Middleware is the standard middleware signature compatible with the entire
// Go middleware ecosystem.
type Middleware func(next http.Handler) http.Handler

// Recovery returns middleware that recovers from panics, logs them with the
// router's logger and responds with a negotiated 500 problem. If the handler
// had already started the response, the connection is left as is.
func (r *Router) Recovery() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}

				r.logger.ErrorContext(req.Context(), "panic recovered",
					slog.Any("panic", v),
					slog.String("stack", string(debug.Stack())),
					slog.String("method", req.Method),
					slog.String("path", req.URL.Path),
				)
				if !rec.wroteHeader {
					r.WriteError(rec, req, fmt.Errorf("panic: %v", v))
				}
			}()
			next.ServeHTTP(rec, req)
		})
	}
}
