package negotiate

import "net/http"

// BodyLimit returns middleware that limits the request body to maxBytes.
//
// Typed handlers and Bind report a larger body as a 413 problem, negotiated
// like any other error response:
//
//	r := negotiate.New()
//	r.Use(negotiate.BodyLimit(1 << 20))
//	negotiate.Post(r, "/actors", createActor)
//
// A 2 MiB POST to /actors then gets status 413 and a problem body, and
// createActor is never called.
func BodyLimit(maxBytes int64) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
