package negotiate

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
)

// ETagConfig configures the ETag middleware.
type ETagConfig struct {
	Weak bool // use weak ETags
}

// ETag returns middleware that tags GET and HEAD responses and answers
// If-None-Match with 304. The tag covers the Content-Type as well as the
// body, so each negotiated representation of a resource gets its own tag.
func ETag(cfg ...ETagConfig) Middleware {
	c := ETagConfig{}
	if len(cfg) > 0 {
		c = cfg[0]
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			rec := &etagRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			// Only 2xx responses are tagged.
			if rec.status < 200 || rec.status >= 300 {
				rec.flush()
				return
			}

			tag := representationTag(w.Header().Get("Content-Type"), rec.buf.Bytes(), c.Weak)
			w.Header().Set("ETag", tag)
			w.Header().Add("Vary", "Accept")

			if etagMatches(r.Header.Get("If-None-Match"), tag) {
				w.Header().Del("Content-Type")
				w.Header().Del("Content-Length")
				w.WriteHeader(http.StatusNotModified)
				return
			}
			rec.flush()
		})
	}
}

func representationTag(contentType string, body []byte, weak bool) string {
	h := sha256.New()
	h.Write([]byte(contentType))
	h.Write([]byte{0})
	h.Write(body)
	tag := `"` + hex.EncodeToString(h.Sum(nil)[:8]) + `"`
	if weak {
		tag = "W/" + tag
	}
	return tag
}

// etagMatches applies the weak comparison If-None-Match requires.
func etagMatches(header, tag string) bool {
	if header == "" {
		return false
	}
	want := strings.TrimPrefix(tag, "W/")
	for candidate := range strings.SplitSeq(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == want {
			return true
		}
	}
	return false
}

type etagRecorder struct {
	http.ResponseWriter
	buf    bytes.Buffer
	status int
}

func (e *etagRecorder) WriteHeader(code int) {
	e.status = code
}

func (e *etagRecorder) Write(b []byte) (int, error) {
	return e.buf.Write(b)
}

func (e *etagRecorder) flush() {
	e.ResponseWriter.WriteHeader(e.status)
	//nolint:errcheck,gosec // best-effort write
	e.ResponseWriter.Write(e.buf.Bytes())
}
