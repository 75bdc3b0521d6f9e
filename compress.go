package negotiate

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

// CompressConfig configures the Compress middleware.
type CompressConfig struct {
	Level   int      // gzip level (1-9, default: 5)
	MinSize int      // minimum first write to compress (default: 1024)
	Types   []string // media types to compress; "type/*" allowed (default: JSON, XML, YAML, text/*)
}

// Compress returns middleware that gzip-compresses negotiated responses when
// the client's Accept-Encoding weighs gzip above zero. Responses are only
// compressed when their Content-Type matches one of the configured types.
func Compress(cfg ...CompressConfig) Middleware {
	c := CompressConfig{
		Level:   5,
		MinSize: 1024,
		Types:   []string{"application/json", "application/xml", "application/yaml", "text/*"},
	}
	if len(cfg) > 0 {
		if cfg[0].Level > 0 {
			c.Level = cfg[0].Level
		}
		if cfg[0].MinSize > 0 {
			c.MinSize = cfg[0].MinSize
		}
		if len(cfg[0].Types) > 0 {
			c.Types = cfg[0].Types
		}
	}

	types := make([]MediaType, 0, len(c.Types))
	for _, t := range c.Types {
		if m, ok := parseMediaRange(t); ok {
			types = append(types, m)
		}
	}

	pool := &sync.Pool{
		New: func() any {
			gz, _ := gzip.NewWriterLevel(io.Discard, c.Level) //nolint:errcheck // level is pre-validated
			return gz
		},
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Vary", "Accept-Encoding")
			if !acceptsEncoding(r.Header.Values("Accept-Encoding"), "gzip") {
				next.ServeHTTP(w, r)
				return
			}

			gw := &gzipResponseWriter{
				ResponseWriter: w,
				pool:           pool,
				minSize:        c.MinSize,
				types:          types,
			}
			defer gw.close()
			next.ServeHTTP(gw, r)
		})
	}
}

// acceptsEncoding reports whether the Accept-Encoding values weigh coding
// (or "*") above zero. An explicit entry for coding wins over "*"; entries
// with a malformed q are ignored.
func acceptsEncoding(values []string, coding string) bool {
	wildcard := false
	for _, v := range values {
		for part := range strings.SplitSeq(v, ",") {
			name, params, _ := strings.Cut(part, ";")
			name = strings.ToLower(strings.TrimSpace(name))

			q, ok := 1.0, true
			for param := range strings.SplitSeq(params, ";") {
				k, val, _ := strings.Cut(param, "=")
				if strings.EqualFold(strings.TrimSpace(k), "q") {
					q, ok = parseQuality(strings.TrimSpace(val))
				}
			}
			if !ok {
				continue
			}

			switch name {
			case coding:
				return q > 0
			case "*":
				wildcard = q > 0
			}
		}
	}
	return wildcard
}

// gzipResponseWriter decides on the first write whether to compress,
// based on the Content-Type the negotiator set.
type gzipResponseWriter struct {
	http.ResponseWriter
	pool    *sync.Pool
	gz      *gzip.Writer
	minSize int
	types   []MediaType

	status  int
	decided bool
}

func (g *gzipResponseWriter) WriteHeader(code int) {
	if g.status == 0 {
		g.status = code
	}
	// Bodiless responses are passed straight through.
	if code == http.StatusNoContent || code == http.StatusNotModified {
		g.decided = true
		g.ResponseWriter.WriteHeader(code)
	}
}

func (g *gzipResponseWriter) Write(b []byte) (int, error) {
	if !g.decided {
		g.decided = true
		if len(b) >= g.minSize && g.shouldCompress() {
			g.gz = g.pool.Get().(*gzip.Writer) //nolint:forcetypeassert // pool.New always returns *gzip.Writer
			g.gz.Reset(g.ResponseWriter)
			g.Header().Set("Content-Encoding", "gzip")
			g.Header().Del("Content-Length")
		}
		g.flushHeader()
	}

	if g.gz != nil {
		return g.gz.Write(b)
	}
	return g.ResponseWriter.Write(b)
}

func (g *gzipResponseWriter) flushHeader() {
	if g.status != 0 {
		g.ResponseWriter.WriteHeader(g.status)
	}
}

func (g *gzipResponseWriter) shouldCompress() bool {
	if g.Header().Get("Content-Encoding") != "" {
		return false
	}
	ct, ok := parseMediaRange(g.Header().Get("Content-Type"))
	if !ok {
		return false
	}
	for _, t := range g.types {
		if t.Matches(ct.MediaType()) {
			return true
		}
	}
	return false
}

// Flush implements http.Flusher.
func (g *gzipResponseWriter) Flush() {
	if !g.decided {
		g.decided = true
		g.flushHeader()
	}
	if g.gz != nil {
		_ = g.gz.Flush() //nolint:errcheck // surfaced by the next write
	}
	if f, ok := g.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (g *gzipResponseWriter) close() {
	if !g.decided {
		g.flushHeader()
	}
	if g.gz == nil {
		return
	}
	//nolint:errcheck,gosec // best-effort flush
	g.gz.Close()
	g.pool.Put(g.gz)
	g.gz = nil
}

func (g *gzipResponseWriter) Unwrap() http.ResponseWriter {
	return g.ResponseWriter
}
