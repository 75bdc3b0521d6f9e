package negotiate

import (
	"log/slog"
	"net/http"
)

// HeaderSetter is optionally implemented by response types to set response headers.
type HeaderSetter interface {
	SetHeaders(h http.Header)
}

// respond writes a typed handler's response. Streams bypass negotiation;
// everything else is rendered by the negotiator the Accept header selects.
// A render failure before any byte is written becomes an error response.
func (r *Router) respond(w http.ResponseWriter, req *http.Request, resp any, defaultStatus int) {
	if s, ok := resp.(*Stream); ok {
		if err := writeStream(req.Context(), w, s); err != nil {
			r.logger.WarnContext(req.Context(), "stream interrupted",
				slog.String("path", req.URL.Path),
				slog.Any("err", err),
			)
		}
		return
	}

	if hs, ok := resp.(HeaderSetter); ok {
		hs.SetHeaders(w.Header())
	}

	status := defaultStatus
	if sc, ok := resp.(StatusCoder); ok {
		status = sc.StatusCode()
	}

	rec := &responseRecorder{ResponseWriter: w, status: status}
	err := r.Negotiate(rec, req, status, resp)
	if err == nil {
		return
	}

	if rec.wroteHeader {
		r.logger.ErrorContext(req.Context(), "render response",
			slog.String("method", req.Method),
			slog.String("path", req.URL.Path),
			slog.Any("err", err),
		)
		return
	}
	r.WriteError(w, req, err)
}
