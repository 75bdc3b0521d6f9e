package negotiate

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
)

// Dispatch sets the response Content-Type for res and invokes its
// negotiator. status is sent with the first body write, or when the
// negotiator returns without writing; zero means 200. Errors from the
// negotiator are returned as is. When the negotiator fails before writing,
// the response is left unstarted and the Content-Type header is removed.
func Dispatch(ctx context.Context, w http.ResponseWriter, r *http.Request, res Result, status int, model any) error {
	if res.Negotiator == nil {
		return ErrNoDefault
	}

	ct := contentTypeFor(res)
	if ct != "" {
		w.Header().Set("Content-Type", ct)
	}

	dw := &deferredWriter{ResponseWriter: w, status: status}
	if err := res.Negotiator.Handle(ctx, dw, r, model); err != nil {
		if !dw.wroteHeader && ct != "" {
			w.Header().Del("Content-Type")
		}
		return err
	}
	dw.flush()
	return nil
}

func contentTypeFor(res Result) string {
	typed, hasType := res.Negotiator.(ContentTyper)
	switch {
	case res.Default, res.MediaType.HasSubtypeWildcard():
		if hasType {
			return typed.ContentType()
		}
		return ""
	default:
		return res.MediaType.String()
	}
}

// Negotiate renders model with the negotiator selected by the request's
// Accept header. It is the entry point for raw handlers.
func (r *Router) Negotiate(w http.ResponseWriter, req *http.Request, status int, model any) error {
	accept := AcceptHeader(req)
	res := Select(ParseAccept(accept), r.negotiators)

	r.logger.DebugContext(req.Context(), "response negotiated",
		slog.String("accept", accept),
		slog.String("negotiator", fmt.Sprintf("%T", res.Negotiator)),
		slog.String("media_type", res.MediaType.String()),
		slog.Bool("default", res.Default),
	)

	return Dispatch(req.Context(), w, req, res, status, model)
}

// JSON writes model as JSON regardless of the Accept header.
func (r *Router) JSON(w http.ResponseWriter, req *http.Request, status int, model any) error {
	return Dispatch(req.Context(), w, req, Result{Negotiator: JSON(), Default: true}, status, model)
}

// deferredWriter holds back the status line until the body starts, so a
// negotiator that fails early leaves the response writable.
type deferredWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *deferredWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.status = code
	w.flush()
}

func (w *deferredWriter) Write(b []byte) (int, error) {
	w.flush()
	return w.ResponseWriter.Write(b)
}

func (w *deferredWriter) flush() {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	if w.status == 0 {
		w.status = http.StatusOK
	}
	w.ResponseWriter.WriteHeader(w.status)
}

// Flush implements http.Flusher.
func (w *deferredWriter) Flush() {
	w.flush()
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap returns the underlying ResponseWriter (supports http.ResponseController).
func (w *deferredWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
