package negotiate

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for request binding.
var (
	ErrBindPath   = errors.New("bind path")
	ErrBindQuery  = errors.New("bind query")
	ErrBindHeader = errors.New("bind header")
	ErrBindBody   = errors.New("bind body")

	// ErrUnsupportedMediaType is returned when a request body has a
	// Content-Type no decoder handles.
	ErrUnsupportedMediaType = errors.New("unsupported media type")
)

// StatusCoder is implemented by errors or responses that carry an HTTP status code.
type StatusCoder interface {
	StatusCode() int
}

// ProblemDetail is an RFC 9457 problem details response.
//
//nolint:errname // RFC 9457 standard name
type ProblemDetail struct {
	XMLName  xml.Name          `json:"-" yaml:"-" xml:"problem"`
	Type     string            `json:"type,omitempty" yaml:"type,omitempty" xml:"type,omitempty"`
	Title    string            `json:"title,omitempty" yaml:"title,omitempty" xml:"title,omitempty"`
	Status   int               `json:"status" yaml:"status" xml:"status"`
	Detail   string            `json:"detail,omitempty" yaml:"detail,omitempty" xml:"detail,omitempty"`
	Instance string            `json:"instance,omitempty" yaml:"instance,omitempty" xml:"instance,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty" yaml:"errors,omitempty" xml:"errors>error,omitempty"`
}

// Error returns the detail message (or title if detail is empty).
func (p *ProblemDetail) Error() string {
	if p.Detail != "" {
		return p.Detail
	}
	return p.Title
}

// StatusCode returns the HTTP status code.
func (p *ProblemDetail) StatusCode() int { return p.Status }

// ValidationError describes a single field validation failure.
type ValidationError struct {
	Field   string `json:"field" yaml:"field" xml:"field"`
	Message string `json:"message" yaml:"message" xml:"message"`
}

// HTTPError is an error with an HTTP status code.
type HTTPError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error returns the error message.
func (e *HTTPError) Error() string { return e.Message }

// Unwrap returns the underlying error, if any.
func (e *HTTPError) Unwrap() error { return e.Err }

// StatusCode returns the HTTP status code.
func (e *HTTPError) StatusCode() int { return e.Status }

// Error returns an error with the given HTTP status code and message.
func Error(status int, message string) error {
	return &HTTPError{Status: status, Message: message}
}

// Errorf returns a formatted error with the given HTTP status code.
func Errorf(status int, format string, args ...any) error {
	return &HTTPError{Status: status, Message: fmt.Sprintf(format, args...)}
}

// WrapError returns an error with the given HTTP status code that unwraps to err.
func WrapError(status int, err error) error {
	return &HTTPError{Status: status, Message: err.Error(), Err: err}
}

// ErrorStatus extracts the HTTP status code from an error. A passed request
// deadline maps to http.StatusServiceUnavailable; any other error that does
// not implement StatusCoder maps to http.StatusInternalServerError.
func ErrorStatus(err error) int {
	var sc StatusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// Problem converts err into a ProblemDetail, reusing it when err already is one.
func Problem(err error) *ProblemDetail {
	var pd *ProblemDetail
	if errors.As(err, &pd) {
		return pd
	}

	status := ErrorStatus(err)
	detail := err.Error()
	// Internal errors keep their message out of the response.
	if status >= http.StatusInternalServerError && !isStatusCoder(err) {
		detail = ""
	}

	return &ProblemDetail{
		Type:   "about:blank",
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	}
}

func isStatusCoder(err error) bool {
	var sc StatusCoder
	return errors.As(err, &sc)
}

// WriteError writes err as a negotiated problem details response, or hands
// it to the router's ErrorHandler when one is configured. If the selected
// negotiator cannot render the problem, it is written as JSON.
func (r *Router) WriteError(w http.ResponseWriter, req *http.Request, err error) {
	if r.errorHandler != nil {
		r.errorHandler(w, req, err)
		return
	}

	// The problem is written even when the request context is already done.
	req = req.WithContext(context.WithoutCancel(req.Context()))

	problem := *Problem(err)
	if problem.Status == 0 {
		problem.Status = http.StatusInternalServerError
	}
	if problem.Instance == "" {
		problem.Instance = GetRequestID(req)
	}

	rec := &responseRecorder{ResponseWriter: w, status: problem.Status}
	werr := r.Negotiate(rec, req, problem.Status, &problem)
	if werr != nil && !rec.wroteHeader {
		werr = r.JSON(rec, req, problem.Status, &problem)
	}
	if werr != nil {
		r.logger.ErrorContext(req.Context(), "write error response",
			"err", werr,
			"cause", err,
			"method", req.Method,
			"path", req.URL.Path,
		)
	}
}
