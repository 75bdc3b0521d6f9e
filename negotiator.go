package negotiate

import (
	"context"
	"net/http"
)

// Negotiator renders one response representation. CanHandle is asked once
// per Accept entry during selection; Handle writes the body of the winner.
// Implementations must be safe for concurrent use.
type Negotiator interface {
	CanHandle(accept MediaType) bool
	Handle(ctx context.Context, w http.ResponseWriter, r *http.Request, model any) error
}

// ContentTyper is implemented by negotiators that produce one concrete
// content type.
type ContentTyper interface {
	ContentType() string
}

// DefaultNegotiator is the fallback used when no registered negotiator
// matches the request. It is never matched competitively.
type DefaultNegotiator interface {
	Negotiator
	ContentTyper
}

// HandleFunc writes a response body for model.
type HandleFunc func(ctx context.Context, w http.ResponseWriter, r *http.Request, model any) error

type funcNegotiator struct {
	match  func(MediaType) bool
	handle HandleFunc
}

func (f funcNegotiator) CanHandle(accept MediaType) bool { return f.match(accept) }

func (f funcNegotiator) Handle(ctx context.Context, w http.ResponseWriter, r *http.Request, model any) error {
	return f.handle(ctx, w, r, model)
}

// NegotiatorFunc builds a Negotiator from a match predicate and a handle
// function.
func NegotiatorFunc(match func(MediaType) bool, handle HandleFunc) Negotiator {
	return funcNegotiator{match: match, handle: handle}
}

type typedNegotiator struct {
	funcNegotiator
	contentType string
}

func (t typedNegotiator) ContentType() string { return t.contentType }

// ForType returns a negotiator handling Accept entries that match the
// content type ct, including "type/*" ranges.
func ForType(ct string, handle HandleFunc) Negotiator {
	return typedNegotiator{
		funcNegotiator: funcNegotiator{
			match:  func(m MediaType) bool { return m.Matches(ct) },
			handle: handle,
		},
		contentType: ct,
	}
}
