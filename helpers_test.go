package negotiate_test

import (
	"context"
	"io"
	"net/http"
	"slices"

	"github.com/bjaus/negotiate"
)

// stubNegotiator handles the listed media types (compared on String) and
// writes body.
type stubNegotiator struct {
	accepts []string
	body    string
	err     error

	gotCtx context.Context //nolint:containedctx // recorded for assertions
}

func newStub(body string, accepts ...string) *stubNegotiator {
	return &stubNegotiator{body: body, accepts: accepts}
}

func (s *stubNegotiator) CanHandle(accept negotiate.MediaType) bool {
	return slices.Contains(s.accepts, accept.String())
}

func (s *stubNegotiator) Handle(ctx context.Context, w http.ResponseWriter, _ *http.Request, _ any) error {
	s.gotCtx = ctx
	if s.err != nil {
		return s.err
	}
	_, err := io.WriteString(w, s.body)
	return err
}

// stubDefault is a default negotiator with a fixed content type.
type stubDefault struct {
	stubNegotiator
	contentType string
}

func newStubDefault(body string) *stubDefault {
	return &stubDefault{stubNegotiator: stubNegotiator{body: body}, contentType: "application/json; charset=utf-8"}
}

func (s *stubDefault) CanHandle(negotiate.MediaType) bool { return true }

func (s *stubDefault) ContentType() string { return s.contentType }

// containsNegotiator handles any media type whose "type/subtype" is one of
// types, mirroring negotiators that match on the bare media type.
func containsNegotiator(body string, types ...string) negotiate.Negotiator {
	return negotiate.NegotiatorFunc(
		func(m negotiate.MediaType) bool { return slices.Contains(types, m.MediaType()) },
		func(ctx context.Context, w http.ResponseWriter, _ *http.Request, _ any) error {
			_, err := io.WriteString(w, body)
			return err
		},
	)
}

type person struct {
	FirstName string `json:"firstName" xml:"firstName" yaml:"firstName"`
}
