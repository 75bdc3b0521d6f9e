package negotiate_test

import (
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/bjaus/negotiate"
)

func newNegotiatingServer(t *testing.T) *httptest.Server {
	t.Helper()

	r := negotiate.New(negotiate.WithNegotiator(
		containsNegotiator("FOOBAR", "foo/bar"),
		containsNegotiator("HTML Response", "text/html"),
		containsNegotiator("XML Response", "application/xml"),
		containsNegotiator("Non default json Response", "application/vnd.badger+json"),
	))
	negotiate.Handle(r, http.MethodGet, "/negotiate", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		require.NoError(t, r.Negotiate(w, req, http.StatusOK, &person{FirstName: "Jim"}))
	}))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func getWithAccept(t *testing.T, url string, accept ...string) (*http.Response, string) {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	require.NoError(t, err)
	for _, a := range accept {
		req.Header.Add("Accept", a)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { require.NoError(t, resp.Body.Close()) }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestNegotiate_falls_back_to_json(t *testing.T) {
	t.Parallel()

	srv := newNegotiatingServer(t)

	for _, accept := range []string{"not/known", "utt$r-rubbish-9"} {
		t.Run(accept, func(t *testing.T) {
			t.Parallel()

			resp, body := getWithAccept(t, srv.URL+"/negotiate", accept)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))
			assert.JSONEq(t, `{"firstName":"Jim"}`, body)
		})
	}
}

func TestNegotiate_falls_back_to_json_without_accept_header(t *testing.T) {
	t.Parallel()

	srv := newNegotiatingServer(t)

	resp, body := getWithAccept(t, srv.URL+"/negotiate")
	assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, `{"firstName":"Jim"}`, body)
}

func TestNegotiate_json_uses_field_tags(t *testing.T) {
	t.Parallel()

	srv := newNegotiatingServer(t)

	_, body := getWithAccept(t, srv.URL+"/negotiate", "application/json")
	assert.Equal(t, `{"firstName":"Jim"}`, body)
}

func TestNegotiate_picks_correctly_weighted_negotiator(t *testing.T) {
	t.Parallel()

	srv := newNegotiatingServer(t)

	resp, body := getWithAccept(t, srv.URL+"/negotiate", "application/xml;q=0.5", "text/html;q=0.3")
	assert.Equal(t, "XML Response", body)
	assert.Equal(t, "application/xml", resp.Header.Get("Content-Type"))
}

func TestNegotiate_picks_non_weighted_over_weighted(t *testing.T) {
	t.Parallel()

	srv := newNegotiatingServer(t)

	_, body := getWithAccept(t, srv.URL+"/negotiate", "application/xml;q=0.5, text/html;q=0.3, foo/bar")
	assert.Equal(t, "FOOBAR", body)
}

func TestNegotiate_uses_matching_negotiator(t *testing.T) {
	t.Parallel()

	srv := newNegotiatingServer(t)

	resp, body := getWithAccept(t, srv.URL+"/negotiate", "foo/bar")
	assert.Equal(t, "FOOBAR", body)
	assert.Equal(t, "foo/bar", resp.Header.Get("Content-Type"))
}

func TestNegotiate_picks_default_json_last(t *testing.T) {
	t.Parallel()

	srv := newNegotiatingServer(t)

	resp, body := getWithAccept(t, srv.URL+"/negotiate", "application/vnd.badger+json")
	assert.Equal(t, "Non default json Response", body)
	assert.Equal(t, "application/vnd.badger+json", resp.Header.Get("Content-Type"))
}

type greetResp struct {
	XMLName xml.Name `json:"-" yaml:"-" xml:"greeting"`
	Message string   `json:"message" yaml:"message" xml:"message"`
}

func newGreetServer(t *testing.T, opts ...negotiate.RouterOption) *httptest.Server {
	t.Helper()

	r := negotiate.New(opts...)
	negotiate.Get(r, "/greet", func(_ context.Context, _ *negotiate.Void) (*greetResp, error) {
		return &greetResp{Message: "hello"}, nil
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestNegotiate_builtin_xml(t *testing.T) {
	t.Parallel()

	srv := newGreetServer(t)

	for _, accept := range []string{"application/xml", "text/xml", "application/atom+xml"} {
		t.Run(accept, func(t *testing.T) {
			t.Parallel()

			resp, body := getWithAccept(t, srv.URL+"/greet", accept)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, accept, resp.Header.Get("Content-Type"))

			var got greetResp
			require.NoError(t, xml.NewDecoder(strings.NewReader(body)).Decode(&got))
			assert.Equal(t, "hello", got.Message)
		})
	}
}

func TestNegotiate_builtin_yaml(t *testing.T) {
	t.Parallel()

	srv := newGreetServer(t)

	resp, body := getWithAccept(t, srv.URL+"/greet", "application/yaml")
	assert.Equal(t, "application/yaml", resp.Header.Get("Content-Type"))

	var got greetResp
	require.NoError(t, yaml.Unmarshal([]byte(body), &got))
	assert.Equal(t, "hello", got.Message)
}

func TestNegotiate_without_builtins_xml_falls_back_to_json(t *testing.T) {
	t.Parallel()

	srv := newGreetServer(t, negotiate.WithoutBuiltinNegotiators())

	resp, body := getWithAccept(t, srv.URL+"/greet", "application/xml")
	assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"message":"hello"}`, body)
}

func TestNegotiate_custom_default(t *testing.T) {
	t.Parallel()

	def := newStubDefault("plain default")
	def.contentType = "text/plain"
	srv := newGreetServer(t, negotiate.WithDefaultNegotiator(def))

	resp, body := getWithAccept(t, srv.URL+"/greet")
	assert.Equal(t, "text/plain", resp.Header.Get("Content-Type"))
	assert.Equal(t, "plain default", body)
}

func TestNegotiate_user_negotiator_wins_over_builtin(t *testing.T) {
	t.Parallel()

	srv := newGreetServer(t, negotiate.WithNegotiator(containsNegotiator("custom xml", "application/xml")))

	_, body := getWithAccept(t, srv.URL+"/greet", "application/xml")
	assert.Equal(t, "custom xml", body)
}

func TestNegotiate_encoder_negotiator(t *testing.T) {
	t.Parallel()

	srv := newGreetServer(t, negotiate.WithNegotiator(negotiate.EncoderNegotiator(textEncoder{})))

	resp, body := getWithAccept(t, srv.URL+"/greet", "text/plain")
	assert.Equal(t, "text/plain", resp.Header.Get("Content-Type"))
	assert.Equal(t, "plain", body)
}

// textEncoder is a custom encoder for EncoderNegotiator.
type textEncoder struct{}

func (textEncoder) ContentType() string { return "text/plain" }

func (textEncoder) Encode(w io.Writer, _ any) error {
	_, err := io.WriteString(w, "plain")
	return err
}
