package negotiate_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/negotiate"
)

func TestStream_response(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		stream     *negotiate.Stream
		wantStatus int
		wantType   string
		wantBody   string
	}{
		"body with content type": {
			stream:     &negotiate.Stream{ContentType: "text/csv", Body: strings.NewReader("a,b\n")},
			wantStatus: http.StatusOK,
			wantType:   "text/csv",
			wantBody:   "a,b\n",
		},
		"custom status": {
			stream:     &negotiate.Stream{ContentType: "application/octet-stream", Status: http.StatusPartialContent, Body: strings.NewReader("xy")},
			wantStatus: http.StatusPartialContent,
			wantType:   "application/octet-stream",
			wantBody:   "xy",
		},
		"nil body": {
			stream:     &negotiate.Stream{Status: http.StatusAccepted},
			wantStatus: http.StatusAccepted,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			r := negotiate.New()
			negotiate.Get(r, "/export", func(_ context.Context, _ *negotiate.Void) (*negotiate.Stream, error) {
				return tc.stream, nil
			})

			req := httptest.NewRequest(http.MethodGet, "/export", nil)
			req.Header.Set("Accept", "application/xml")
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, tc.wantType, rec.Header().Get("Content-Type"))
			assert.Equal(t, tc.wantBody, rec.Body.String())
		})
	}
}

type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func TestStream_closes_body(t *testing.T) {
	t.Parallel()

	body := &closeTracker{Reader: strings.NewReader("data")}
	r := negotiate.New()
	negotiate.Get(r, "/export", func(_ context.Context, _ *negotiate.Void) (*negotiate.Stream, error) {
		return &negotiate.Stream{ContentType: "text/plain", Body: body}, nil
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export", nil))

	assert.Equal(t, "data", rec.Body.String())
	assert.True(t, body.closed)
}

func TestFromStream(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	err := negotiate.FromStream(context.Background(), rec, strings.NewReader("%PDF-1.7"), "application/pdf")

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF-1.7", rec.Body.String())
}

func TestFromStream_cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := httptest.NewRecorder()
	err := negotiate.FromStream(ctx, rec, strings.NewReader("never"), "text/plain")

	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rec.Body.String())
}

func TestReadString(t *testing.T) {
	t.Parallel()

	src := strings.NewReader("read me twice")

	first, err := negotiate.ReadString(context.Background(), src)
	require.NoError(t, err)
	second, err := negotiate.ReadString(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, "read me twice", first)
	assert.Equal(t, first, second)
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }

func TestReadString_error(t *testing.T) {
	t.Parallel()

	_, err := negotiate.ReadString(context.Background(), errReader{})
	assert.EqualError(t, err, "disk gone")
}

func TestBodyString(t *testing.T) {
	t.Parallel()

	type Req struct {
		Name string `json:"name"`
	}

	var raw string
	r := negotiate.New()
	negotiate.Handle(r, http.MethodPost, "/echo", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var err error
		raw, err = negotiate.BodyString(req)
		require.NoError(t, err)

		res, err := negotiate.Bind[Req](r, req)
		require.NoError(t, err)
		require.NoError(t, r.Negotiate(w, req, http.StatusOK, res.Data))
	}))

	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"name":"Jim"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, `{"name":"Jim"}`, raw)
	assert.JSONEq(t, `{"name":"Jim"}`, rec.Body.String())
}

func TestBodyString_no_body(t *testing.T) {
	t.Parallel()

	s, err := negotiate.BodyString(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Empty(t, s)
}
