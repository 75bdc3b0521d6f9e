package negotiate_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bjaus/negotiate"
)

func TestLogger(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		handlerStatus int
		wantSubstr    []string
	}{
		"request is logged": {
			handlerStatus: http.StatusOK,
			wantSubstr:    []string{"msg=request", "method=GET", "path=/test-log", "status=200"},
		},
		"status code is captured": {
			handlerStatus: http.StatusCreated,
			wantSubstr:    []string{"status=201"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			handler := negotiate.Logger(slog.New(slog.NewTextHandler(&buf, nil)))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.handlerStatus)
			}))

			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test-log", nil))

			for _, s := range tc.wantSubstr {
				assert.Contains(t, buf.String(), s, "log output should contain %q", s)
			}
		})
	}
}

func TestLogger_captures_body_size(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	handler := negotiate.Logger(slog.New(slog.NewTextHandler(&buf, nil)))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("hello world response")) //nolint:errcheck
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/size-test", nil))

	assert.Contains(t, buf.String(), "size=20")
}

func TestLogger_records_negotiation(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := negotiate.New()
	r.Use(negotiate.RequestID(negotiate.RequestIDConfig{Generator: func() string { return "req-1" }}))
	r.Use(negotiate.Logger(slog.New(slog.NewTextHandler(&buf, nil))))
	negotiate.Get(r, "/greet", func(_ context.Context, _ *negotiate.Void) (*greetResp, error) {
		return &greetResp{Message: "hi"}, nil
	})

	req := httptest.NewRequest(http.MethodGet, "/greet", nil)
	req.Header.Set("Accept", "application/yaml")
	r.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	assert.Contains(t, out, "accept=application/yaml")
	assert.Contains(t, out, "content_type=application/yaml")
	assert.Contains(t, out, "request_id=req-1")
}

func TestLogger_unwrap_response_controller(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	handler := negotiate.Logger(slog.New(slog.NewTextHandler(&buf, nil)))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = http.NewResponseController(w).Flush() //nolint:errcheck
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/unwrap-test", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, rec.Flushed)
	assert.Contains(t, buf.String(), "msg=request")
}

func TestRouter_Negotiate_debug_log(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	r := negotiate.New(negotiate.WithLogger(logger))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "text/html, application/xml;q=0.5")
	assert.NoError(t, r.Negotiate(httptest.NewRecorder(), req, http.StatusOK, &person{FirstName: "Jim"}))

	out := buf.String()
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, "media_type=application/xml")
	assert.Contains(t, out, "default=false")
}
