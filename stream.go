package negotiate

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
)

// Stream is a response type for binary or streaming responses.
// Return *Stream from a handler to bypass negotiation.
type Stream struct {
	ContentType string
	Status      int
	Body        io.Reader
}

// writeStream copies s to w, stopping when ctx is cancelled.
func writeStream(ctx context.Context, w http.ResponseWriter, s *Stream) error {
	if s.ContentType != "" {
		w.Header().Set("Content-Type", s.ContentType)
	}
	status := s.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	if s.Body == nil {
		return nil
	}
	if c, ok := s.Body.(io.Closer); ok {
		defer c.Close() //nolint:errcheck // best-effort close
	}
	_, err := io.Copy(w, &ctxReader{ctx: ctx, r: s.Body})
	return err
}

// FromStream writes body to w with the given content type, bypassing
// negotiation.
func FromStream(ctx context.Context, w http.ResponseWriter, body io.Reader, contentType string) error {
	return writeStream(ctx, w, &Stream{ContentType: contentType, Body: body})
}

// ctxReader fails reads once its context is done.
type ctxReader struct {
	ctx context.Context //nolint:containedctx // scoped to a single copy
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// ReadString reads r to the end and returns its content. If r is an
// io.Seeker it is rewound afterwards so it can be read again.
func ReadString(ctx context.Context, r io.Reader) (string, error) {
	var sb strings.Builder
	if _, err := io.Copy(&sb, &ctxReader{ctx: ctx, r: r}); err != nil {
		return "", err
	}
	if s, ok := r.(io.Seeker); ok {
		if _, err := s.Seek(0, io.SeekStart); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

// BodyString reads the request body as a string and replaces it with a
// fresh reader over the same bytes, so binding can still consume it.
func BodyString(req *http.Request) (string, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return "", nil
	}

	s, err := ReadString(req.Context(), req.Body)
	if err != nil {
		return "", err
	}
	if err := req.Body.Close(); err != nil {
		return "", err
	}
	req.Body = io.NopCloser(bytes.NewReader([]byte(s)))
	return s, nil
}
