package negotiate

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"gopkg.in/yaml.v3"
)

// Encoder encodes response values to a wire format.
type Encoder interface {
	ContentType() string
	Encode(w io.Writer, v any) error
}

// Decoder decodes request bodies from a wire format.
type Decoder interface {
	ContentType() string
	Decode(r io.Reader, v any) error
}

// jsonCodec implements both Encoder and Decoder for JSON.
type jsonCodec struct{}

func (jsonCodec) ContentType() string { return "application/json; charset=utf-8" }

func (jsonCodec) Encode(w io.Writer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

func (jsonCodec) Decode(r io.Reader, v any) error {
	err := json.NewDecoder(r).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// xmlCodec implements both Encoder and Decoder for XML.
type xmlCodec struct{}

func (xmlCodec) ContentType() string { return "application/xml" }

func (xmlCodec) Encode(w io.Writer, v any) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	return xml.NewEncoder(w).Encode(v)
}

func (xmlCodec) Decode(r io.Reader, v any) error {
	err := xml.NewDecoder(r).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// yamlCodec implements both Encoder and Decoder for YAML.
type yamlCodec struct{}

func (yamlCodec) ContentType() string { return "application/yaml" }

func (yamlCodec) Encode(w io.Writer, v any) error {
	b, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

func (yamlCodec) Decode(r io.Reader, v any) error {
	err := yaml.NewDecoder(r).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// encoderNegotiator adapts an Encoder to the Negotiator interface. The body
// is encoded into a buffer first so a serialization failure leaves the
// response untouched.
type encoderNegotiator struct {
	enc     Encoder
	accepts func(MediaType) bool
}

func (n encoderNegotiator) CanHandle(accept MediaType) bool { return n.accepts(accept) }

func (n encoderNegotiator) ContentType() string { return n.enc.ContentType() }

func (n encoderNegotiator) Handle(ctx context.Context, w http.ResponseWriter, _ *http.Request, model any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := n.enc.Encode(&buf, model); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := buf.WriteTo(w)
	return err
}

// EncoderNegotiator returns a Negotiator that renders models with enc for
// Accept entries matching the encoder's content type.
func EncoderNegotiator(enc Encoder) Negotiator {
	ct := enc.ContentType()
	return encoderNegotiator{enc: enc, accepts: func(m MediaType) bool { return m.Matches(ct) }}
}

// JSON returns the built-in default negotiator. It renders any model as JSON
// and never refuses an Accept entry.
func JSON() DefaultNegotiator {
	return encoderNegotiator{enc: jsonCodec{}, accepts: func(MediaType) bool { return true }}
}

// XML returns a negotiator for application/xml, text/xml and +xml types.
func XML() Negotiator {
	return encoderNegotiator{enc: xmlCodec{}, accepts: acceptsSuffix("xml")}
}

// YAML returns a negotiator for application/yaml, application/x-yaml,
// text/yaml and +yaml types.
func YAML() Negotiator {
	return encoderNegotiator{enc: yamlCodec{}, accepts: func(m MediaType) bool {
		return acceptsSuffix("yaml")(m) || (m.Type == "application" && m.Subtype == "x-yaml")
	}}
}

func acceptsSuffix(suffix string) func(MediaType) bool {
	return func(m MediaType) bool {
		if m.Type != "application" && m.Type != "text" {
			return false
		}
		return m.HasSuffix(suffix)
	}
}

// decoderRegistry selects request body decoders by Content-Type.
// Index 0 is always JSON (the default).
type decoderRegistry struct {
	decoders []Decoder
}

func newDecoderRegistry(user []Decoder) *decoderRegistry {
	dr := &decoderRegistry{decoders: make([]Decoder, 0, 3+len(user))}
	dr.decoders = append(dr.decoders, jsonCodec{}, xmlCodec{}, yamlCodec{})
	dr.decoders = append(dr.decoders, user...)
	return dr
}

// decoderFor returns the decoder matching the given Content-Type.
// Returns (JSON decoder, true) for an empty content type.
// Structured syntax suffixes (+json, +xml, +yaml) pick the matching codec.
// Returns (nil, false) if the content type is present but unrecognized.
func (dr *decoderRegistry) decoderFor(contentType string) (Decoder, bool) {
	if contentType == "" {
		return dr.decoders[0], true
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, false
	}

	for _, dec := range dr.decoders {
		mt, _, err := mime.ParseMediaType(dec.ContentType())
		if err == nil && mt == mediaType {
			return dec, true
		}
	}
	switch {
	case mediaType == "text/xml" || strings.HasSuffix(mediaType, "+xml"):
		return xmlCodec{}, true
	case mediaType == "application/x-yaml" || mediaType == "text/yaml" || strings.HasSuffix(mediaType, "+yaml"):
		return yamlCodec{}, true
	case strings.HasSuffix(mediaType, "+json"):
		return jsonCodec{}, true
	}
	return nil, false
}
