package negotiate

import (
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"
)

// MediaType is one entry of an Accept header.
type MediaType struct {
	Type    string
	Subtype string
	Quality float64
	Params  map[string]string // excludes q
}

// ParamCount returns the number of parameters other than q. It is the
// specificity used to break ties between equally weighted entries.
func (m MediaType) ParamCount() int { return len(m.Params) }

// MediaType returns "type/subtype".
func (m MediaType) MediaType() string { return m.Type + "/" + m.Subtype }

// String formats the media type with its parameters but without q, suitable
// for a Content-Type header.
func (m MediaType) String() string {
	return mime.FormatMediaType(m.MediaType(), m.Params)
}

// IsWildcard reports whether m is the any-type range "*/*".
func (m MediaType) IsWildcard() bool { return m.Type == "*" && m.Subtype == "*" }

// HasSubtypeWildcard reports whether m is a "type/*" range.
func (m MediaType) HasSubtypeWildcard() bool { return m.Type != "*" && m.Subtype == "*" }

// Matches reports whether the concrete content type ct satisfies m.
// A "type/*" range matches every subtype of type. The "*/*" range matches
// nothing: it is satisfied by the default negotiator.
func (m MediaType) Matches(ct string) bool {
	if m.IsWildcard() {
		return false
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	typ, sub, ok := splitMediaType(mt)
	if !ok || typ != m.Type {
		return false
	}
	return m.Subtype == "*" || m.Subtype == sub
}

// HasSuffix reports whether the subtype is suffix or carries it as a
// structured syntax suffix, e.g. "vnd.badger+json" for "json".
func (m MediaType) HasSuffix(suffix string) bool {
	return m.Subtype == suffix || strings.HasSuffix(m.Subtype, "+"+suffix)
}

// ParseAccept parses an Accept header value. Segments without a valid
// type/subtype or with an invalid q value are dropped; other malformed
// parameters are ignored. An empty header yields nil.
func ParseAccept(header string) []MediaType {
	if strings.TrimSpace(header) == "" {
		return nil
	}

	var out []MediaType
	for part := range strings.SplitSeq(header, ",") {
		if mt, ok := parseMediaRange(part); ok {
			out = append(out, mt)
		}
	}
	return out
}

// AcceptHeader returns every Accept header line of r joined into one value.
func AcceptHeader(r *http.Request) string {
	return strings.Join(r.Header.Values("Accept"), ",")
}

func parseMediaRange(s string) (MediaType, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return MediaType{}, false
	}

	full, params, err := mime.ParseMediaType(s)
	switch {
	case errors.Is(err, mime.ErrInvalidMediaParameter):
		// Malformed parameters are ignored; the rest are read leniently.
		params = lenientParams(s)
	case err != nil:
		return MediaType{}, false
	}

	typ, sub, ok := splitMediaType(full)
	if !ok || (typ == "*" && sub != "*") {
		return MediaType{}, false
	}

	q := 1.0
	if qs, ok := params["q"]; ok {
		if q, ok = parseQuality(qs); !ok {
			return MediaType{}, false
		}
		delete(params, "q")
	}
	if len(params) == 0 {
		params = nil
	}

	return MediaType{Type: typ, Subtype: sub, Quality: q, Params: params}, true
}

// lenientParams reads the key=value parameters of a media range, skipping
// any that are malformed. The first occurrence of a key wins.
func lenientParams(s string) map[string]string {
	_, rest, _ := strings.Cut(s, ";")
	params := make(map[string]string)
	for param := range strings.SplitSeq(rest, ";") {
		k, v, ok := strings.Cut(param, "=")
		k = strings.ToLower(strings.TrimSpace(k))
		if !ok || k == "" {
			continue
		}
		if _, dup := params[k]; dup {
			continue
		}
		params[k] = strings.Trim(strings.TrimSpace(v), `"`)
	}
	return params
}

// parseQuality parses a qvalue: "0" or "1" followed by at most three
// decimals, where "1" only allows zeros.
func parseQuality(s string) (float64, bool) {
	whole, frac, _ := strings.Cut(s, ".")
	if (whole != "0" && whole != "1") || len(frac) > 3 {
		return 0, false
	}
	for _, c := range frac {
		if c < '0' || c > '9' || (whole == "1" && c != '0') {
			return 0, false
		}
	}
	q, err := strconv.ParseFloat(s, 64)
	return q, err == nil
}

func splitMediaType(full string) (typ, sub string, ok bool) {
	typ, sub, ok = strings.Cut(full, "/")
	if !ok || typ == "" || sub == "" || strings.Contains(sub, "/") {
		return "", "", false
	}
	return typ, sub, true
}
