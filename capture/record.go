// Package capture intercepts outgoing API requests and turns them into
// immutable records.
//
// DESIGN: One pure builder, BuildRecord, shared by every entry point:
//   - Transport:   http.RoundTripper that observes requests in-flight
//   - Interceptor: direct pre-send hook for caller-managed transports
//
// Capture is best-effort telemetry. A malformed payload degrades to an
// empty body; nothing on this path may fail or delay the request itself.
package capture

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// Record is an immutable snapshot of one outgoing API request, taken just
// before transmission. It is built once, atomically, and never mutated.
//
// The convenience fields (Model, Temperature, MaxTokens, Messages) are
// pointers or nil slices so that "absent from the payload" stays
// distinguishable from zero values that were actually sent.
type Record struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`

	Method   string `json:"method"`
	URL      string `json:"url"`
	BaseURL  string `json:"base_url"`
	Endpoint string `json:"endpoint"`

	Model       *string          `json:"model,omitempty"`
	Temperature *float64         `json:"temperature,omitempty"`
	MaxTokens   *int             `json:"max_tokens,omitempty"`
	Messages    []map[string]any `json:"messages,omitempty"`

	// Body is the fully parsed request payload. Empty (never nil) when the
	// payload was absent or unparsable.
	Body map[string]any `json:"body"`

	// Headers holds the request headers minus authorization.
	Headers map[string]string `json:"headers"`

	// TokenEstimate is an approximate prompt token count, set only when
	// token counting is enabled on the interceptor.
	TokenEstimate *int `json:"token_estimate,omitempty"`
}

// RawRequest is the transport-facing view of an outgoing request, as handed
// to BuildRecord. Body is the raw payload bytes; it is never modified.
type RawRequest struct {
	Method  string
	URL     string
	Body    []byte
	Headers map[string][]string
}

// BuildRecord constructs a Record from a raw outgoing request. It never
// fails: decode and parse errors yield a record with an empty body and
// unset convenience fields.
func BuildRecord(raw RawRequest, baseURL string) Record {
	rec, _ := buildRecord(raw, baseURL)
	return rec
}

// buildRecord reports whether the payload parsed, so the interceptor can
// count degraded captures.
func buildRecord(raw RawRequest, baseURL string) (Record, bool) {
	rec := Record{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Method:    raw.Method,
		URL:       raw.URL,
		BaseURL:   strings.TrimRight(baseURL, "/"),
		Endpoint:  endpointOf(raw.URL, baseURL),
		Body:      map[string]any{},
		Headers:   redactedHeaders(raw.Headers),
	}

	if len(raw.Body) == 0 {
		return rec, true
	}

	var body map[string]any
	if err := json.Unmarshal(raw.Body, &body); err != nil {
		// Unparsable payload: keep the empty body, leave fields unset.
		return rec, false
	}
	rec.Body = body

	// gjson distinguishes present-but-zero from absent, which the plain map
	// lookup above cannot do for numeric fields.
	if r := gjson.GetBytes(raw.Body, "model"); r.Exists() && r.Type == gjson.String {
		s := r.String()
		rec.Model = &s
	}
	if r := gjson.GetBytes(raw.Body, "temperature"); r.Exists() && r.Type == gjson.Number {
		f := r.Float()
		rec.Temperature = &f
	}
	// max_tokens wins whenever present, even as 0; max_completion_tokens is
	// a compatibility fallback for newer payloads that dropped the old name.
	r := gjson.GetBytes(raw.Body, "max_tokens")
	if !r.Exists() {
		r = gjson.GetBytes(raw.Body, "max_completion_tokens")
	}
	if r.Exists() && r.Type == gjson.Number {
		n := int(r.Int())
		rec.MaxTokens = &n
	}
	if r := gjson.GetBytes(raw.Body, "messages"); r.Exists() && r.IsArray() {
		var msgs []map[string]any
		if err := json.Unmarshal([]byte(r.Raw), &msgs); err == nil {
			rec.Messages = msgs
		}
	}

	return rec, true
}

// endpointOf strips the base URL prefix and leading slashes from a full URL.
// When the base URL is not a literal prefix, the full URL is returned as is.
func endpointOf(rawURL, baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" || !strings.HasPrefix(rawURL, base) {
		return rawURL
	}
	return strings.TrimLeft(strings.TrimPrefix(rawURL, base), "/")
}

// redactedHeaders flattens request headers into a map, dropping the
// authorization header regardless of case. Multi-valued headers are joined
// with ", ".
func redactedHeaders(headers map[string][]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, vals := range headers {
		if strings.EqualFold(k, "Authorization") {
			continue
		}
		out[k] = strings.Join(vals, ", ")
	}
	return out
}
