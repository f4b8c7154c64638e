// Package capture - interceptor.go observes outgoing requests and appends
// one record per request to a history sink.
package capture

import (
	"bytes"
	"io"
	"net/http"

	"github.com/normalform/request-capture/monitoring"
)

// maxBodyBytes bounds how much of a request payload is read for capture,
// preventing OOM on unexpectedly large payloads (10MB).
const maxBodyBytes = 10 * 1024 * 1024

// Sink receives captured records. Implemented by history.Store.
type Sink interface {
	Append(Record)
}

// RequestHook is a pre-send callback on the outgoing request. Hooks
// registered by the caller run after capture, in registration order.
type RequestHook func(*http.Request)

// Options configures an Interceptor.
type Options struct {
	// BaseURL is stripped from captured URLs to derive the endpoint.
	BaseURL string

	// Logger receives capture lifecycle events. Nil disables logging.
	Logger *monitoring.Logger

	// TokenCounter, when set, annotates records with a prompt token
	// estimate.
	TokenCounter *TokenCounter
}

// Interceptor builds a record for every outgoing request and appends it to
// the sink. It holds no request state and is safe for concurrent use as
// long as the sink is.
type Interceptor struct {
	sink    Sink
	baseURL string
	logger  *monitoring.CaptureLogger
	metrics *monitoring.CaptureMetrics
	tokens  *TokenCounter
}

// NewInterceptor creates an interceptor appending to sink.
func NewInterceptor(sink Sink, opts Options) *Interceptor {
	return &Interceptor{
		sink:    sink,
		baseURL: opts.BaseURL,
		logger:  monitoring.NewCaptureLogger(opts.Logger),
		metrics: monitoring.NewCaptureMetrics(),
		tokens:  opts.TokenCounter,
	}
}

// Capture observes req as a plain pre-send hook, for callers that manage
// their own transport chain. The request body is restored after reading, so
// the request proceeds unmodified. Capture never fails.
func (i *Interceptor) Capture(req *http.Request) {
	i.Observe(req, readBody(req))
}

// Observe builds a record from req with the already-extracted payload and
// appends it to the sink. Exactly one append per call.
func (i *Interceptor) Observe(req *http.Request, body []byte) {
	raw := RawRequest{
		Method:  req.Method,
		URL:     req.URL.String(),
		Body:    body,
		Headers: req.Header,
	}

	rec, parsed := buildRecord(raw, i.baseURL)
	if i.tokens != nil && rec.Messages != nil {
		n := i.tokens.CountMessages(rec.Messages)
		rec.TokenEstimate = &n
	}

	i.sink.Append(rec)
	i.metrics.RecordCapture(parsed)

	if !parsed {
		i.logger.LogParseFailure(rec.ID, rec.Endpoint, len(body))
		return
	}
	model := ""
	if rec.Model != nil {
		model = *rec.Model
	}
	i.logger.LogCaptured(&monitoring.CapturedInfo{
		RecordID: rec.ID,
		Method:   rec.Method,
		Endpoint: rec.Endpoint,
		Model:    model,
		BodySize: len(body),
	})
}

// NoteCleared records a history clear in the metrics and log.
func (i *Interceptor) NoteCleared(dropped int) {
	i.metrics.RecordClear()
	i.logger.LogCleared(dropped)
}

// Metrics returns a snapshot of the capture counters.
func (i *Interceptor) Metrics() monitoring.Stats {
	return i.metrics.Snapshot()
}

// readBody extracts the request payload without consuming it. GetBody is
// preferred; otherwise the body is drained and replaced. Any read error
// results in an empty payload, never a failed request.
func readBody(req *http.Request) []byte {
	if req.GetBody != nil {
		rc, err := req.GetBody()
		if err != nil {
			return nil
		}
		defer rc.Close()
		data, err := io.ReadAll(io.LimitReader(rc, maxBodyBytes))
		if err != nil {
			return nil
		}
		return data
	}

	if req.Body == nil || req.Body == http.NoBody {
		return nil
	}
	data, err := io.ReadAll(io.LimitReader(req.Body, maxBodyBytes))
	req.Body.Close()
	if err != nil {
		req.Body = io.NopCloser(bytes.NewReader(nil))
		return nil
	}
	req.Body = io.NopCloser(bytes.NewReader(data))
	return data
}
