// Package llm - tracked.go wires the capture layer into a client.
//
// DESIGN: Composition, not inheritance. TrackedClient owns a plain Client,
// a bounded history store, and an interceptor. The caller's http.Client is
// cloned - never mutated - and its transport is wrapped so any configured
// chain (signing, retries) stays intact, with capture firing first.
package llm

import (
	"fmt"
	"net/http"
	"time"

	"github.com/normalform/request-capture/capture"
	"github.com/normalform/request-capture/config"
	"github.com/normalform/request-capture/history"
	"github.com/normalform/request-capture/monitoring"
)

// TrackedOption customizes a TrackedClient.
type TrackedOption func(*trackedOptions)

type trackedOptions struct {
	historySize int
	logger      *monitoring.Logger
	countTokens bool
	hooks       []capture.RequestHook
}

// WithHistorySize sets the history capacity. Values below 1 fall back to
// the default (3).
func WithHistorySize(n int) TrackedOption {
	return func(o *trackedOptions) { o.historySize = n }
}

// WithLogger enables capture lifecycle logging.
func WithLogger(l *monitoring.Logger) TrackedOption {
	return func(o *trackedOptions) { o.logger = l }
}

// WithTokenCounting annotates each record with a prompt token estimate.
// The encoder is resolved once at construction (cl100k_base family).
func WithTokenCounting() TrackedOption {
	return func(o *trackedOptions) { o.countTokens = true }
}

// WithRequestHooks registers pre-send hooks that run after capture, in
// order. Existing hooks are never discarded.
func WithRequestHooks(hooks ...capture.RequestHook) TrackedOption {
	return func(o *trackedOptions) { o.hooks = append(o.hooks, hooks...) }
}

// TrackedClient is a Client that records every outgoing request payload in
// a bounded in-memory history. Recording never alters or delays requests.
type TrackedClient struct {
	*Client
	store       *history.Store
	interceptor *capture.Interceptor
}

// NewTrackedClient creates a tracked client. A caller-supplied
// cfg.HTTPClient is cloned and its transport wrapped with capture.
func NewTrackedClient(cfg Config, opts ...TrackedOption) (*TrackedClient, error) {
	o := &trackedOptions{historySize: history.DefaultSize}
	for _, opt := range opts {
		opt(o)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid client config: %w", err)
	}

	var counter *capture.TokenCounter
	if o.countTokens {
		var err error
		counter, err = capture.NewTokenCounter("gpt-4o")
		if err != nil {
			return nil, fmt.Errorf("token counting unavailable: %w", err)
		}
	}

	store := history.New(o.historySize)
	interceptor := capture.NewInterceptor(store, capture.Options{
		BaseURL:      cfg.BaseURL,
		Logger:       o.logger,
		TokenCounter: counter,
	})

	var base http.RoundTripper
	hc := &http.Client{}
	if cfg.HTTPClient != nil {
		clone := *cfg.HTTPClient
		hc = &clone
		base = cfg.HTTPClient.Transport
	}
	hc.Transport = capture.NewTransport(interceptor, base, o.hooks...)
	cfg.HTTPClient = hc

	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}

	return &TrackedClient{
		Client:      client,
		store:       store,
		interceptor: interceptor,
	}, nil
}

// NewTrackedClientFromConfig builds a tracked client from a loaded
// configuration file (see the config package).
func NewTrackedClientFromConfig(cfg *config.Config) (*TrackedClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config required")
	}

	opts := []TrackedOption{WithHistorySize(cfg.Capture.HistorySize)}
	if cfg.Capture.CountTokens {
		opts = append(opts, WithTokenCounting())
	}
	if cfg.Logging != (monitoring.LoggerConfig{}) {
		opts = append(opts, WithLogger(monitoring.New(cfg.Logging)))
	}

	return NewTrackedClient(Config{
		BaseURL: cfg.Client.BaseURL,
		APIKey:  cfg.Client.APIKey(),
		Timeout: time.Duration(cfg.Client.Timeout),
	}, opts...)
}

// History returns all captured requests, oldest first. The slice is a
// copy.
func (tc *TrackedClient) History() []capture.Record {
	return tc.store.Snapshot()
}

// LastRequest returns the most recent captured request. The second return
// value is false when no requests have been made yet.
func (tc *TrackedClient) LastRequest() (capture.Record, bool) {
	return tc.store.Last()
}

// ClearHistory removes all captured requests.
func (tc *TrackedClient) ClearHistory() {
	dropped := tc.store.Len()
	tc.store.Clear()
	tc.interceptor.NoteCleared(dropped)
}

// HistorySize returns the configured capacity.
func (tc *TrackedClient) HistorySize() int {
	return tc.store.Cap()
}

// CaptureStats returns capture counters (captured, parse failures, clears).
func (tc *TrackedClient) CaptureStats() monitoring.Stats {
	return tc.interceptor.Metrics()
}
