// Package capture - transport.go inserts the interceptor into an HTTP
// transport chain.
//
// DESIGN: Transport wraps any http.RoundTripper. Capture happens first,
// then caller-registered hooks, then the base transport. Wrapping instead
// of replacing means an already-configured chain (signing transports,
// retries, recorders) keeps working untouched.
package capture

import "net/http"

// Transport is an http.RoundTripper that captures every outgoing request
// before delegating to the base transport.
type Transport struct {
	interceptor *Interceptor
	base        http.RoundTripper
	hooks       []RequestHook
}

// NewTransport wraps base with capture. A nil base uses
// http.DefaultTransport. Extra hooks run after capture, in order.
func NewTransport(interceptor *Interceptor, base http.RoundTripper, hooks ...RequestHook) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{
		interceptor: interceptor,
		base:        base,
		hooks:       hooks,
	}
}

// RoundTrip implements http.RoundTripper. Capture errors are swallowed; the
// request always reaches the base transport.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.interceptor.Observe(req, readBody(req))
	for _, hook := range t.hooks {
		hook(req)
	}
	return t.base.RoundTrip(req)
}

var _ http.RoundTripper = (*Transport)(nil)
