package capture_test

// Token Counter Tests - Estimate Annotation
//
// Encoder data is fetched on first load, so counter construction is skipped
// when it cannot be resolved (offline environments). The nil-counter path
// runs unconditionally.

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/normalform/request-capture/capture"
	"github.com/normalform/request-capture/history"
)

func newTestCounter(t *testing.T, model string) *capture.TokenCounter {
	t.Helper()
	counter, err := capture.NewTokenCounter(model)
	if err != nil {
		t.Skipf("token encoding unavailable: %v", err)
	}
	return counter
}

// TestTokenCounter_CountMessages verifies the estimate includes role and
// content strings and grows with the conversation.
func TestTokenCounter_CountMessages(t *testing.T) {
	counter := newTestCounter(t, "gpt-4o")

	one := counter.CountMessages([]map[string]any{
		{"role": "user", "content": "Say hello"},
	})
	assert.Greater(t, one, 0)

	two := counter.CountMessages([]map[string]any{
		{"role": "user", "content": "Say hello"},
		{"role": "assistant", "content": "Hello! How can I help you today?"},
	})
	assert.Greater(t, two, one)

	assert.Equal(t, 0, counter.CountMessages(nil))
}

// TestTokenCounter_SkipsStructuredContent verifies non-string content
// (multi-part messages, tool calls) is skipped rather than counted or
// failed on.
func TestTokenCounter_SkipsStructuredContent(t *testing.T) {
	counter := newTestCounter(t, "gpt-4o")

	structured := counter.CountMessages([]map[string]any{
		{"role": "user", "content": []any{map[string]any{"type": "image_url"}}},
	})
	roleOnly := counter.CountMessages([]map[string]any{
		{"role": "user"},
	})
	assert.Equal(t, roleOnly, structured)
}

// TestTokenCounter_UnknownModelFallsBack verifies an unregistered model
// still yields a working counter.
func TestTokenCounter_UnknownModelFallsBack(t *testing.T) {
	counter := newTestCounter(t, "some-private-model")

	assert.Greater(t, counter.CountMessages([]map[string]any{
		{"role": "user", "content": "Say hello"},
	}), 0)
}

// TestInterceptor_TokenEstimate verifies the record annotation is set only
// when a counter is configured.
func TestInterceptor_TokenEstimate(t *testing.T) {
	body := `{"model":"gpt-4o","messages":[{"role":"user","content":"Say hello"}]}`
	newReq := func(t *testing.T) *http.Request {
		req, err := http.NewRequest(http.MethodPost, baseURL+"/chat/completions", strings.NewReader(body))
		require.NoError(t, err)
		return req
	}

	t.Run("without_counter", func(t *testing.T) {
		store := history.New(3)
		capture.NewInterceptor(store, capture.Options{BaseURL: baseURL}).Capture(newReq(t))

		rec, ok := store.Last()
		require.True(t, ok)
		assert.Nil(t, rec.TokenEstimate)
	})

	t.Run("with_counter", func(t *testing.T) {
		counter := newTestCounter(t, "gpt-4o")
		store := history.New(3)
		capture.NewInterceptor(store, capture.Options{BaseURL: baseURL, TokenCounter: counter}).Capture(newReq(t))

		rec, ok := store.Last()
		require.True(t, ok)
		require.NotNil(t, rec.TokenEstimate)
		assert.Greater(t, *rec.TokenEstimate, 0)
	})
}
