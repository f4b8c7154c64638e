// Package capture - tokens.go estimates prompt tokens for captured
// payloads.
//
// DESIGN: Opt-in. The tiktoken encoder is resolved once at construction;
// if the model is unknown the cl100k_base encoding is used. Counting is an
// estimate over message string content, not a billing-exact figure.
package capture

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// fallbackEncoding is used when the model has no registered encoding.
const fallbackEncoding = "cl100k_base"

// TokenCounter estimates token counts for chat messages.
type TokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTokenCounter resolves the encoding for model. Unknown models fall back
// to cl100k_base; an error is returned only when no encoder can be loaded
// at all.
func NewTokenCounter(model string) (*TokenCounter, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return nil, fmt.Errorf("failed to load token encoding: %w", err)
		}
	}
	return &TokenCounter{enc: enc}, nil
}

// CountMessages estimates tokens across the string content of messages.
// Non-string content (tool calls, structured parts) is skipped.
func (tc *TokenCounter) CountMessages(messages []map[string]any) int {
	total := 0
	for _, msg := range messages {
		if content, ok := msg["content"].(string); ok {
			total += len(tc.enc.Encode(content, nil, nil))
		}
		if role, ok := msg["role"].(string); ok {
			total += len(tc.enc.Encode(role, nil, nil))
		}
	}
	return total
}
