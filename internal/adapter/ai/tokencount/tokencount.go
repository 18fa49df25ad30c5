// Package tokencount provides token counting for LLM prompts.
//
// It uses tiktoken-go, a Go port of OpenAI's tiktoken library, so that the
// question generator can keep prompts inside a fixed token budget instead of
// guessing by character length.
package tokencount

import (
	"strings"
	"sync"

	"log/slog"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// Counter provides thread-safe token counting.
type Counter struct {
	encodingCache map[string]*tiktoken.Tiktoken
	mu            sync.RWMutex
}

// NewCounter creates a new token counter instance.
func NewCounter() *Counter {
	return &Counter{encodingCache: make(map[string]*tiktoken.Tiktoken)}
}

// DefaultCounter is a global token counter instance.
var DefaultCounter = NewCounter()

func (c *Counter) encodingForModel(model string) (*tiktoken.Tiktoken, error) {
	name := normalizeModelName(model)

	c.mu.RLock()
	if enc, ok := c.encodingCache[name]; ok {
		c.mu.RUnlock()
		return enc, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if enc, ok := c.encodingCache[name]; ok {
		return enc, nil
	}
	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, err
	}
	c.encodingCache[name] = enc
	return enc, nil
}

// CountTokens returns the token count of text for the given model. When the
// encoding cannot be loaded it falls back to a conservative 4-characters-per-
// token estimate rather than failing the caller.
func (c *Counter) CountTokens(model, text string) int {
	if text == "" {
		return 0
	}
	enc, err := c.encodingForModel(model)
	if err != nil {
		slog.Debug("token encoding unavailable, estimating",
			slog.String("model", model), slog.Any("error", err))
		return (len(text) + 3) / 4
	}
	return len(enc.Encode(text, nil, nil))
}

// normalizeModelName maps provider-prefixed model ids to a tiktoken encoding
// name. Non-OpenAI chat models are close enough to cl100k_base for budgeting.
func normalizeModelName(model string) string {
	m := strings.ToLower(model)
	if strings.Contains(m, "gpt-4o") || strings.Contains(m, "o1") {
		return "o200k_base"
	}
	return "cl100k_base"
}
