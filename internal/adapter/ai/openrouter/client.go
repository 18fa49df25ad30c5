// Package openrouter implements the chat client backed by the OpenRouter
// (OpenAI-compatible) completions API.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fairyhunter13/ai-interviewer/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interviewer/internal/config"
	"github.com/fairyhunter13/ai-interviewer/internal/domain"
)

// Client implements domain.AIClient against OpenRouter chat completions.
type Client struct {
	cfg config.Config
	hc  *http.Client
}

// New constructs a client using the configured chat timeout. Outbound
// requests go through an otelhttp transport so chat calls show up in traces
// alongside the repository spans.
func New(cfg config.Config) *Client {
	transport := otelhttp.NewTransport(http.DefaultTransport,
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return fmt.Sprintf("Chat %s %s", r.Method, r.URL.Host)
		}),
	)
	return &Client{
		cfg: cfg,
		hc: &http.Client{
			Timeout:   cfg.ChatTimeout,
			Transport: transport,
		},
	}
}

func (c *Client) backoffConfig() *backoff.ExponentialBackOff {
	expo := backoff.NewExponentialBackOff()
	maxElapsedTime, initialInterval, maxInterval, multiplier := c.cfg.GetAIBackoffConfig()
	expo.MaxElapsedTime = maxElapsedTime
	expo.InitialInterval = initialInterval
	expo.MaxInterval = maxInterval
	expo.Multiplier = multiplier
	return expo
}

// ChatText sends the system prompt plus conversation messages and returns the
// first choice's content. 429 and 5xx responses are retried with exponential
// backoff; 4xx responses fail immediately.
func (c *Client) ChatText(ctx domain.Context, systemPrompt string, messages []domain.ChatMessage, temperature float64, maxTokens int) (string, error) {
	if c.cfg.OpenRouterAPIKey == "" {
		return "", fmt.Errorf("op=ai.chat: %w: OPENROUTER_API_KEY missing", domain.ErrInvalidArgument)
	}

	wire := make([]map[string]string, 0, len(messages)+1)
	wire = append(wire, map[string]string{"role": "system", "content": systemPrompt})
	for _, m := range messages {
		wire = append(wire, map[string]string{"role": m.Role, "content": m.Content})
	}
	body := map[string]any{
		"model":       c.cfg.ChatModel,
		"temperature": temperature,
		"max_tokens":  maxTokens,
		"messages":    wire,
	}
	b, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("op=ai.chat: marshal request: %w", err)
	}

	var out struct {
		Model   string `json:"model"`
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	op := func() error {
		start := time.Now()
		// Recreate the request each attempt to avoid reusing consumed bodies.
		req, rerr := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.OpenRouterBaseURL+"/chat/completions", bytes.NewReader(b))
		if rerr != nil {
			return backoff.Permanent(rerr)
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.OpenRouterAPIKey)
		req.Header.Set("Content-Type", "application/json")
		if c.cfg.OpenRouterReferer != "" {
			req.Header.Set("HTTP-Referer", c.cfg.OpenRouterReferer)
		}
		if c.cfg.OpenRouterTitle != "" {
			req.Header.Set("X-Title", c.cfg.OpenRouterTitle)
		}

		resp, derr := c.hc.Do(req)
		observability.AIRequestsTotal.WithLabelValues("openrouter", "chat").Inc()
		observability.AIRequestDuration.WithLabelValues("openrouter", "chat").Observe(time.Since(start).Seconds())
		if derr != nil {
			return derr
		}
		defer func() { _ = resp.Body.Close() }()

		raw, rerr := io.ReadAll(resp.Body)
		if rerr != nil {
			return rerr
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			slog.Warn("ai provider rate limited",
				slog.String("provider", "openrouter"),
				slog.String("x_request_id", resp.Header.Get("X-Request-Id")))
			return fmt.Errorf("rate limited: 429")
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			slog.Warn("ai provider 4xx",
				slog.String("provider", "openrouter"),
				slog.Int("status", resp.StatusCode),
				slog.String("model", c.cfg.ChatModel),
				slog.String("body", snippet(raw, 512)))
			return backoff.Permanent(fmt.Errorf("chat status %d", resp.StatusCode))
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			slog.Error("ai provider non-2xx",
				slog.String("provider", "openrouter"),
				slog.Int("status", resp.StatusCode),
				slog.String("model", c.cfg.ChatModel),
				slog.String("body", snippet(raw, 512)))
			return fmt.Errorf("chat status %d", resp.StatusCode)
		}

		if uerr := json.Unmarshal(raw, &out); uerr != nil {
			slog.Error("ai provider decode error",
				slog.String("provider", "openrouter"), slog.Any("error", uerr))
			return uerr
		}
		return nil
	}

	bo := backoff.WithContext(c.backoffConfig(), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return "", fmt.Errorf("op=ai.chat: %w: %v", domain.ErrUpstreamTimeout, err)
		}
		return "", fmt.Errorf("op=ai.chat: openrouter api failed: %w", err)
	}

	if len(out.Choices) == 0 {
		return "", fmt.Errorf("op=ai.chat: empty choices from openrouter")
	}
	if out.Model != "" && out.Model != c.cfg.ChatModel {
		slog.Warn("model substitution detected",
			slog.String("requested_model", c.cfg.ChatModel),
			slog.String("actual_model", out.Model))
	}
	return out.Choices[0].Message.Content, nil
}

func snippet(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
