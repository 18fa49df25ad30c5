// Package stub provides a fast, deterministic AI client for local runs
// without an OpenRouter key.
package stub

import (
	"strings"
	"sync/atomic"
	"time"

	"github.com/fairyhunter13/ai-interviewer/internal/domain"
)

// Client cycles through a small bank of canned questions, keyed off the
// prompt so technical and behavioral stages get fitting material.
type Client struct {
	counter atomic.Int64
}

// New constructs a stub client.
func New() *Client { return &Client{} }

var technicalBank = []string{
	"How would you design a rate limiter for a public API, and what trade-offs would you weigh?",
	"Walk me through debugging a service whose p99 latency doubled overnight.",
	"When would you choose a message queue over a synchronous call between services?",
	"Describe how you would paginate a large, frequently updated dataset.",
}

var behavioralBank = []string{
	"Tell me about a time you had to deliver a project under a tight deadline. What did you prioritize?",
	"Describe a situation where you disagreed with a technical decision. How did you handle it?",
	"Give an example of a time you helped a struggling teammate.",
}

// ChatText answers deterministically with a tiny latency to resemble real work.
func (c *Client) ChatText(_ domain.Context, systemPrompt string, _ []domain.ChatMessage, _ float64, _ int) (string, error) {
	time.Sleep(50 * time.Millisecond)
	n := c.counter.Add(1)
	lower := strings.ToLower(systemPrompt)
	switch {
	case strings.Contains(lower, "follow-up"):
		return "Interesting. What would you change about that approach if the load grew tenfold?", nil
	case strings.Contains(lower, "behavioral"):
		return behavioralBank[int(n)%len(behavioralBank)], nil
	default:
		return technicalBank[int(n)%len(technicalBank)], nil
	}
}
