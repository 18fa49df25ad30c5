package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrRateLimited     = errors.New("rate limited")
	ErrUpstreamTimeout = errors.New("upstream timeout")
	ErrInternal        = errors.New("internal error")
)

// Role tags for conversation messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Profile is the fixed-shape candidate record collected during the interview.
// A field is present once non-empty and is never cleared or overwritten for
// the lifetime of the session.
type Profile struct {
	Name       string
	Email      string
	Experience string
	Position   string
	TechStack  []string
}

// Complete reports whether all five profile fields have been collected.
func (p Profile) Complete() bool {
	return p.Name != "" && p.Email != "" && p.Experience != "" &&
		p.Position != "" && len(p.TechStack) > 0
}

// PrimarySkill returns the first declared skill, or a generic placeholder
// when the tech stack has not been collected yet.
func (p Profile) PrimarySkill() string {
	if len(p.TechStack) > 0 {
		return p.TechStack[0]
	}
	return "programming"
}

// Message is one entry in a session's conversation history.
// SequenceID values are dense increasing integers starting at 1.
type Message struct {
	SequenceID int
	Role       string
	Content    string
	Stage      Stage
	CreatedAt  time.Time
}

// ConversationContext holds all mutable state of one interview session.
// It is owned exclusively by the session engine; callers receive snapshots.
type ConversationContext struct {
	SessionID      string
	Stage          Stage
	Profile        Profile
	History        []Message
	StageCounters  map[Stage]int
	AskedQuestions []string
	CreatedAt      time.Time
	LastUpdated    time.Time
}

// Clone returns a deep copy safe to hand out as a snapshot.
func (c ConversationContext) Clone() ConversationContext {
	out := c
	out.History = append([]Message(nil), c.History...)
	out.AskedQuestions = append([]string(nil), c.AskedQuestions...)
	out.StageCounters = make(map[Stage]int, len(c.StageCounters))
	for k, v := range c.StageCounters {
		out.StageCounters[k] = v
	}
	out.Profile.TechStack = append([]string(nil), c.Profile.TechStack...)
	return out
}

// Candidate is the persisted projection of a session's profile.
type Candidate struct {
	SessionID  string
	Name       string
	Email      string
	Experience string
	Position   string
	TechStack  []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Repositories (ports)

type CandidateRepository interface {
	Upsert(ctx Context, c Candidate) error
	Get(ctx Context, sessionID string) (Candidate, error)
	Count(ctx Context) (int64, error)
}

type MessageRepository interface {
	Append(ctx Context, sessionID string, m Message) error
	ListBySession(ctx Context, sessionID string) ([]Message, error)
	Count(ctx Context) (int64, error)
}

// AIClient (port)
//
// ChatText sends a system prompt plus a role-tagged message list to a hosted
// completion endpoint and returns the generated text. Any non-success outcome
// (timeout, HTTP error, empty completion) is returned as an error; callers
// decide on fallback behavior.
type AIClient interface {
	ChatText(ctx Context, systemPrompt string, messages []ChatMessage, temperature float64, maxTokens int) (string, error)
}

// ChatMessage is one entry of an LLM request's message history.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Limiter (port) gates per-session message throughput.
type Limiter interface {
	Allow(ctx Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

// Context is an alias to context.Context so the domain package stays free of
// adapter imports while usecases pass standard contexts through.
type Context = context.Context
