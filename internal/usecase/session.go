package usecase

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fairyhunter13/ai-interviewer/internal/domain"
	"github.com/fairyhunter13/ai-interviewer/internal/observability"
)

// Engine owns every ConversationContext for its process lifetime and is the
// only component that mutates them. Each turn is processed to completion
// under the session's lock before the next is accepted; sessions never share
// state, so there is no cross-session locking.
type Engine struct {
	policy     StagePolicy
	questions  *QuestionGenerator
	candidates domain.CandidateRepository // optional write-through store
	messages   domain.MessageRepository   // optional write-through store
	limiter    domain.Limiter             // optional per-session limiter
	maxLen     int
	now        func() time.Time

	mu       sync.RWMutex
	sessions map[string]*sessionEntry

	// OnStageTransition, when set, is invoked after a committed stage change.
	OnStageTransition func(from, to string)
}

type sessionEntry struct {
	mu  sync.Mutex
	ctx domain.ConversationContext
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithStores attaches the optional persistence write-through repositories.
func WithStores(c domain.CandidateRepository, m domain.MessageRepository) EngineOption {
	return func(e *Engine) { e.candidates, e.messages = c, m }
}

// WithLimiter attaches the optional per-session message limiter.
func WithLimiter(l domain.Limiter) EngineOption {
	return func(e *Engine) { e.limiter = l }
}

// WithClock overrides the engine clock, for tests.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithMaxMessageLen caps accepted user input length.
func WithMaxMessageLen(n int) EngineOption {
	return func(e *Engine) { e.maxLen = n }
}

// NewEngine constructs a session engine.
func NewEngine(policy StagePolicy, questions *QuestionGenerator, opts ...EngineOption) *Engine {
	e := &Engine{
		policy:    policy,
		questions: questions,
		maxLen:    5000,
		now:       time.Now,
		sessions:  make(map[string]*sessionEntry),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StartSession creates a new session seeded with the assistant greeting and
// returns a snapshot of its context.
func (e *Engine) StartSession(ctx domain.Context) (domain.ConversationContext, error) {
	now := e.now().UTC()
	c := domain.ConversationContext{
		SessionID:     uuid.New().String(),
		Stage:         domain.StageGreeting,
		StageCounters: make(map[domain.Stage]int),
		CreatedAt:     now,
		LastUpdated:   now,
	}
	appendMessage(&c, domain.RoleAssistant, greetingMessage, now)

	e.mu.Lock()
	e.sessions[c.SessionID] = &sessionEntry{ctx: c}
	e.mu.Unlock()

	e.persistMessages(ctx, c.SessionID, c.History)
	observability.LoggerFromContext(ctx).Info("session started", slog.String("session_id", c.SessionID))
	return c.Clone(), nil
}

// GetContext returns a snapshot of the session's context.
func (e *Engine) GetContext(_ domain.Context, sessionID string) (domain.ConversationContext, error) {
	entry, err := e.lookup(sessionID)
	if err != nil {
		return domain.ConversationContext{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.ctx.Clone(), nil
}

// SubmitMessage processes one turn: the user text is appended to history, the
// profile extractor and stage policy run, and the assistant reply is
// composed. The method never propagates generation failures; the apology
// reply is returned on unexpected internal errors with the context left
// exactly as it was before the turn.
func (e *Engine) SubmitMessage(ctx domain.Context, sessionID, text string) (string, error) {
	entry, err := e.lookup(sessionID)
	if err != nil {
		return "", err
	}

	if e.limiter != nil {
		allowed, retryAfter, lerr := e.limiter.Allow(ctx, sessionID)
		if lerr != nil {
			// A broken limiter must not stall interviews; log and continue.
			observability.LoggerFromContext(ctx).Warn("limiter unavailable", slog.Any("error", lerr))
		} else if !allowed {
			return rateLimitedReply, fmt.Errorf("op=session.submit: %w: retry after %s", domain.ErrRateLimited, retryAfter)
		}
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	// Input errors: clarifying reply, no state mutation.
	text = strings.TrimSpace(text)
	if text == "" {
		return clarifyReply, nil
	}
	if e.maxLen > 0 && len(text) > e.maxLen {
		return "", fmt.Errorf("op=session.submit: %w: message exceeds %d characters", domain.ErrInvalidArgument, e.maxLen)
	}

	// Terminal sessions accept input but never mutate.
	if entry.ctx.Stage.Terminal() {
		return completedReply, nil
	}

	// Process the turn on a deep copy; commit only on success so a failing
	// step cannot leave partial stage or profile changes behind.
	work := entry.ctx.Clone()
	prevStage := work.Stage
	prevProfile := work.Profile

	reply, perr := e.processTurn(ctx, &work, text)
	if perr != nil {
		observability.LoggerFromContext(ctx).Error("turn processing failed",
			slog.String("session_id", sessionID), slog.Any("error", perr))
		return apologyReply, nil
	}

	entry.ctx = work
	if work.Stage != prevStage && e.OnStageTransition != nil {
		e.OnStageTransition(prevStage.String(), work.Stage.String())
	}
	e.persistMessages(ctx, sessionID, work.History[len(work.History)-2:])
	if profileChanged(prevProfile, work.Profile) {
		e.persistCandidate(ctx, &work)
	}
	return reply, nil
}

// SessionCount reports the number of sessions held in memory.
func (e *Engine) SessionCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.sessions)
}

// StageCounts reports how many in-memory sessions sit in each stage.
func (e *Engine) StageCounts() map[string]int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	counts := make(map[string]int, len(e.sessions))
	for _, entry := range e.sessions {
		entry.mu.Lock()
		counts[entry.ctx.Stage.String()]++
		entry.mu.Unlock()
	}
	return counts
}

func (e *Engine) lookup(sessionID string) (*sessionEntry, error) {
	e.mu.RLock()
	entry, ok := e.sessions[sessionID]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("op=session.lookup: %w: session %s", domain.ErrNotFound, sessionID)
	}
	return entry, nil
}

// processTurn mutates work in place and returns the assistant reply. A panic
// anywhere below is converted to an error so the caller can take the apology
// path without committing.
func (e *Engine) processTurn(ctx domain.Context, work *domain.ConversationContext, text string) (reply string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("op=session.turn: %w: %v", domain.ErrInternal, rec)
		}
	}()

	now := e.now().UTC()
	appendMessage(work, domain.RoleUser, text, now)

	switch work.Stage {
	case domain.StageGreeting:
		reply = e.greetingTurn(work)
	case domain.StageInfoCollection:
		reply = e.infoTurn(ctx, work, text)
	case domain.StageTechnical:
		reply = e.assessmentTurn(ctx, work, text, domain.StageTechnical)
	case domain.StageBehavioral:
		reply = e.assessmentTurn(ctx, work, text, domain.StageBehavioral)
	case domain.StageWrapUp:
		reply = e.wrapUpTurn(work)
	default:
		reply = completedReply
	}

	appendMessage(work, domain.RoleAssistant, reply, now)
	work.LastUpdated = now
	return reply, nil
}

func (e *Engine) greetingTurn(work *domain.ConversationContext) string {
	last := work.History[len(work.History)-1].Content
	work.Profile = ExtractProfile(work.Profile, last)
	next := e.policy.Next(work.Stage, work.Profile, userExchanges(work, domain.StageGreeting))
	if next == work.Stage {
		return askNameReply
	}
	work.Stage = next
	return niceToMeetReply(work.Profile.Name)
}

func (e *Engine) infoTurn(ctx domain.Context, work *domain.ConversationContext, text string) string {
	work.Profile = ExtractProfile(work.Profile, text)
	next := e.policy.Next(work.Stage, work.Profile, userExchanges(work, domain.StageInfoCollection))
	if next == work.Stage {
		// Unparseable or partial input re-asks the same missing field; the
		// prompt is deterministic so repeated failures repeat it verbatim.
		return missingFieldPrompt(work.Profile)
	}
	work.Stage = next
	q := e.askQuestion(ctx, work, domain.StageTechnical, "")
	return profileSummary(work.Profile) + "\n\n**Technical Question 1:**\n\n" + q
}

// assessmentTurn handles both assessment stages: acknowledge the answer, then
// either ask the next question or advance when the stage's question budget is
// spent. Fallback questions count toward the budget like generated ones.
func (e *Engine) assessmentTurn(ctx domain.Context, work *domain.ConversationContext, answer string, stage domain.Stage) string {
	feedback := encouragement(answer)
	asked := work.StageCounters[stage]
	next := e.policy.Next(stage, work.Profile, asked)
	if next == stage {
		q := e.askQuestion(ctx, work, stage, answer)
		label := "Technical"
		if stage == domain.StageBehavioral {
			label = "Behavioral"
		}
		return fmt.Sprintf("%s\n\n**%s Question %d:**\n\n%s", feedback, label, work.StageCounters[stage], q)
	}

	work.Stage = next
	switch next {
	case domain.StageBehavioral:
		q := e.askQuestion(ctx, work, domain.StageBehavioral, "")
		return feedback + "\n\n" + techCompleteMessage + "\n\n**Behavioral Question 1:**\n\n" + q +
			"\n\nPlease structure your response using the **STAR method** (Situation, Task, Action, Result)."
	default: // wrap-up
		return feedback + "\n\n" + completionSummary(work, e.now().UTC())
	}
}

func profileChanged(a, b domain.Profile) bool {
	return a.Name != b.Name || a.Email != b.Email || a.Experience != b.Experience ||
		a.Position != b.Position || len(a.TechStack) != len(b.TechStack)
}

func (e *Engine) wrapUpTurn(work *domain.ConversationContext) string {
	work.Stage = e.policy.Next(domain.StageWrapUp, work.Profile, userExchanges(work, domain.StageWrapUp))
	return wrapUpClosingMessage
}

// askQuestion generates the next question for stage, records it in the
// asked-question history, and bumps the stage counter. Alternate technical
// questions probe the previous answer instead of opening a new topic.
func (e *Engine) askQuestion(ctx domain.Context, work *domain.ConversationContext, stage domain.Stage, lastAnswer string) string {
	var q GeneratedQuestion
	if stage == domain.StageTechnical && lastAnswer != "" && len(work.AskedQuestions) > 0 && work.StageCounters[stage]%2 == 1 {
		q = e.questions.FollowUp(ctx, stage, work.AskedQuestions[len(work.AskedQuestions)-1], lastAnswer)
	} else {
		q = e.questions.Generate(ctx, stage, work.Profile, work.AskedQuestions)
	}
	work.AskedQuestions = append(work.AskedQuestions, q.Text)
	work.StageCounters[stage]++
	return q.Text
}

func appendMessage(c *domain.ConversationContext, role, content string, now time.Time) {
	c.History = append(c.History, domain.Message{
		SequenceID: len(c.History) + 1,
		Role:       role,
		Content:    content,
		Stage:      c.Stage,
		CreatedAt:  now,
	})
}

// userExchanges counts user messages recorded while the session was in stage.
func userExchanges(c *domain.ConversationContext, stage domain.Stage) int {
	n := 0
	for _, m := range c.History {
		if m.Role == domain.RoleUser && m.Stage == stage {
			n++
		}
	}
	return n
}

// persistMessages writes history rows through to the optional store. Store
// failures are logged and never fail the turn.
func (e *Engine) persistMessages(ctx domain.Context, sessionID string, msgs []domain.Message) {
	if e.messages == nil {
		return
	}
	for _, m := range msgs {
		if err := e.messages.Append(ctx, sessionID, m); err != nil {
			observability.LoggerFromContext(ctx).Warn("message persist failed",
				slog.String("session_id", sessionID), slog.Int("sequence_id", m.SequenceID), slog.Any("error", err))
		}
	}
}

func (e *Engine) persistCandidate(ctx domain.Context, c *domain.ConversationContext) {
	if e.candidates == nil {
		return
	}
	cand := domain.Candidate{
		SessionID:  c.SessionID,
		Name:       c.Profile.Name,
		Email:      c.Profile.Email,
		Experience: c.Profile.Experience,
		Position:   c.Profile.Position,
		TechStack:  c.Profile.TechStack,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.LastUpdated,
	}
	if err := e.candidates.Upsert(ctx, cand); err != nil {
		observability.LoggerFromContext(ctx).Warn("candidate persist failed",
			slog.String("session_id", c.SessionID), slog.Any("error", err))
	}
}
