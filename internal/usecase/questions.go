package usecase

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/fairyhunter13/ai-interviewer/internal/adapter/ai/tokencount"
	"github.com/fairyhunter13/ai-interviewer/internal/domain"
)

// GeneratedQuestion is the question generator's result. Success is false when
// the canned fallback was substituted; Err then carries the cause for
// observability. Text is never empty.
type GeneratedQuestion struct {
	Text    string
	Success bool
	Err     error
}

// QuestionGenerator builds stage-specific prompts and delegates to the AI
// client, substituting a canned per-stage fallback on any failure so the
// conversation never stalls for lack of a question.
type QuestionGenerator struct {
	AI          domain.AIClient
	Model       string
	Temperature float64
	MaxTokens   int
	TokenBudget int
	Fallbacks   map[string]string
	Counter     *tokencount.Counter

	// OnFallback, when set, is invoked with the stage name whenever a canned
	// question is substituted.
	OnFallback func(stage string)
}

// recentQuestionWindow is how many previously asked questions the prompt
// carries for repetition avoidance.
const recentQuestionWindow = 3

// Generate produces the next question for the stage. The returned question is
// appended to nothing here; callers record it in the asked-question history
// regardless of Success so fallbacks also count toward repetition context.
func (g *QuestionGenerator) Generate(ctx domain.Context, stage domain.Stage, profile domain.Profile, asked []string) GeneratedQuestion {
	system := g.buildSystemPrompt(stage, profile, asked)
	user := fmt.Sprintf("Create a %s interview question for a %s candidate with %s experience in %s.",
		stage, valueOr(profile.Position, "Software Developer"), valueOr(profile.Experience, "some"),
		strings.Join(profile.TechStack, ", "))

	text, err := g.AI.ChatText(ctx, system, []domain.ChatMessage{{Role: domain.RoleUser, Content: user}}, g.Temperature, g.MaxTokens)
	if err != nil || strings.TrimSpace(text) == "" {
		if err == nil {
			err = fmt.Errorf("op=questions.generate: %w: empty completion", domain.ErrInternal)
		}
		return g.fallback(stage, err)
	}
	return GeneratedQuestion{Text: strings.TrimSpace(text), Success: true}
}

// FollowUp builds one probing follow-up to the candidate's previous answer.
// A canned probe is substituted on failure and counted as a fallback for the
// stage.
func (g *QuestionGenerator) FollowUp(ctx domain.Context, stage domain.Stage, originalQuestion, answer string) GeneratedQuestion {
	system := "You are an expert interviewer. Generate ONE insightful follow-up question that:\n" +
		"1. Builds directly on the candidate's previous response\n" +
		"2. Digs deeper into their technical understanding or experience\n" +
		"3. Reveals their problem-solving approach\n" +
		"Keep the follow-up natural and engaging. Respond with the question only."
	user := fmt.Sprintf("ORIGINAL QUESTION: %s\n\nCANDIDATE'S ANSWER: %s\n\nGenerate a targeted follow-up question that explores their response deeper:",
		originalQuestion, g.truncateToBudget(answer))

	text, err := g.AI.ChatText(ctx, system, []domain.ChatMessage{{Role: domain.RoleUser, Content: user}}, 0.7, g.MaxTokens/2)
	if err != nil || strings.TrimSpace(text) == "" {
		if err == nil {
			err = fmt.Errorf("op=questions.followup: %w: empty completion", domain.ErrInternal)
		}
		slog.Warn("follow-up generation failed, using canned probe",
			slog.String("stage", stage.String()), slog.Any("error", err))
		if g.OnFallback != nil {
			g.OnFallback(stage.String())
		}
		return GeneratedQuestion{
			Text:    "Can you elaborate on that approach and walk me through your thought process?",
			Success: false,
			Err:     err,
		}
	}
	return GeneratedQuestion{Text: strings.TrimSpace(text), Success: true}
}

// Fallback returns the canned question for the stage. Every question-asking
// stage has an entry; unknown stages get a generic prompt.
func (g *QuestionGenerator) Fallback(stage domain.Stage) string {
	if q, ok := g.Fallbacks[stage.String()]; ok && q != "" {
		return q
	}
	return "Tell me about a project you're proud of."
}

func (g *QuestionGenerator) fallback(stage domain.Stage, cause error) GeneratedQuestion {
	slog.Warn("question generation failed, substituting fallback",
		slog.String("stage", stage.String()), slog.Any("error", cause))
	if g.OnFallback != nil {
		g.OnFallback(stage.String())
	}
	return GeneratedQuestion{Text: g.Fallback(stage), Success: false, Err: cause}
}

func (g *QuestionGenerator) buildSystemPrompt(stage domain.Stage, profile domain.Profile, asked []string) string {
	position := valueOr(profile.Position, "Software Developer")
	experience := valueOr(profile.Experience, "3-5 years")
	skills := strings.Join(profile.TechStack, ", ")
	if skills == "" {
		skills = profile.PrimarySkill()
	}
	recent := asked
	if len(recent) > recentQuestionWindow {
		recent = recent[len(recent)-recentQuestionWindow:]
	}
	recentBlock := "None"
	if len(recent) > 0 {
		recentBlock = "- " + strings.Join(recent, "\n- ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert interviewer conducting a %s interview for a %s position.\n\n", stage, position)
	fmt.Fprintf(&b, "CANDIDATE PROFILE:\n- Position: %s\n- Experience: %s\n- Skills: %s\n- Questions already asked: %d\n\n",
		position, experience, skills, len(asked))
	b.WriteString("RULES:\n")
	b.WriteString("1. Create ONE unique, challenging question\n")
	b.WriteString("2. Make it specific to the role and experience level\n")
	b.WriteString("3. Focus on practical, real-world scenarios\n")
	fmt.Fprintf(&b, "4. Do not repeat or closely resemble these recent questions:\n%s\n", recentBlock)
	switch stage {
	case domain.StageTechnical:
		b.WriteString("\nAsk about coding, system design, architecture, or debugging scenarios.\n")
	case domain.StageBehavioral:
		b.WriteString("\nAsk a STAR-method situation about teamwork, leadership, or conflict resolution.\n")
	}
	fmt.Fprintf(&b, "\nGenerate ONE exceptional %s question now. Respond with the question only.", stage)
	return b.String()
}

// truncateToBudget trims text so the prompt stays within the token budget.
// Older content is dropped from the front since the tail is most relevant.
func (g *QuestionGenerator) truncateToBudget(text string) string {
	if g.TokenBudget <= 0 {
		return text
	}
	counter := g.Counter
	if counter == nil {
		counter = tokencount.DefaultCounter
	}
	for counter.CountTokens(g.Model, text) > g.TokenBudget {
		runes := []rune(text)
		if len(runes) < 200 {
			break
		}
		text = string(runes[len(runes)/4:])
	}
	return text
}

func valueOr(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
