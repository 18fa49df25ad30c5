package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-interviewer/internal/domain"
)

// scriptedAI returns its configured reply or error and records the last call.
type scriptedAI struct {
	reply string
	err   error

	calls      int
	lastSystem string
	lastUser   string
	lastTemp   float64
	lastMax    int
}

func (s *scriptedAI) ChatText(_ domain.Context, system string, msgs []domain.ChatMessage, temperature float64, maxTokens int) (string, error) {
	s.calls++
	s.lastSystem = system
	if len(msgs) > 0 {
		s.lastUser = msgs[len(msgs)-1].Content
	}
	s.lastTemp = temperature
	s.lastMax = maxTokens
	return s.reply, s.err
}

func testFallbacks() map[string]string {
	return map[string]string{
		"technical_assessment":  "Describe a system you designed end to end.",
		"behavioral_assessment": "Tell me about a time you disagreed with a teammate.",
	}
}

func TestGenerateSuccess(t *testing.T) {
	t.Parallel()
	ai := &scriptedAI{reply: "  What does a goroutine leak look like?  "}
	g := &QuestionGenerator{AI: ai, Model: "test", Temperature: 0.8, MaxTokens: 600, Fallbacks: testFallbacks()}

	q := g.Generate(context.Background(), domain.StageTechnical, fullProfile(), nil)
	require.True(t, q.Success)
	assert.NoError(t, q.Err)
	assert.Equal(t, "What does a goroutine leak look like?", q.Text)
	assert.Equal(t, 0.8, ai.lastTemp)
	assert.Equal(t, 600, ai.lastMax)
	assert.Contains(t, ai.lastSystem, "Software Engineer")
}

func TestGenerateSubstitutesFallbackOnError(t *testing.T) {
	t.Parallel()
	boom := errors.New("upstream down")
	ai := &scriptedAI{err: boom}
	var fellBack string
	g := &QuestionGenerator{
		AI: ai, Fallbacks: testFallbacks(),
		OnFallback: func(stage string) { fellBack = stage },
	}

	q := g.Generate(context.Background(), domain.StageTechnical, fullProfile(), nil)
	require.False(t, q.Success)
	assert.Equal(t, "Describe a system you designed end to end.", q.Text)
	assert.ErrorIs(t, q.Err, boom)
	assert.Equal(t, "technical_assessment", fellBack)
}

func TestGenerateSubstitutesFallbackOnEmptyCompletion(t *testing.T) {
	t.Parallel()
	ai := &scriptedAI{reply: "   \n"}
	g := &QuestionGenerator{AI: ai, Fallbacks: testFallbacks()}

	q := g.Generate(context.Background(), domain.StageBehavioral, fullProfile(), nil)
	require.False(t, q.Success)
	assert.Equal(t, "Tell me about a time you disagreed with a teammate.", q.Text)
	assert.NotEmpty(t, q.Text)
}

func TestGeneratePromptCarriesRecentQuestionsOnly(t *testing.T) {
	t.Parallel()
	ai := &scriptedAI{reply: "Next question?"}
	g := &QuestionGenerator{AI: ai, Fallbacks: testFallbacks()}

	asked := []string{"q-one", "q-two", "q-three", "q-four", "q-five"}
	g.Generate(context.Background(), domain.StageTechnical, fullProfile(), asked)

	assert.NotContains(t, ai.lastSystem, "q-one")
	assert.NotContains(t, ai.lastSystem, "q-two")
	for _, q := range asked[len(asked)-recentQuestionWindow:] {
		assert.Contains(t, ai.lastSystem, q)
	}
	assert.Contains(t, ai.lastSystem, "Questions already asked: 5")
}

func TestGeneratePromptDefaultsForSparseProfile(t *testing.T) {
	t.Parallel()
	ai := &scriptedAI{reply: "Q?"}
	g := &QuestionGenerator{AI: ai, Fallbacks: testFallbacks()}

	g.Generate(context.Background(), domain.StageTechnical, domain.Profile{}, nil)
	assert.Contains(t, ai.lastSystem, "Software Developer")
	assert.Contains(t, ai.lastSystem, "None")
}

func TestFollowUp(t *testing.T) {
	t.Parallel()
	ai := &scriptedAI{reply: "How would that scale to ten million rows?"}
	g := &QuestionGenerator{AI: ai, MaxTokens: 600}

	q := g.FollowUp(context.Background(), domain.StageTechnical, "Describe your schema.", "We used a single table.")
	require.True(t, q.Success)
	assert.Equal(t, "How would that scale to ten million rows?", q.Text)
	assert.Equal(t, 0.7, ai.lastTemp)
	assert.Equal(t, 300, ai.lastMax)
	assert.Contains(t, ai.lastUser, "We used a single table.")
}

func TestFollowUpCannedProbeOnFailure(t *testing.T) {
	t.Parallel()
	ai := &scriptedAI{err: errors.New("timeout")}
	var fallbackStage string
	g := &QuestionGenerator{AI: ai, MaxTokens: 600, OnFallback: func(stage string) { fallbackStage = stage }}

	q := g.FollowUp(context.Background(), domain.StageTechnical, "Q", "A")
	require.False(t, q.Success)
	assert.True(t, strings.Contains(q.Text, "elaborate"))
	assert.Equal(t, "technical_assessment", fallbackStage)
}

func TestFallbackUnknownStage(t *testing.T) {
	t.Parallel()
	g := &QuestionGenerator{Fallbacks: map[string]string{}}
	assert.Equal(t, "Tell me about a project you're proud of.", g.Fallback(domain.StageTechnical))
}

func TestTruncateToBudgetDropsOldestContent(t *testing.T) {
	t.Parallel()
	g := &QuestionGenerator{Model: "gpt-4o", TokenBudget: 50}

	head := strings.Repeat("old ", 300)
	tail := "the part that matters"
	got := g.truncateToBudget(head + tail)
	assert.True(t, strings.HasSuffix(got, tail))
	assert.Less(t, len(got), len(head+tail))
}
