package domain

import (
	"testing"
	"time"
)

func TestProfile_Complete(t *testing.T) {
	p := Profile{}
	if p.Complete() {
		t.Fatalf("empty profile reported complete")
	}
	p = Profile{Name: "Alice", Email: "a@b.co", Experience: "5 years", Position: "Engineer"}
	if p.Complete() {
		t.Fatalf("profile without tech stack reported complete")
	}
	p.TechStack = []string{"Go"}
	if !p.Complete() {
		t.Fatalf("full profile reported incomplete")
	}
}

func TestProfile_PrimarySkill(t *testing.T) {
	if got := (Profile{}).PrimarySkill(); got != "programming" {
		t.Errorf("expected placeholder skill, got %q", got)
	}
	p := Profile{TechStack: []string{"Python", "React"}}
	if got := p.PrimarySkill(); got != "Python" {
		t.Errorf("expected Python, got %q", got)
	}
}

func TestConversationContext_Clone(t *testing.T) {
	c := ConversationContext{
		SessionID:      "s1",
		Stage:          StageInfoCollection,
		Profile:        Profile{Name: "Bob", TechStack: []string{"Go"}},
		History:        []Message{{SequenceID: 1, Role: RoleAssistant, Content: "hi", CreatedAt: time.Now()}},
		StageCounters:  map[Stage]int{StageTechnical: 2},
		AskedQuestions: []string{"q1"},
	}
	cp := c.Clone()
	cp.History[0].Content = "changed"
	cp.StageCounters[StageTechnical] = 9
	cp.AskedQuestions[0] = "other"
	cp.Profile.TechStack[0] = "Rust"
	if c.History[0].Content != "hi" {
		t.Errorf("clone shares history backing array")
	}
	if c.StageCounters[StageTechnical] != 2 {
		t.Errorf("clone shares counters map")
	}
	if c.AskedQuestions[0] != "q1" {
		t.Errorf("clone shares asked questions")
	}
	if c.Profile.TechStack[0] != "Go" {
		t.Errorf("clone shares tech stack")
	}
}

func TestStage_Order(t *testing.T) {
	order := []Stage{StageGreeting, StageInfoCollection, StageTechnical, StageBehavioral, StageWrapUp, StageCompleted}
	for i := 0; i < len(order)-1; i++ {
		if order[i].Next() != order[i+1] {
			t.Errorf("stage %v next = %v, want %v", order[i], order[i].Next(), order[i+1])
		}
		if order[i] >= order[i+1] {
			t.Errorf("stage order violated at %v", order[i])
		}
	}
	if StageCompleted.Next() != StageCompleted {
		t.Errorf("completed must be terminal")
	}
	if !StageCompleted.Terminal() || StageWrapUp.Terminal() {
		t.Errorf("terminal flags wrong")
	}
}

func TestParseStage_Roundtrip(t *testing.T) {
	for _, s := range []Stage{StageGreeting, StageInfoCollection, StageTechnical, StageBehavioral, StageWrapUp, StageCompleted} {
		got, ok := ParseStage(s.String())
		if !ok || got != s {
			t.Errorf("roundtrip failed for %v: got %v ok=%v", s, got, ok)
		}
	}
	if _, ok := ParseStage("bogus"); ok {
		t.Errorf("parsed bogus stage")
	}
}
