package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fairyhunter13/ai-interviewer/internal/domain"
)

func TestExtractProfileFillsOneFieldPerTurn(t *testing.T) {
	t.Parallel()
	p := ExtractProfile(domain.Profile{}, "my name is alice smith, alice@example.com, 5 years")
	assert.Equal(t, "Alice Smith", p.Name)
	assert.Empty(t, p.Email, "only the first missing field is targeted per turn")

	p = ExtractProfile(p, "alice@example.com")
	assert.Equal(t, "alice@example.com", p.Email)
	assert.Empty(t, p.Experience)
}

func TestExtractName(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		want string
	}{
		{"my name is alice", "Alice"},
		{"I'm Bob Jones", "Bob Jones"},
		{"call me maria", "Maria"},
		{"charlie", "Charlie"},
		{"JOHN DOE", "John Doe"},
	}
	for _, tc := range cases {
		p := ExtractProfile(domain.Profile{}, tc.in)
		assert.Equal(t, tc.want, p.Name, "input %q", tc.in)
	}
}

func TestExtractEmailRequiresValidShape(t *testing.T) {
	t.Parallel()
	base := domain.Profile{Name: "Alice"}

	p := ExtractProfile(base, "you can reach me at alice@example.com anytime")
	assert.Equal(t, "alice@example.com", p.Email)

	p = ExtractProfile(base, "i do not have one")
	assert.Empty(t, p.Email, "no @ marker leaves the field missing")

	p = ExtractProfile(base, "alice@nodot")
	assert.Empty(t, p.Email, "malformed address leaves the field missing")
}

func TestNormalizeExperience(t *testing.T) {
	t.Parallel()
	base := domain.Profile{Name: "Alice", Email: "a@b.co"}
	cases := []struct {
		in   string
		want string
	}{
		{"5", "5 years"},
		{"1", "1 year"},
		{"2.0", "2 years"},
		{"3 years", "3 years"},
		{"about 4 yrs", "about 4 yrs"},
		{"I'm a fresher", "Fresher"},
		{"fresh graduate", "Fresher"},
		{"plenty", "plenty"},
	}
	for _, tc := range cases {
		p := ExtractProfile(base, tc.in)
		assert.Equal(t, tc.want, p.Experience, "input %q", tc.in)
	}
}

func TestParseTechStack(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"Python", "React", "Aws"}, ParseTechStack("python, react, aws"))
	assert.Equal(t, []string{"Go", "Postgresql"}, ParseTechStack("go; postgresql"))
	assert.Equal(t, []string{"Kubernetes"}, ParseTechStack("  kubernetes  "))

	long := "a1, a2, a3, a4, a5, a6, a7, a8, a9, b1, b2, b3"
	assert.Len(t, ParseTechStack(long), maxTechSkills)

	// Single-character tokens are noise and dropped.
	assert.Equal(t, []string{"Go"}, ParseTechStack("c, go"))
}

func TestExtractProfileIgnoresBlankInput(t *testing.T) {
	t.Parallel()
	p := domain.Profile{Name: "Alice"}
	assert.Equal(t, p, ExtractProfile(p, "   "))
}
