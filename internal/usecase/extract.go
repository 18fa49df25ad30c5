package usecase

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/fairyhunter13/ai-interviewer/internal/domain"
)

// Profile extraction applies ordered per-field heuristics to a raw user
// utterance. Fields are targeted in the fixed order name, email, experience,
// position, tech stack; exactly one still-missing field is attempted per
// turn. Extraction never fails: unparseable input is stored best-effort for
// the targeted field, except email which requires an @ marker.

var (
	namePatternRe = regexp.MustCompile(`(?i)\b(?:my name is|i am|i'm|this is|call me)\s+([a-zA-Z][a-zA-Z .'-]*)`)
	emailRe       = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	numericRe     = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
	fresherRe     = regexp.MustCompile(`(?i)\b(fresher|fresh graduate|entry[ -]?level|no experience|student|intern)\b`)
	techSplitRe   = regexp.MustCompile(`[,;|\n]+`)
)

// maxTechSkills caps the parsed stack; anything beyond is dropped.
const maxTechSkills = 10

// ExtractProfile returns a copy of p with at most one additional field
// filled from raw. Fields already present are never modified.
func ExtractProfile(p domain.Profile, raw string) domain.Profile {
	text := strings.TrimSpace(raw)
	if text == "" {
		return p
	}
	switch {
	case p.Name == "":
		p.Name = extractName(text)
	case p.Email == "":
		p.Email = extractEmail(text)
	case p.Experience == "":
		p.Experience = normalizeExperience(text)
	case p.Position == "":
		p.Position = titleCase(text)
	case len(p.TechStack) == 0:
		p.TechStack = ParseTechStack(text)
	}
	return p
}

// extractName prefers an introduction phrase ("my name is X") and falls back
// to a title-cased copy of the whole input.
func extractName(text string) string {
	if m := namePatternRe.FindStringSubmatch(text); m != nil {
		return titleCase(strings.TrimSpace(m[1]))
	}
	return titleCase(text)
}

// extractEmail accepts the input only when it carries an email-shaped token;
// anything else leaves the field missing so the same prompt repeats.
func extractEmail(text string) string {
	if !strings.Contains(text, "@") {
		return ""
	}
	return emailRe.FindString(text)
}

func normalizeExperience(text string) string {
	if numericRe.MatchString(text) {
		n := text
		if f, err := strconv.ParseFloat(text, 64); err == nil && f == float64(int(f)) {
			n = strconv.Itoa(int(f))
		}
		if n == "1" {
			return "1 year"
		}
		return n + " years"
	}
	lower := strings.ToLower(text)
	if strings.Contains(lower, "year") || strings.Contains(lower, "yr") {
		return text
	}
	if fresherRe.MatchString(text) {
		return "Fresher"
	}
	return text
}

// ParseTechStack splits a free-form skill list on common separators, trims
// and title-cases each token, and caps the result. A separator-free input
// yields a single-entry stack.
func ParseTechStack(text string) []string {
	parts := techSplitRe.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		skill := strings.TrimSpace(part)
		if len(skill) < 2 {
			continue
		}
		out = append(out, titleCase(skill))
		if len(out) == maxTechSkills {
			break
		}
	}
	if len(out) == 0 {
		if s := strings.TrimSpace(text); s != "" {
			out = append(out, titleCase(s))
		}
	}
	return out
}

// titleCase upper-cases the first letter of each space-separated word and
// lower-cases the rest, matching the normalization the profile stores.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		for j, r := range runes {
			if unicode.IsLetter(r) {
				runes[j] = unicode.ToUpper(r)
				break
			}
		}
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
