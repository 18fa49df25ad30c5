package httpserver

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult represents the result of validation.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

func invalid(field, code, message string) ValidationResult {
	return ValidationResult{Valid: false, Errors: []ValidationError{{Field: field, Code: code, Message: message}}}
}

// maliciousPatterns covers script injection, SQL injection, command
// substitution, and path traversal. Candidate answers legitimately contain
// punctuation like semicolons, so only unambiguous markers are listed.
var maliciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<script.*?>.*?</script>`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)on\w+\s*=`),
	regexp.MustCompile(`(?i)union\s+select`),
	regexp.MustCompile(`(?i)drop\s+table`),
	regexp.MustCompile(`(?i)insert\s+into`),
	regexp.MustCompile(`(?i)delete\s+from`),
	regexp.MustCompile(`\$\(`),
	regexp.MustCompile(`(?i)eval\s*\(`),
	regexp.MustCompile(`\.\./`),
	regexp.MustCompile(`\.\.\\`),
	regexp.MustCompile(`(?i)<iframe`),
	regexp.MustCompile(`(?i)<object`),
	regexp.MustCompile(`(?i)<embed`),
}

var (
	validSessionIDRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	gibberishRe      = regexp.MustCompile(`[a-zA-Z]{20,}[0-9]{10,}`)
	tagRe            = regexp.MustCompile(`<[^>]+>`)
	spaceRe          = regexp.MustCompile(`\s+`)
)

// ValidateSessionID validates a session id path parameter.
func ValidateSessionID(id string) ValidationResult {
	if id == "" {
		return invalid("id", "REQUIRED", "Session ID is required")
	}
	if len(id) > 100 {
		return invalid("id", "TOO_LONG", "Session ID is too long (max 100 characters)")
	}
	if !validSessionIDRe.MatchString(id) {
		return invalid("id", "INVALID_FORMAT", "Session ID contains invalid characters")
	}
	return ValidationResult{Valid: true}
}

// ValidateMessage screens a candidate message before it reaches the session
// engine. Empty input is allowed through; the engine answers it with a
// clarifying prompt rather than an error.
func ValidateMessage(text string, maxLen int) ValidationResult {
	if !utf8.ValidString(text) {
		return invalid("message", "INVALID_ENCODING", "Message is not valid UTF-8")
	}
	if maxLen > 0 && len(text) > maxLen {
		return invalid("message", "TOO_LONG", "Message exceeds the maximum length")
	}
	for _, p := range maliciousPatterns {
		if p.MatchString(text) {
			return invalid("message", "MALICIOUS_CONTENT", "Message contains disallowed content")
		}
	}
	if hasExcessiveRepetition(text, 5) {
		return invalid("message", "EXCESSIVE_REPETITION", "Message contains excessive character repetition")
	}
	if gibberishRe.MatchString(text) {
		return invalid("message", "GIBBERISH", "Message appears to be gibberish")
	}
	return ValidationResult{Valid: true}
}

// hasExcessiveRepetition reports whether any rune repeats more than limit
// times consecutively.
func hasExcessiveRepetition(text string, limit int) bool {
	var prev rune
	run := 0
	for _, r := range text {
		if r == prev {
			run++
			if run > limit {
				return true
			}
		} else {
			prev, run = r, 0
		}
	}
	return false
}

// SanitizeText strips markup and redundant whitespace from user text before
// it is echoed into prompts or stored fields. Quotes and apostrophes are kept
// so introductions like "I'm Alice" survive extraction.
func SanitizeText(text string) string {
	text = tagRe.ReplaceAllString(text, "")
	text = spaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
