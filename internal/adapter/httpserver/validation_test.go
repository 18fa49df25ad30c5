package httpserver

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSessionID(t *testing.T) {
	t.Parallel()
	assert.True(t, ValidateSessionID("b8e7a3c0-1f2d-4e5a-9b6c-7d8e9f0a1b2c").Valid)
	assert.True(t, ValidateSessionID("abc_123-XYZ").Valid)

	assert.False(t, ValidateSessionID("").Valid)
	assert.False(t, ValidateSessionID(strings.Repeat("a", 101)).Valid)
	assert.False(t, ValidateSessionID("../etc/passwd").Valid)
	assert.False(t, ValidateSessionID("id with spaces").Valid)
}

func TestValidateMessage(t *testing.T) {
	t.Parallel()
	assert.True(t, ValidateMessage("I have 5 years of experience with Python & Go.", 5000).Valid)
	assert.True(t, ValidateMessage("", 5000).Valid, "empty input is the engine's concern")
	assert.True(t, ValidateMessage("python; react, aws", 5000).Valid, "punctuation in answers is fine")

	cases := []struct {
		name string
		in   string
		code string
	}{
		{"script tag", "<script>alert(1)</script>", "MALICIOUS_CONTENT"},
		{"javascript url", "click javascript:doEvil()", "MALICIOUS_CONTENT"},
		{"event handler", `<img onerror=pwn()>`, "MALICIOUS_CONTENT"},
		{"sql union", "1 UNION SELECT * FROM users", "MALICIOUS_CONTENT"},
		{"drop table", "Robert'); DROP TABLE students", "MALICIOUS_CONTENT"},
		{"path traversal", "see ../../etc/passwd", "MALICIOUS_CONTENT"},
		{"command substitution", "run $(rm -rf /)", "MALICIOUS_CONTENT"},
		{"iframe", "<iframe src=x>", "MALICIOUS_CONTENT"},
		{"char flood", "aaaaaaaaaa", "EXCESSIVE_REPETITION"},
		{"gibberish", strings.Repeat("x", 25) + strings.Repeat("1", 12), "GIBBERISH"},
		{"too long", strings.Repeat("word ", 2000), "TOO_LONG"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			res := ValidateMessage(tc.in, 5000)
			assert.False(t, res.Valid)
			assert.Equal(t, tc.code, res.Errors[0].Code)
		})
	}
}

func TestHasExcessiveRepetition(t *testing.T) {
	t.Parallel()
	assert.False(t, hasExcessiveRepetition("helloo", 5))
	assert.False(t, hasExcessiveRepetition("aaaaa b", 5))
	assert.True(t, hasExcessiveRepetition("noooooooo way", 5))
}

func TestSanitizeText(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "I'm Alice", SanitizeText("  I'm   Alice  "))
	assert.Equal(t, "hello world", SanitizeText("<b>hello</b>\n\nworld"))
}
