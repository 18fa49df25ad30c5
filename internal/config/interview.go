// Package config provides configuration loading utilities.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// InterviewConfig holds tunable interview-flow settings that operators adjust
// more often than environment variables: per-stage question limits and the
// canned fallback question bank.
type InterviewConfig struct {
	TechQuestionLimit       int               `yaml:"tech_question_limit"`
	BehavioralQuestionLimit int               `yaml:"behavioral_question_limit"`
	FallbackQuestions       map[string]string `yaml:"fallback_questions"`
}

// DefaultInterviewConfig returns the built-in interview flow settings. The
// fallback bank has exactly one entry per question-asking stage; exp/limits
// mirror the env defaults.
func DefaultInterviewConfig() InterviewConfig {
	return InterviewConfig{
		TechQuestionLimit:       3,
		BehavioralQuestionLimit: 2,
		FallbackQuestions: map[string]string{
			"greeting":              "Tell me about yourself and what interests you about this position.",
			"technical_assessment":  "Describe a challenging technical problem you solved recently. Walk me through your approach.",
			"behavioral_assessment": "Tell me about a time you had to work with a difficult team member. How did you handle it?",
			"wrap_up":               "What questions do you have about our team and company culture?",
		},
	}
}

// LoadInterviewConfig reads an InterviewConfig from a YAML file, filling any
// omitted field from the defaults. An empty path returns the defaults.
func LoadInterviewConfig(path string) (InterviewConfig, error) {
	out := DefaultInterviewConfig()
	if path == "" {
		return out, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return InterviewConfig{}, fmt.Errorf("op=config.LoadInterviewConfig: %w", err)
	}
	var file InterviewConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return InterviewConfig{}, fmt.Errorf("op=config.LoadInterviewConfig: parse %s: %w", path, err)
	}
	if file.TechQuestionLimit > 0 {
		out.TechQuestionLimit = file.TechQuestionLimit
	}
	if file.BehavioralQuestionLimit > 0 {
		out.BehavioralQuestionLimit = file.BehavioralQuestionLimit
	}
	for stage, q := range file.FallbackQuestions {
		if q != "" {
			out.FallbackQuestions[stage] = q
		}
	}
	return out, nil
}
