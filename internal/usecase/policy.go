package usecase

import "github.com/fairyhunter13/ai-interviewer/internal/domain"

// StagePolicy decides stage advancement from the current stage, the collected
// profile, and the exchange count within the stage. The decision is a pure
// lookup: repeated calls with unchanged inputs return the same stage, and the
// policy never moves a session backward or skips a stage.
type StagePolicy struct {
	// TechQuestionLimit and BehavioralQuestionLimit are the question counts
	// after which the assessment stages advance.
	TechQuestionLimit       int
	BehavioralQuestionLimit int
}

// NewStagePolicy applies defaults for non-positive limits.
func NewStagePolicy(techLimit, behavioralLimit int) StagePolicy {
	if techLimit <= 0 {
		techLimit = 3
	}
	if behavioralLimit <= 0 {
		behavioralLimit = 2
	}
	return StagePolicy{TechQuestionLimit: techLimit, BehavioralQuestionLimit: behavioralLimit}
}

// Next returns the stage the session should be in given the inputs.
//
//	GREETING          -> INFO_COLLECTION        when >=1 exchange and name present
//	INFO_COLLECTION   -> TECHNICAL_ASSESSMENT   when all five fields present
//	TECHNICAL         -> BEHAVIORAL             when question count >= limit
//	BEHAVIORAL        -> WRAP_UP                when question count >= limit
//	WRAP_UP           -> COMPLETED              when >=1 exchange
func (p StagePolicy) Next(stage domain.Stage, profile domain.Profile, exchangeCount int) domain.Stage {
	switch stage {
	case domain.StageGreeting:
		if exchangeCount >= 1 && profile.Name != "" {
			return domain.StageInfoCollection
		}
	case domain.StageInfoCollection:
		if profile.Complete() {
			return domain.StageTechnical
		}
	case domain.StageTechnical:
		if exchangeCount >= p.TechQuestionLimit {
			return domain.StageBehavioral
		}
	case domain.StageBehavioral:
		if exchangeCount >= p.BehavioralQuestionLimit {
			return domain.StageWrapUp
		}
	case domain.StageWrapUp:
		if exchangeCount >= 1 {
			return domain.StageCompleted
		}
	}
	return stage
}
