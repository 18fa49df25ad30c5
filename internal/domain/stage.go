package domain

// Stage is a named phase of the interview state machine. Stages form a fixed
// total order and only ever advance forward within a session.
type Stage int

const (
	StageGreeting Stage = iota
	StageInfoCollection
	StageTechnical
	StageBehavioral
	StageWrapUp
	StageCompleted
)

var stageNames = map[Stage]string{
	StageGreeting:       "greeting",
	StageInfoCollection: "info_collection",
	StageTechnical:      "technical_assessment",
	StageBehavioral:     "behavioral_assessment",
	StageWrapUp:         "wrap_up",
	StageCompleted:      "completed",
}

func (s Stage) String() string {
	if n, ok := stageNames[s]; ok {
		return n
	}
	return "unknown"
}

// Next returns the stage that follows s in the fixed progression.
// COMPLETED is terminal and returns itself.
func (s Stage) Next() Stage {
	if s >= StageCompleted {
		return StageCompleted
	}
	return s + 1
}

// Terminal reports whether no further stage movement is possible.
func (s Stage) Terminal() bool { return s == StageCompleted }

// ParseStage maps a stored stage name back to its Stage value.
func ParseStage(name string) (Stage, bool) {
	for st, n := range stageNames {
		if n == name {
			return st, true
		}
	}
	return StageGreeting, false
}
