package pipeline

// State is a screenshot's position in the processing state machine.
type State string

const (
	StateReceived     State = "received"
	StateExtracted    State = "extracted"
	StateClassified   State = "classified"
	StatePlaced       State = "placed"
	StatePersisted    State = "persisted"
	StateDeduplicated State = "deduplicated"
	StateDone         State = "done"
	StateErrored      State = "errored"
)

// Stage names used in logs, metrics and Outcome.FailedStage.
const (
	StageReceive  = "receive"
	StageExtract  = "extract"
	StageClassify = "classify"
	StagePlace    = "place"
	StagePersist  = "persist"
	StageDedup    = "dedup"
)

// Terminal reports whether no further transitions happen from s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateErrored
}

// stageFor names the work performed when leaving s.
func stageFor(s State) string {
	switch s {
	case StateReceived:
		return StageExtract
	case StateExtracted:
		return StageClassify
	case StateClassified:
		return StagePlace
	case StatePlaced:
		return StagePersist
	case StatePersisted:
		return StageDedup
	default:
		return ""
	}
}
