package pipeline

// State names one position in the run state machine. The terminal states
// correspond one-to-one with the run report's RunStatus.
type State string

const (
	StateIdle               State = "idle"
	StateExtracting         State = "extracting"
	StateValidating         State = "validating"
	StateScoring            State = "scoring"
	StateCategorizing       State = "categorizing"
	StateLoading            State = "loading"
	StateSucceeded          State = "succeeded"
	StatePartiallySucceeded State = "partially_succeeded"
	StateFailed             State = "failed"
)

// Terminal reports whether the state ends a run.
func (s State) Terminal() bool {
	switch s {
	case StateSucceeded, StatePartiallySucceeded, StateFailed:
		return true
	default:
		return false
	}
}
