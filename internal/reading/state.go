package reading

import "fmt"

// State is a stage of a single reading. States advance strictly in
// declaration order; Failed is terminal and can follow any non-terminal state.
type State int

const (
	Idle State = iota
	Fetching
	Parsing
	Filtering
	Aggregating
	PersistingRaw
	PersistingSummary
	Done
	Failed
)

var stateNames = [...]string{
	Idle:              "Idle",
	Fetching:          "Fetching",
	Parsing:           "Parsing",
	Filtering:         "Filtering",
	Aggregating:       "Aggregating",
	PersistingRaw:     "PersistingRaw",
	PersistingSummary: "PersistingSummary",
	Done:              "Done",
	Failed:            "Failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

func (s State) Terminal() bool {
	return s == Done || s == Failed
}

// StageError is the Failed(stage, cause) outcome of a reading.
type StageError struct {
	Stage State
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("reading failed while %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
