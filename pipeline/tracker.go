package pipeline

import "github.com/lodeworks/stockpipe/types"

// Tracker accumulates per-symbol outcomes for one run.
//
// Its lifetime is exactly one Execute call; the orchestrator drains it
// into the monitoring stream before the run completes. Owned state, not
// a process global, so repeated invocations in one process cannot
// contaminate each other.
type Tracker struct {
	runID    string
	pipeline string
	outcomes []types.RunOutcome
}

// NewTracker creates a tracker bound to a run's identity.
func NewTracker(runID, pipeline string) *Tracker {
	return &Tracker{runID: runID, pipeline: pipeline}
}

// Record appends an outcome, stamping the run's identity onto it.
func (t *Tracker) Record(outcome types.RunOutcome) {
	outcome.RunID = t.runID
	outcome.PipelineName = t.pipeline
	t.outcomes = append(t.outcomes, outcome)
}

// Drain returns all accumulated outcomes in recording order and empties
// the buffer.
func (t *Tracker) Drain() []types.RunOutcome {
	out := t.outcomes
	t.outcomes = nil
	return out
}

// Len reports the number of buffered outcomes.
func (t *Tracker) Len() int {
	return len(t.outcomes)
}
