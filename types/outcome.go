package types

import "time"

// OutcomeStatus is the three-valued status of a per-symbol fetch attempt.
// The values are part of the monitoring stream contract consumed by
// dashboards and alerting; they must not change without a migration plan.
type OutcomeStatus string

const (
	// OutcomeSuccess indicates rows were fetched and emitted.
	OutcomeSuccess OutcomeStatus = "success"
	// OutcomeNoData indicates the fetch succeeded but returned no new rows.
	OutcomeNoData OutcomeStatus = "no_data"
	// OutcomeFailed indicates the fetch or normalization failed.
	OutcomeFailed OutcomeStatus = "failed"
)

// RunOutcome is one monitoring record per (symbol, fetch attempt, run).
// Rows are append-only in the pipeline_runs stream. RunID is generated
// once per orchestrator invocation and shared by every outcome in that
// run; it is the correlation key for monitoring queries.
//
// Field names are a durable external contract.
type RunOutcome struct {
	RunID         string        `json:"run_id"`
	PipelineName  string        `json:"pipeline_name"`
	Symbol        string        `json:"symbol"`
	RowsLoaded    int           `json:"rows_loaded"`
	StartTime     time.Time     `json:"start_time"`
	EndTime       time.Time     `json:"end_time"`
	Status        OutcomeStatus `json:"status"`
	ErrorMessage  *string       `json:"error_message,omitempty"`
	DataDateRange string        `json:"data_date_range"`
}

// Mode selects the pipeline's operating mode.
type Mode string

const (
	// ModeIncremental fetches from the stored watermark forward.
	ModeIncremental Mode = "incremental"
	// ModeFullRefresh discards prior state and re-fetches from the
	// historical floor.
	ModeFullRefresh Mode = "full_refresh"
)

// Valid reports whether the mode is one of the supported values.
func (m Mode) Valid() bool {
	return m == ModeIncremental || m == ModeFullRefresh
}
