// Package adapter defines the notification boundary for completed runs.
//
// Adapters publish pipeline completion events to downstream systems
// (alerting, dashboards, schedulers). Publishing is best-effort: the CLI
// logs adapter failures but never fails a run because of them.
package adapter

import (
	"context"
	"time"

	"github.com/lodeworks/stockpipe/pipeline"
)

// PipelineCompletedEvent is the payload published when a run finishes.
type PipelineCompletedEvent struct {
	EventType      string `json:"event_type"` // always "pipeline_completed"
	RunID          string `json:"run_id"`
	PipelineName   string `json:"pipeline_name"`
	Mode           string `json:"mode"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	SymbolsTotal   int    `json:"symbols_total"`
	SymbolsOK      int    `json:"symbols_ok"`
	SymbolsEmpty   int    `json:"symbols_empty"`
	SymbolsFailed  int    `json:"symbols_failed"`
	RowsLoaded     int    `json:"rows_loaded"`
	DurationMs     int64  `json:"duration_ms"`
	Timestamp      string `json:"timestamp"` // ISO 8601
	StorageBackend string `json:"storage_backend,omitempty"`
}

// FromResult builds the completion event for a finished run.
func FromResult(pipelineName, mode, storageBackend string, result *pipeline.RunResult) *PipelineCompletedEvent {
	return &PipelineCompletedEvent{
		EventType:      "pipeline_completed",
		RunID:          result.RunID,
		PipelineName:   pipelineName,
		Mode:           mode,
		StartDate:      result.StartDate.Format("2006-01-02"),
		EndDate:        result.EndDate.Format("2006-01-02"),
		SymbolsTotal:   result.SymbolsProcessed,
		SymbolsOK:      result.SymbolsSucceeded,
		SymbolsEmpty:   result.SymbolsEmpty,
		SymbolsFailed:  result.SymbolsFailed,
		RowsLoaded:     result.RowsLoaded,
		DurationMs:     result.Duration.Milliseconds(),
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		StorageBackend: storageBackend,
	}
}

// Adapter publishes pipeline completion events to a downstream system.
// Implementations must be safe for single-use per run.
type Adapter interface {
	// Publish sends a completion event downstream.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *PipelineCompletedEvent) error

	// Close releases adapter resources.
	Close() error
}
