// Package warehouse provides the destination boundary for the pipeline's
// three streams, backed by Lode columnar storage.
//
// The warehouse exposes three logical write modes (merge-upsert, replace,
// append), the watermark read path (maximum stored date per stream), and a
// full reset used by full-refresh mode.
package warehouse

import (
	"context"
	"time"
)

// Stream names are part of the destination schema contract.
const (
	StreamDailyPrices     = "daily_prices"
	StreamCompanyMetadata = "company_metadata"
	StreamPipelineRuns    = "pipeline_runs"
)

// Write dispositions recorded on every stored row. Merge and replace are
// read-side semantics in a columnar snapshot store: merge readers take the
// newest row per merge key, replace readers take the newest snapshot.
const (
	DispositionMerge   = "merge"
	DispositionReplace = "replace"
	DispositionAppend  = "append"
)

// Warehouse is the destination collaborator.
// Write failures are fatal to the run; the orchestrator does not retry.
type Warehouse interface {
	// MergeUpsert writes rows keyed by the given columns. Rows sharing a
	// key with previously stored rows supersede them on read.
	MergeUpsert(ctx context.Context, stream string, key []string, rows []map[string]any) error

	// Replace writes rows that fully supersede all prior rows of the stream.
	Replace(ctx context.Context, stream string, rows []map[string]any) error

	// Append writes rows additively.
	Append(ctx context.Context, stream string, rows []map[string]any) error

	// MaxDate returns the maximum calendar date stored for a stream.
	// The second return is false when the stream has no rows (first run
	// or post-reset).
	MaxDate(ctx context.Context, stream string) (time.Time, bool, error)

	// Reset drops all persisted state for the pipeline. Used by
	// full-refresh mode before any fetching begins.
	Reset(ctx context.Context) error

	// Close releases storage resources.
	Close() error
}

// StubWrite is one recorded write call for testing.
type StubWrite struct {
	Stream string
	Key    []string
	Rows   []map[string]any
}

// StubWarehouse records writes without persisting. Use in pipeline tests.
type StubWarehouse struct {
	MergeCalls   []StubWrite
	ReplaceCalls []StubWrite
	AppendCalls  []StubWrite

	// MaxDates seeds the watermark read path per stream.
	MaxDates map[string]time.Time

	// WriteErr, when set, fails every write call.
	WriteErr error
	// ResetErr, when set, fails Reset.
	ResetErr error

	ResetCalled bool
	Closed      bool
}

// NewStubWarehouse creates an empty stub.
func NewStubWarehouse() *StubWarehouse {
	return &StubWarehouse{MaxDates: make(map[string]time.Time)}
}

// MergeUpsert implements Warehouse.
func (s *StubWarehouse) MergeUpsert(_ context.Context, stream string, key []string, rows []map[string]any) error {
	if s.WriteErr != nil {
		return s.WriteErr
	}
	s.MergeCalls = append(s.MergeCalls, StubWrite{Stream: stream, Key: key, Rows: rows})
	return nil
}

// Replace implements Warehouse.
func (s *StubWarehouse) Replace(_ context.Context, stream string, rows []map[string]any) error {
	if s.WriteErr != nil {
		return s.WriteErr
	}
	s.ReplaceCalls = append(s.ReplaceCalls, StubWrite{Stream: stream, Rows: rows})
	return nil
}

// Append implements Warehouse.
func (s *StubWarehouse) Append(_ context.Context, stream string, rows []map[string]any) error {
	if s.WriteErr != nil {
		return s.WriteErr
	}
	s.AppendCalls = append(s.AppendCalls, StubWrite{Stream: stream, Rows: rows})
	return nil
}

// MaxDate implements Warehouse.
func (s *StubWarehouse) MaxDate(_ context.Context, stream string) (time.Time, bool, error) {
	d, ok := s.MaxDates[stream]
	return d, ok, nil
}

// Reset implements Warehouse. It clears seeded watermark state so a
// subsequent MaxDate behaves like a first run.
func (s *StubWarehouse) Reset(context.Context) error {
	if s.ResetErr != nil {
		return s.ResetErr
	}
	s.ResetCalled = true
	s.MaxDates = make(map[string]time.Time)
	return nil
}

// Close implements Warehouse.
func (s *StubWarehouse) Close() error {
	s.Closed = true
	return nil
}

// Verify StubWarehouse implements Warehouse.
var _ Warehouse = (*StubWarehouse)(nil)
