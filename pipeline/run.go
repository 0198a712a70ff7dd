package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lodeworks/stockpipe/log"
	"github.com/lodeworks/stockpipe/metrics"
	"github.com/lodeworks/stockpipe/source"
	"github.com/lodeworks/stockpipe/types"
	"github.com/lodeworks/stockpipe/warehouse"
)

// runIDLength is the uuid prefix length used for run identifiers.
const runIDLength = 8

// NewRunID generates a short run identifier.
func NewRunID() string {
	return uuid.NewString()[:runIDLength]
}

// Config configures a single pipeline run.
type Config struct {
	// PipelineName identifies the pipeline in logs and outcome rows.
	PipelineName string
	// RunID overrides the generated run identifier. Callers that
	// partition storage by run id pass the same value here so outcome
	// rows and storage partitions agree. Empty means generate one.
	RunID string
	// Symbols is the universe to ingest, processed in input order.
	Symbols []string
	// Mode selects incremental or full_refresh. Empty means incremental.
	Mode types.Mode
	// LookbackDays is the historical floor. Zero means DefaultLookbackDays.
	LookbackDays int
	// Source is the market-data collaborator.
	Source source.Source
	// Warehouse is the destination collaborator.
	Warehouse warehouse.Warehouse
	// Logger overrides the run logger (for testing). If nil, a logger
	// bound to the generated run_id is created.
	Logger *log.Logger
	// Collector is the metrics collector for this run.
	// If nil, no metrics are recorded (all methods are nil-safe).
	Collector *metrics.Collector
	// Now overrides the clock for testing. Defaults to time.Now.
	Now func() time.Time
}

// RunResult summarizes one completed run.
type RunResult struct {
	RunID     string
	StartDate time.Time
	EndDate   time.Time

	SymbolsProcessed int
	SymbolsSucceeded int
	SymbolsEmpty     int
	SymbolsFailed    int
	RowsLoaded       int

	Outcomes []types.RunOutcome
	Duration time.Duration
}

// Orchestrator drives one run end to end: reset (full refresh only),
// watermark resolution, the per-symbol fetch loop, the metadata pass,
// and the three-stream commit.
type Orchestrator struct {
	config *Config
	logger *log.Logger
	runID  string
	now    func() time.Time
}

// NewOrchestrator validates configuration and generates the run identity.
// The run_id is generated exactly once, before any symbol processing.
func NewOrchestrator(config *Config) (*Orchestrator, error) {
	if config.PipelineName == "" {
		return nil, errors.New("pipeline name is required")
	}
	if len(config.Symbols) == 0 {
		return nil, errors.New("at least one symbol is required")
	}
	if config.Source == nil {
		return nil, errors.New("source is required")
	}
	if config.Warehouse == nil {
		return nil, errors.New("warehouse is required")
	}
	if config.Mode == "" {
		config.Mode = types.ModeIncremental
	}
	if !config.Mode.Valid() {
		return nil, fmt.Errorf("invalid mode %q", config.Mode)
	}

	runID := config.RunID
	if runID == "" {
		runID = NewRunID()
	}

	logger := config.Logger
	if logger == nil {
		logger = log.NewLogger(runID, config.PipelineName)
	}

	return &Orchestrator{
		config: config,
		logger: logger,
		runID:  runID,
		now:    clockOf(config),
	}, nil
}

func clockOf(config *Config) func() time.Time {
	if config.Now != nil {
		return config.Now
	}
	return time.Now
}

// RunID returns the identity generated for this invocation.
func (o *Orchestrator) RunID() string {
	return o.runID
}

// Execute runs the pipeline end-to-end.
//
// Per-symbol failures are downgraded to failed outcomes and never abort
// the loop. Only reset failures (full refresh) and load failures return
// an error; in both cases nothing was durably committed for this run and
// the caller decides whether to retry.
func (o *Orchestrator) Execute(ctx context.Context) (*RunResult, error) {
	startTime := o.now()

	o.logger.Info("starting run", map[string]any{
		"mode":    string(o.config.Mode),
		"symbols": len(o.config.Symbols),
	})

	// Full refresh discards all prior state before any fetching.
	// Proceeding past a failed reset would mix refreshed and stale state.
	if o.config.Mode == types.ModeFullRefresh {
		o.logger.Info("full refresh requested, dropping pipeline state", nil)
		if err := o.config.Warehouse.Reset(ctx); err != nil {
			o.logger.Error("state reset failed", map[string]any{"error": err.Error()})
			return nil, fmt.Errorf("full refresh reset: %w", err)
		}
	}

	resolver := &Resolver{Warehouse: o.config.Warehouse, Now: o.now}
	startDate, err := resolver.Resolve(ctx, warehouse.StreamDailyPrices, o.config.LookbackDays)
	if err != nil {
		return nil, err
	}
	endDate := midnightUTC(o.now())
	dateRange := fmt.Sprintf("%s to %s", startDate.Format(types.DateLayout), endDate.Format(types.DateLayout))

	o.logger.Info("resolved fetch window", map[string]any{
		"start_date": startDate.Format(types.DateLayout),
		"end_date":   endDate.Format(types.DateLayout),
	})

	fetcher := NewFetcher(o.config.Source)
	tracker := NewTracker(o.runID, o.config.PipelineName)
	collector := o.config.Collector

	var bars []types.PriceBar
	for _, symbol := range o.config.Symbols {
		symbolStart := o.now()
		outcome := types.RunOutcome{
			Symbol:        symbol,
			StartTime:     symbolStart,
			DataDateRange: dateRange,
		}

		result := fetcher.FetchPrices(ctx, symbol, startDate, endDate)
		switch result.Status {
		case FetchFailed:
			collector.IncSymbolFailed()
			o.logger.Error("price fetch failed", map[string]any{
				"symbol": symbol,
				"error":  result.Err.Error(),
			})
			outcome.Status = types.OutcomeFailed
			outcome.ErrorMessage = errMessage(result.Err)

		case FetchEmpty:
			collector.IncSymbolEmpty()
			o.logger.Info("no new bars", map[string]any{"symbol": symbol})
			outcome.Status = types.OutcomeNoData

		case FetchFetched:
			normalized, err := NormalizePrices(result.Table, symbol)
			if err != nil {
				collector.IncSymbolFailed()
				o.logger.Error("normalization failed", map[string]any{
					"symbol": symbol,
					"error":  err.Error(),
				})
				outcome.Status = types.OutcomeFailed
				outcome.ErrorMessage = errMessage(err)
				break
			}
			collector.IncSymbolFetched()
			collector.AddRowsEmitted(int64(len(normalized)))
			bars = append(bars, normalized...)
			outcome.Status = types.OutcomeSuccess
			outcome.RowsLoaded = len(normalized)
		}

		outcome.EndTime = o.now()
		tracker.Record(outcome)
	}

	// Metadata pass: fetch errors degrade to default rows, so the
	// metadata stream always has exactly one row per symbol.
	meta := make([]types.CompanyMetadata, 0, len(o.config.Symbols))
	for _, symbol := range o.config.Symbols {
		record, err := fetcher.FetchMetadata(ctx, symbol)
		if err != nil {
			collector.IncMetadataDegraded()
			o.logger.Warn("metadata fetch degraded to defaults", map[string]any{
				"symbol": symbol,
				"error":  err.Error(),
			})
			record = nil
		}
		meta = append(meta, NormalizeMetadata(record, symbol, o.now()))
	}

	// Outcomes are drained only at commit; a load failure leaves the
	// monitoring stream unwritten along with the data it describes.
	outcomes := tracker.Drain()
	if err := o.commit(ctx, bars, meta, outcomes); err != nil {
		return nil, err
	}

	result := o.buildResult(startDate, endDate, outcomes, startTime)
	o.logger.Info("run completed", map[string]any{
		"symbols_succeeded": result.SymbolsSucceeded,
		"symbols_empty":     result.SymbolsEmpty,
		"symbols_failed":    result.SymbolsFailed,
		"rows_loaded":       result.RowsLoaded,
		"duration":          result.Duration.String(),
	})
	return result, nil
}

// commit writes the three streams. Any failure is fatal to the run.
func (o *Orchestrator) commit(ctx context.Context, bars []types.PriceBar, meta []types.CompanyMetadata, outcomes []types.RunOutcome) error {
	collector := o.config.Collector
	wh := o.config.Warehouse

	if err := wh.MergeUpsert(ctx, warehouse.StreamDailyPrices, warehouse.PriceKey, warehouse.PriceRows(bars)); err != nil {
		collector.IncWarehouseWriteFailure()
		return fmt.Errorf("loading %s: %w", warehouse.StreamDailyPrices, err)
	}
	collector.IncWarehouseWriteSuccess()

	if err := wh.Replace(ctx, warehouse.StreamCompanyMetadata, warehouse.MetadataRows(meta)); err != nil {
		collector.IncWarehouseWriteFailure()
		return fmt.Errorf("loading %s: %w", warehouse.StreamCompanyMetadata, err)
	}
	collector.IncWarehouseWriteSuccess()

	if err := wh.Append(ctx, warehouse.StreamPipelineRuns, warehouse.OutcomeRows(outcomes)); err != nil {
		collector.IncWarehouseWriteFailure()
		return fmt.Errorf("loading %s: %w", warehouse.StreamPipelineRuns, err)
	}
	collector.IncWarehouseWriteSuccess()

	return nil
}

// buildResult aggregates outcome counts into the final result.
func (o *Orchestrator) buildResult(startDate, endDate time.Time, outcomes []types.RunOutcome, startTime time.Time) *RunResult {
	result := &RunResult{
		RunID:     o.runID,
		StartDate: startDate,
		EndDate:   endDate,
		Outcomes:  outcomes,
		Duration:  o.now().Sub(startTime),
	}

	for _, outcome := range result.Outcomes {
		result.SymbolsProcessed++
		switch outcome.Status {
		case types.OutcomeSuccess:
			result.SymbolsSucceeded++
			result.RowsLoaded += outcome.RowsLoaded
		case types.OutcomeNoData:
			result.SymbolsEmpty++
		case types.OutcomeFailed:
			result.SymbolsFailed++
		}
	}

	return result
}

func errMessage(err error) *string {
	msg := err.Error()
	return &msg
}
