package warehouse

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/justapithecus/lode/lode"

	"github.com/lodeworks/stockpipe/types"
)

// partitionKeys defines the Hive layout shared by the write and read paths.
var partitionKeys = []string{"stream", "day", "run_id"}

// Config holds warehouse identity for a single run.
type Config struct {
	// Dataset is the Lode dataset identifier, normally the pipeline name.
	Dataset string
	// RunID partitions this run's rows for traceability.
	RunID string
	// Day is the run's calendar date partition (YYYY-MM-DD).
	Day string
}

// Validate checks required configuration.
func (c *Config) Validate() error {
	if c.Dataset == "" {
		return errors.New("warehouse dataset is required")
	}
	return nil
}

// LodeWarehouse implements Warehouse over a Lode columnar dataset.
//
// All three dispositions physically append snapshots; the disposition
// and merge key are recorded on each row so readers can resolve
// merge/replace semantics. Reset drops the backing storage and reopens
// a fresh dataset.
type LodeWarehouse struct {
	config Config

	mu      sync.Mutex // guards dataset across Reset
	dataset lode.Dataset

	// reopen builds a fresh dataset handle after a reset.
	reopen func() (lode.Dataset, error)
	// drop removes all persisted objects. Nil when reopen alone
	// yields empty storage (memory backend).
	drop func(ctx context.Context) error
}

func newDataset(dataset string, factory lode.StoreFactory) (lode.Dataset, error) {
	return lode.NewDataset(
		lode.DatasetID(dataset),
		factory,
		lode.WithHiveLayout(partitionKeys...),
		lode.WithCodec(lode.NewJSONLCodec()),
	)
}

func newWarehouse(cfg Config, reopen func() (lode.Dataset, error), drop func(ctx context.Context) error) (*LodeWarehouse, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ds, err := reopen()
	if err != nil {
		return nil, WrapInitError(err, cfg.Dataset)
	}
	return &LodeWarehouse{config: cfg, dataset: ds, reopen: reopen, drop: drop}, nil
}

// NewFSWarehouse creates a warehouse with filesystem storage rooted at root.
// The warehouse owns the root directory; Reset removes it entirely.
func NewFSWarehouse(cfg Config, root string) (*LodeWarehouse, error) {
	reopen := func() (lode.Dataset, error) {
		return newDataset(cfg.Dataset, lode.NewFSFactory(root))
	}
	drop := func(context.Context) error {
		return os.RemoveAll(root)
	}
	return newWarehouse(cfg, reopen, drop)
}

// NewMemoryWarehouse creates an in-memory warehouse for testing.
func NewMemoryWarehouse(cfg Config) (*LodeWarehouse, error) {
	reopen := func() (lode.Dataset, error) {
		return newDataset(cfg.Dataset, lode.NewMemoryFactory())
	}
	return newWarehouse(cfg, reopen, nil)
}

// MergeUpsert implements Warehouse.
func (w *LodeWarehouse) MergeUpsert(ctx context.Context, stream string, key []string, rows []map[string]any) error {
	return w.writeRows(ctx, stream, DispositionMerge, key, rows)
}

// Replace implements Warehouse.
func (w *LodeWarehouse) Replace(ctx context.Context, stream string, rows []map[string]any) error {
	return w.writeRows(ctx, stream, DispositionReplace, nil, rows)
}

// Append implements Warehouse.
func (w *LodeWarehouse) Append(ctx context.Context, stream string, rows []map[string]any) error {
	return w.writeRows(ctx, stream, DispositionAppend, nil, rows)
}

func (w *LodeWarehouse) writeRows(ctx context.Context, stream, disposition string, key []string, rows []map[string]any) error {
	if len(rows) == 0 {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	records := make([]any, 0, len(rows))
	for _, row := range rows {
		record := make(map[string]any, len(row)+4)
		for k, v := range row {
			record[k] = v
		}
		record["stream"] = stream
		record["day"] = w.config.Day
		record["run_id"] = w.config.RunID
		record["write_disposition"] = disposition
		if len(key) > 0 {
			record["merge_key"] = strings.Join(key, ",")
		}
		records = append(records, record)
	}

	if _, err := w.dataset.Write(ctx, records, lode.Metadata{}); err != nil {
		return WrapWriteError(err, stream)
	}
	return nil
}

// MaxDate implements Warehouse. It scans snapshots belonging to the
// stream's partition and returns the maximum stored calendar date.
func (w *LodeWarehouse) MaxDate(ctx context.Context, stream string) (time.Time, bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	snapshots, err := w.dataset.Snapshots(ctx)
	if err != nil {
		return time.Time{}, false, WrapReadError(err, stream)
	}

	var max time.Time
	found := false
	for _, snap := range snapshots {
		// Manifest path filtering is a coarse pre-filter; record
		// fields are authoritative.
		if !snapshotMatchesPartition(snap, "stream", stream) {
			continue
		}

		data, err := w.dataset.Read(ctx, snap.ID)
		if err != nil {
			return time.Time{}, false, WrapReadError(err, stream)
		}

		for _, item := range data {
			record, ok := item.(map[string]any)
			if !ok || toString(record["stream"]) != stream {
				continue
			}
			d, err := time.Parse(types.DateLayout, toString(record["date"]))
			if err != nil {
				continue
			}
			if !found || d.After(max) {
				max = d
				found = true
			}
		}
	}

	return max, found, nil
}

// Outcomes returns stored run outcomes, newest snapshot first.
// runID filters to a single run when non-empty.
func (w *LodeWarehouse) Outcomes(ctx context.Context, runID string) ([]types.RunOutcome, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	snapshots, err := w.dataset.Snapshots(ctx)
	if err != nil {
		return nil, WrapReadError(err, StreamPipelineRuns)
	}

	var outcomes []types.RunOutcome
	for i := len(snapshots) - 1; i >= 0; i-- {
		snap := snapshots[i]
		if !snapshotMatchesPartition(snap, "stream", StreamPipelineRuns) {
			continue
		}
		if runID != "" && !snapshotMatchesPartition(snap, "run_id", runID) {
			continue
		}

		data, err := w.dataset.Read(ctx, snap.ID)
		if err != nil {
			return nil, WrapReadError(err, StreamPipelineRuns)
		}

		for _, item := range data {
			record, ok := item.(map[string]any)
			if !ok || toString(record["stream"]) != StreamPipelineRuns {
				continue
			}
			if runID != "" && toString(record["run_id"]) != runID {
				continue
			}
			outcomes = append(outcomes, ParseOutcomeRecord(record))
		}
	}

	return outcomes, nil
}

// Reset implements Warehouse. Drops all persisted state and reopens an
// empty dataset handle.
func (w *LodeWarehouse) Reset(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.drop != nil {
		if err := w.drop(ctx); err != nil {
			return WrapResetError(err, w.config.Dataset)
		}
	}

	ds, err := w.reopen()
	if err != nil {
		return WrapResetError(err, w.config.Dataset)
	}
	w.dataset = ds
	return nil
}

// Close implements Warehouse.
func (w *LodeWarehouse) Close() error {
	// Dataset requires no explicit close in the current Lode API.
	return nil
}

// snapshotMatchesPartition reports whether any file path in the snapshot
// manifest contains an exact key=value Hive segment. Exact segment
// matching avoids substring false positives (run_id=a1 vs run_id=a10).
func snapshotMatchesPartition(snap *lode.DatasetSnapshot, key, value string) bool {
	segment := key + "=" + value
	for _, f := range snap.Manifest.Files {
		for _, part := range strings.Split(f.Path, "/") {
			if part == segment {
				return true
			}
		}
	}
	return false
}

// Verify LodeWarehouse implements Warehouse.
var _ Warehouse = (*LodeWarehouse)(nil)
