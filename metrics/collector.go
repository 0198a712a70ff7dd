// Package metrics provides per-run metrics collection.
//
// The Collector accumulates counters during a single pipeline run. It is
// a leaf package with no internal dependencies. All increment methods are
// nil-receiver safe so callers never need to guard against an absent
// collector.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of run metrics.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Per-symbol fetch outcomes
	SymbolsFetched int64
	SymbolsEmpty   int64
	SymbolsFailed  int64

	// Rows emitted into the price stream
	RowsEmitted int64

	// Metadata fetches that degraded to default records
	MetadataDegraded int64

	// Warehouse write operations (per-call, not per-row)
	WarehouseWriteSuccess int64
	WarehouseWriteFailure int64

	// Dimensions (informational, set at construction)
	Pipeline       string
	StorageBackend string
	RunID          string
	Mode           string
}

// Collector accumulates metrics during a single run.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	symbolsFetched int64
	symbolsEmpty   int64
	symbolsFailed  int64

	rowsEmitted int64

	metadataDegraded int64

	warehouseWriteSuccess int64
	warehouseWriteFailure int64

	pipeline       string
	storageBackend string
	runID          string
	mode           string
}

// NewCollector creates a Collector with dimension labels.
func NewCollector(pipeline, storageBackend, runID, mode string) *Collector {
	return &Collector{
		pipeline:       pipeline,
		storageBackend: storageBackend,
		runID:          runID,
		mode:           mode,
	}
}

// IncSymbolFetched records a symbol whose fetch yielded bars.
func (c *Collector) IncSymbolFetched() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.symbolsFetched++
	c.mu.Unlock()
}

// IncSymbolEmpty records a symbol whose fetch yielded zero bars.
func (c *Collector) IncSymbolEmpty() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.symbolsEmpty++
	c.mu.Unlock()
}

// IncSymbolFailed records a symbol whose fetch or normalization failed.
func (c *Collector) IncSymbolFailed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.symbolsFailed++
	c.mu.Unlock()
}

// AddRowsEmitted records bars emitted into the price stream.
func (c *Collector) AddRowsEmitted(n int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.rowsEmitted += n
	c.mu.Unlock()
}

// IncMetadataDegraded records a metadata fetch that fell back to defaults.
func (c *Collector) IncMetadataDegraded() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.metadataDegraded++
	c.mu.Unlock()
}

// --- Warehouse ---
// Warehouse counters are per-call, not per-row. A single write of N rows
// counts as 1 success.

// IncWarehouseWriteSuccess records a successful warehouse write (per-call).
func (c *Collector) IncWarehouseWriteSuccess() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.warehouseWriteSuccess++
	c.mu.Unlock()
}

// IncWarehouseWriteFailure records a failed warehouse write (per-call).
func (c *Collector) IncWarehouseWriteFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.warehouseWriteFailure++
	c.mu.Unlock()
}

// Snapshot returns an immutable point-in-time view of all metrics.
// The Collector can continue to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		SymbolsFetched: c.symbolsFetched,
		SymbolsEmpty:   c.symbolsEmpty,
		SymbolsFailed:  c.symbolsFailed,

		RowsEmitted: c.rowsEmitted,

		MetadataDegraded: c.metadataDegraded,

		WarehouseWriteSuccess: c.warehouseWriteSuccess,
		WarehouseWriteFailure: c.warehouseWriteFailure,

		Pipeline:       c.pipeline,
		StorageBackend: c.storageBackend,
		RunID:          c.runID,
		Mode:           c.mode,
	}
}
