package metrics

import (
	"sync"
	"testing"
)

func TestCollector_IncrementMethods(t *testing.T) {
	c := NewCollector("stock_pipeline", "fs", "a1b2c3d4", "incremental")

	c.IncSymbolFetched()
	c.IncSymbolFetched()
	c.IncSymbolEmpty()
	c.IncSymbolFailed()
	c.AddRowsEmitted(251)
	c.AddRowsEmitted(249)
	c.IncMetadataDegraded()
	c.IncWarehouseWriteSuccess()
	c.IncWarehouseWriteSuccess()
	c.IncWarehouseWriteSuccess()
	c.IncWarehouseWriteFailure()

	s := c.Snapshot()

	if s.SymbolsFetched != 2 {
		t.Errorf("SymbolsFetched = %d, want 2", s.SymbolsFetched)
	}
	if s.SymbolsEmpty != 1 {
		t.Errorf("SymbolsEmpty = %d, want 1", s.SymbolsEmpty)
	}
	if s.SymbolsFailed != 1 {
		t.Errorf("SymbolsFailed = %d, want 1", s.SymbolsFailed)
	}
	if s.RowsEmitted != 500 {
		t.Errorf("RowsEmitted = %d, want 500", s.RowsEmitted)
	}
	if s.MetadataDegraded != 1 {
		t.Errorf("MetadataDegraded = %d, want 1", s.MetadataDegraded)
	}
	if s.WarehouseWriteSuccess != 3 {
		t.Errorf("WarehouseWriteSuccess = %d, want 3", s.WarehouseWriteSuccess)
	}
	if s.WarehouseWriteFailure != 1 {
		t.Errorf("WarehouseWriteFailure = %d, want 1", s.WarehouseWriteFailure)
	}
	if s.Pipeline != "stock_pipeline" {
		t.Errorf("Pipeline = %q, want stock_pipeline", s.Pipeline)
	}
	if s.Mode != "incremental" {
		t.Errorf("Mode = %q, want incremental", s.Mode)
	}
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector

	// None of these may panic on a nil receiver.
	c.IncSymbolFetched()
	c.IncSymbolEmpty()
	c.IncSymbolFailed()
	c.AddRowsEmitted(10)
	c.IncMetadataDegraded()
	c.IncWarehouseWriteSuccess()
	c.IncWarehouseWriteFailure()

	s := c.Snapshot()
	if s.SymbolsFetched != 0 || s.RowsEmitted != 0 {
		t.Error("nil collector snapshot should be zero-valued")
	}
}

func TestCollector_ConcurrentIncrements(t *testing.T) {
	c := NewCollector("stock_pipeline", "memory", "a1b2c3d4", "incremental")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.IncSymbolFetched()
			c.AddRowsEmitted(2)
		}()
	}
	wg.Wait()

	s := c.Snapshot()
	if s.SymbolsFetched != 50 {
		t.Errorf("SymbolsFetched = %d, want 50", s.SymbolsFetched)
	}
	if s.RowsEmitted != 100 {
		t.Errorf("RowsEmitted = %d, want 100", s.RowsEmitted)
	}
}
