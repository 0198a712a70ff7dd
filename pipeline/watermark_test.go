package pipeline

import (
	"testing"
	"time"

	"github.com/lodeworks/stockpipe/types"
	"github.com/lodeworks/stockpipe/warehouse"
)

func TestResolver_FirstRunUsesFloor(t *testing.T) {
	wh := warehouse.NewStubWarehouse()
	r := &Resolver{Warehouse: wh, Now: fixedClock()}

	start, err := r.Resolve(t.Context(), warehouse.StreamDailyPrices, 730)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	want := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -730)
	if !start.Equal(want) {
		t.Errorf("start = %s, want %s", start.Format(types.DateLayout), want.Format(types.DateLayout))
	}
}

func TestResolver_UsesStoredMaxDate(t *testing.T) {
	wh := warehouse.NewStubWarehouse()
	stored := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	wh.MaxDates[warehouse.StreamDailyPrices] = stored

	r := &Resolver{Warehouse: wh, Now: fixedClock()}

	start, err := r.Resolve(t.Context(), warehouse.StreamDailyPrices, 730)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !start.Equal(stored) {
		t.Errorf("start = %s, want stored max %s", start.Format(types.DateLayout), stored.Format(types.DateLayout))
	}
}

func TestResolver_FloorCapsStaleWatermark(t *testing.T) {
	wh := warehouse.NewStubWarehouse()
	// Stored date is older than the lookback floor.
	wh.MaxDates[warehouse.StreamDailyPrices] = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	r := &Resolver{Warehouse: wh, Now: fixedClock()}

	start, err := r.Resolve(t.Context(), warehouse.StreamDailyPrices, 30)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	want := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -30)
	if !start.Equal(want) {
		t.Errorf("start = %s, want floor %s", start.Format(types.DateLayout), want.Format(types.DateLayout))
	}
}

func TestResolver_Idempotent(t *testing.T) {
	wh := warehouse.NewStubWarehouse()
	wh.MaxDates[warehouse.StreamDailyPrices] = time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	r := &Resolver{Warehouse: wh, Now: fixedClock()}

	first, err := r.Resolve(t.Context(), warehouse.StreamDailyPrices, 730)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	second, err := r.Resolve(t.Context(), warehouse.StreamDailyPrices, 730)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !first.Equal(second) {
		t.Errorf("resolution not idempotent: %v vs %v", first, second)
	}
}

func TestResolver_ZeroLookbackDefaults(t *testing.T) {
	wh := warehouse.NewStubWarehouse()
	r := &Resolver{Warehouse: wh, Now: fixedClock()}

	start, err := r.Resolve(t.Context(), warehouse.StreamDailyPrices, 0)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	want := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -DefaultLookbackDays)
	if !start.Equal(want) {
		t.Errorf("start = %s, want default floor %s", start.Format(types.DateLayout), want.Format(types.DateLayout))
	}
}
