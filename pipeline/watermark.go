package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/lodeworks/stockpipe/warehouse"
)

// DefaultLookbackDays is the historical floor used when a stream has no
// persisted watermark (first run or post-reset).
const DefaultLookbackDays = 730

// Resolver determines the effective fetch start date for a stream.
//
// The watermark is not materialized; it is derived from the destination's
// maximum stored date. Full refresh is handled upstream: the orchestrator
// resets the warehouse first, so resolution necessarily lands on the
// historical floor.
type Resolver struct {
	Warehouse warehouse.Warehouse
	// Now overrides the clock for testing. Defaults to time.Now.
	Now func() time.Time
}

// Resolve returns the fetch start date for a stream: the later of the
// destination's maximum stored date and now minus lookbackDays.
// Idempotent between loads. The stored boundary date is re-fetched and
// re-merged rather than advanced by a day; merge-upsert makes the
// overlap harmless.
func (r *Resolver) Resolve(ctx context.Context, stream string, lookbackDays int) (time.Time, error) {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	floor := midnightUTC(now()).AddDate(0, 0, -lookbackDays)

	max, found, err := r.Warehouse.MaxDate(ctx, stream)
	if err != nil {
		return time.Time{}, fmt.Errorf("resolving watermark for %s: %w", stream, err)
	}
	if !found || floor.After(max) {
		return floor, nil
	}
	return midnightUTC(max), nil
}

// midnightUTC truncates a time to its UTC calendar date.
func midnightUTC(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
