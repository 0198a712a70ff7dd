// Package pipeline implements the incremental extraction-and-load engine:
// watermark resolution, per-symbol fetch/normalize with fault isolation,
// run-outcome tracking, and the orchestrator that drives one run end to end.
package pipeline

import (
	"context"
	"time"

	"github.com/lodeworks/stockpipe/source"
	"github.com/lodeworks/stockpipe/types"
)

// FetchStatus classifies the result of one price fetch.
type FetchStatus string

const (
	// FetchFetched means the source returned at least one bar.
	FetchFetched FetchStatus = "fetched"
	// FetchEmpty means no new bars exist in the requested range.
	FetchEmpty FetchStatus = "empty"
	// FetchFailed means the source call failed.
	FetchFailed FetchStatus = "failed"
)

// FetchResult is the first-class three-way outcome of a price fetch.
// Exactly one of Table (fetched) or Err (failed) is set; empty carries
// neither.
type FetchResult struct {
	Status FetchStatus
	Table  *types.RawTable
	Err    error
}

// Fetcher retrieves raw data for one symbol at a time from the source.
// It classifies outcomes; it never retries and never panics past the
// per-symbol boundary.
type Fetcher struct {
	source source.Source
}

// NewFetcher creates a fetcher over the given source.
func NewFetcher(src source.Source) *Fetcher {
	return &Fetcher{source: src}
}

// FetchPrices retrieves daily bars for [start, end) and classifies the
// result as fetched, empty, or failed.
func (f *Fetcher) FetchPrices(ctx context.Context, symbol string, start, end time.Time) FetchResult {
	table, err := f.source.GetPriceHistory(ctx, symbol, start, end)
	if err != nil {
		return FetchResult{Status: FetchFailed, Err: err}
	}
	if table.Empty() {
		return FetchResult{Status: FetchEmpty}
	}
	return FetchResult{Status: FetchFetched, Table: table}
}

// FetchMetadata retrieves the company record for a symbol.
// Errors are returned to the caller, which degrades them to a
// default-filled record rather than failing the symbol.
func (f *Fetcher) FetchMetadata(ctx context.Context, symbol string) (types.RawRecord, error) {
	return f.source.GetCompanyInfo(ctx, symbol)
}
