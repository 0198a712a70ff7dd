// Package source defines the market-data provider boundary.
//
// Implementations cross the network; everything above this boundary
// treats a fetch as a pure request/response call. Retries, throttling
// and caching are provider concerns, not pipeline concerns.
package source

import (
	"context"
	"time"

	"github.com/lodeworks/stockpipe/types"
)

// Source retrieves raw market data for one symbol at a time.
type Source interface {
	// GetPriceHistory returns daily OHLCV bars for [start, end).
	// An empty table (zero rows) means no new bars exist in range and
	// is not an error. Errors indicate transient provider failures.
	GetPriceHistory(ctx context.Context, symbol string, start, end time.Time) (*types.RawTable, error)

	// GetCompanyInfo returns a key-value record of company reference
	// data. Providers differ in coverage; absent keys are filled with
	// defaults during normalization.
	GetCompanyInfo(ctx context.Context, symbol string) (types.RawRecord, error)
}
