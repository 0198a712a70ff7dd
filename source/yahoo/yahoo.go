// Package yahoo implements the source boundary against Yahoo Finance
// via piquette/finance-go.
//
// Price history uses the chart endpoint with a daily interval; company
// info uses the equity endpoint, which carries the long company name
// and market cap. The equity endpoint does not expose
// sector/industry/country, so those keys are simply absent from the
// raw record and the normalizer fills the documented defaults.
package yahoo

import (
	"context"
	"fmt"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/equity"

	"github.com/lodeworks/stockpipe/source"
	"github.com/lodeworks/stockpipe/types"
)

// priceColumns is the raw header set emitted for price history.
// "Adj Close" is deliberately the provider-style name; canonicalization
// (lower-casing, adj_close rename) belongs to the normalizer.
var priceColumns = []string{"Date", "Open", "High", "Low", "Close", "Adj Close", "Volume"}

// Client fetches market data from Yahoo Finance.
type Client struct{}

// New creates a Yahoo Finance client.
func New() *Client {
	return &Client{}
}

// GetPriceHistory returns daily bars for [start, end) as a raw table.
// A range with no trading days yields an empty table, not an error.
func (c *Client) GetPriceHistory(ctx context.Context, symbol string, start, end time.Time) (*types.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	params := &chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	}

	iter := chart.Get(params)

	table := &types.RawTable{Columns: priceColumns}
	for iter.Next() {
		table.Rows = append(table.Rows, barRow(iter.Bar()))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("yahoo: price history for %s: %w", symbol, err)
	}

	return table, nil
}

// barRow converts a provider bar into a raw table row matching priceColumns.
func barRow(bar *finance.ChartBar) []any {
	return []any{
		time.Unix(int64(bar.Timestamp), 0).UTC(),
		bar.Open,
		bar.High,
		bar.Low,
		bar.Close,
		bar.AdjClose,
		int64(bar.Volume),
	}
}

// GetCompanyInfo returns the equity-derived company record for a symbol.
func (c *Client) GetCompanyInfo(ctx context.Context, symbol string) (types.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	eq, err := equity.Get(symbol)
	if err != nil {
		return nil, fmt.Errorf("yahoo: company info for %s: %w", symbol, err)
	}
	if eq == nil {
		return nil, fmt.Errorf("yahoo: company info for %s: no equity data", symbol)
	}

	return equityRecord(symbol, eq), nil
}

// equityRecord maps the provider equity onto raw record keys. The long
// name is preferred; ticker-style short names are the fallback.
func equityRecord(symbol string, eq *finance.Equity) types.RawRecord {
	name := eq.LongName
	if name == "" {
		name = eq.ShortName
	}

	return types.RawRecord{
		"symbol":       symbol,
		"company_name": name,
		"market_cap":   eq.MarketCap,
		"exchange":     eq.FullExchangeName,
		"currency":     eq.CurrencyID,
		"quote_type":   eq.QuoteType,
		"market_state": eq.MarketState,
	}
}

// Verify Client implements the source boundary.
var _ source.Source = (*Client)(nil)
