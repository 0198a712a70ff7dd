// Package types defines core domain types for the stockpipe pipeline.
//
//nolint:revive // types is a common Go package naming convention
package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceBar is one canonical daily OHLCV row for a symbol.
// Natural key is (symbol, date); uniqueness is enforced by the
// destination's merge-upsert on load, not by the pipeline. Bars are
// immutable once emitted; a later run supersedes a bar by writing a
// new row with the same key.
type PriceBar struct {
	Symbol   string          `json:"symbol"`
	Date     time.Time       `json:"date"`
	Open     decimal.Decimal `json:"open"`
	High     decimal.Decimal `json:"high"`
	Low      decimal.Decimal `json:"low"`
	Close    decimal.Decimal `json:"close"`
	AdjClose decimal.Decimal `json:"adj_close"`
	Volume   int64           `json:"volume"`
}

// CompanyMetadata is one row of company reference data per symbol.
// The company_metadata stream is fully replaced each run; no
// historical versions are retained.
type CompanyMetadata struct {
	Symbol      string    `json:"symbol"`
	CompanyName string    `json:"company_name"`
	Sector      string    `json:"sector"`
	Industry    string    `json:"industry"`
	Country     string    `json:"country"`
	MarketCap   int64     `json:"market_cap"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DateLayout is the calendar-date wire format used across streams.
const DateLayout = "2006-01-02"
