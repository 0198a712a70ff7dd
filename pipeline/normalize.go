package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lodeworks/stockpipe/types"
)

// Columns required in a raw price table after canonicalization.
var requiredPriceColumns = []string{"date", "open", "high", "low", "close", "adj_close", "volume"}

// NormalizePrices converts a raw price table into canonical bars:
// hierarchical column names are flattened, names are lower-cased with
// the adjusted close renamed to adj_close, the symbol is injected, and
// dates are truncated to UTC calendar dates.
//
// Idempotent on already-canonical input. Callers classify empty tables
// before normalization; an empty table here is a caller bug and yields
// an error rather than silent no_data.
func NormalizePrices(raw *types.RawTable, symbol string) ([]types.PriceBar, error) {
	if raw.Empty() {
		return nil, fmt.Errorf("normalize %s: empty table", symbol)
	}

	index := make(map[string]int, len(raw.Columns))
	for i, name := range raw.Columns {
		index[canonicalColumn(name)] = i
	}
	for _, required := range requiredPriceColumns {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("normalize %s: missing column %q", symbol, required)
		}
	}

	bars := make([]types.PriceBar, 0, len(raw.Rows))
	for i, row := range raw.Rows {
		if len(row) != len(raw.Columns) {
			return nil, fmt.Errorf("normalize %s: row %d has %d values, want %d", symbol, i, len(row), len(raw.Columns))
		}

		date, err := toDate(row[index["date"]])
		if err != nil {
			return nil, fmt.Errorf("normalize %s: row %d: %w", symbol, i, err)
		}

		bar := types.PriceBar{Symbol: symbol, Date: date}
		for name, dst := range map[string]*decimal.Decimal{
			"open":      &bar.Open,
			"high":      &bar.High,
			"low":       &bar.Low,
			"close":     &bar.Close,
			"adj_close": &bar.AdjClose,
		} {
			d, err := toDecimal(row[index[name]])
			if err != nil {
				return nil, fmt.Errorf("normalize %s: row %d column %s: %w", symbol, i, name, err)
			}
			*dst = d
		}

		volume, err := toInt64(row[index["volume"]])
		if err != nil {
			return nil, fmt.Errorf("normalize %s: row %d column volume: %w", symbol, i, err)
		}
		bar.Volume = volume

		bars = append(bars, bar)
	}

	return bars, nil
}

// NormalizeMetadata builds a CompanyMetadata record from a raw record,
// filling documented defaults for absent fields. A nil record (degraded
// fetch) yields a fully defaulted row so the metadata stream always has
// one row per symbol.
func NormalizeMetadata(raw types.RawRecord, symbol string, now time.Time) types.CompanyMetadata {
	meta := types.CompanyMetadata{
		Symbol:      symbol,
		CompanyName: symbol,
		Sector:      "Unknown",
		Industry:    "Unknown",
		Country:     "Unknown",
		MarketCap:   0,
		UpdatedAt:   now.UTC(),
	}

	if s := stringField(raw, "company_name"); s != "" {
		meta.CompanyName = s
	}
	if s := stringField(raw, "sector"); s != "" {
		meta.Sector = s
	}
	if s := stringField(raw, "industry"); s != "" {
		meta.Industry = s
	}
	if s := stringField(raw, "country"); s != "" {
		meta.Country = s
	}
	if v, ok := raw["market_cap"]; ok {
		if n, err := toInt64(v); err == nil {
			meta.MarketCap = n
		}
	}

	return meta
}

// canonicalColumn flattens a hierarchical "Name|SYMBOL" header to its
// first level, lower-cases it, and replaces spaces with underscores.
// "Adj Close" and provider variants map to adj_close.
func canonicalColumn(name string) string {
	if i := strings.Index(name, "|"); i >= 0 {
		name = name[:i]
	}
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "_")
	if name == "adjclose" || name == "adj._close" {
		name = "adj_close"
	}
	return name
}

func stringField(raw types.RawRecord, key string) string {
	if s, ok := raw[key].(string); ok {
		return strings.TrimSpace(s)
	}
	// Providers surface some fields as typed strings.
	if v, ok := raw[key]; ok {
		if s, ok := v.(fmt.Stringer); ok {
			return strings.TrimSpace(s.String())
		}
	}
	return ""
}

// toDate coerces a raw date value to a UTC calendar date.
func toDate(v any) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		year, month, day := d.UTC().Date()
		return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), nil
	case string:
		for _, layout := range []string{types.DateLayout, time.RFC3339} {
			if t, err := time.Parse(layout, d); err == nil {
				year, month, day := t.UTC().Date()
				return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), nil
			}
		}
		return time.Time{}, fmt.Errorf("unparseable date %q", d)
	default:
		return time.Time{}, fmt.Errorf("unsupported date type %T", v)
	}
}

// toDecimal coerces a raw price value to a decimal.
func toDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, nil
	case float64:
		return decimal.NewFromFloat(n), nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case string:
		return decimal.NewFromString(n)
	default:
		return decimal.Decimal{}, fmt.Errorf("unsupported price type %T", v)
	}
}

// toInt64 coerces a raw integer value, including JSON-decoded float64s.
func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("unsupported integer type %T", v)
	}
}
