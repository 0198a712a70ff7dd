package yahoo

import (
	"context"
	"testing"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/shopspring/decimal"

	"github.com/lodeworks/stockpipe/pipeline"
)

func TestBarRow_MatchesColumnOrder(t *testing.T) {
	ts := time.Date(2026, 2, 2, 21, 0, 0, 0, time.UTC)
	bar := &finance.ChartBar{
		Timestamp: int(ts.Unix()),
		Open:      decimal.NewFromFloat(241.5),
		High:      decimal.NewFromFloat(244.9),
		Low:       decimal.NewFromFloat(240.0),
		Close:     decimal.NewFromFloat(243.3),
		AdjClose:  decimal.NewFromFloat(242.1),
		Volume:    48210000,
	}

	row := barRow(bar)
	if len(row) != len(priceColumns) {
		t.Fatalf("row has %d values for %d columns", len(row), len(priceColumns))
	}

	got, ok := row[0].(time.Time)
	if !ok || !got.Equal(ts) {
		t.Errorf("date = %v, want %v", row[0], ts)
	}
	if c, ok := row[4].(decimal.Decimal); !ok || !c.Equal(decimal.NewFromFloat(243.3)) {
		t.Errorf("close = %v", row[4])
	}
	if adj, ok := row[5].(decimal.Decimal); !ok || !adj.Equal(decimal.NewFromFloat(242.1)) {
		t.Errorf("adj close = %v", row[5])
	}
	if v, ok := row[6].(int64); !ok || v != 48210000 {
		t.Errorf("volume = %v", row[6])
	}
}

func TestEquityRecord(t *testing.T) {
	eq := &finance.Equity{
		LongName:  "Apple Inc.",
		MarketCap: 3_500_000_000_000,
	}
	eq.ShortName = "Apple"
	eq.FullExchangeName = "NasdaqGS"
	eq.CurrencyID = "USD"

	record := equityRecord("AAPL", eq)
	if record["symbol"] != "AAPL" {
		t.Errorf("symbol = %v", record["symbol"])
	}
	if record["company_name"] != "Apple Inc." {
		t.Errorf("company_name = %v, want long name preferred", record["company_name"])
	}
	if record["market_cap"] != int64(3_500_000_000_000) {
		t.Errorf("market_cap = %v", record["market_cap"])
	}
	if record["exchange"] != "NasdaqGS" {
		t.Errorf("exchange = %v", record["exchange"])
	}
}

func TestEquityRecord_ShortNameFallback(t *testing.T) {
	eq := &finance.Equity{}
	eq.ShortName = "Apple"

	record := equityRecord("AAPL", eq)
	if record["company_name"] != "Apple" {
		t.Errorf("company_name = %v, want short name when long name is empty", record["company_name"])
	}
}

// The equity record feeds NormalizeMetadata; market_cap and the long
// company name must survive into the metadata row.
func TestEquityRecord_FlowsThroughNormalization(t *testing.T) {
	eq := &finance.Equity{
		LongName:  "Microsoft Corporation",
		MarketCap: 3_100_000_000_000,
	}
	eq.ShortName = "Microsoft"

	now := time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC)
	meta := pipeline.NormalizeMetadata(equityRecord("MSFT", eq), "MSFT", now)

	if meta.CompanyName != "Microsoft Corporation" {
		t.Errorf("CompanyName = %q", meta.CompanyName)
	}
	if meta.MarketCap != 3_100_000_000_000 {
		t.Errorf("MarketCap = %d", meta.MarketCap)
	}
	if meta.Sector != "Unknown" {
		t.Errorf("Sector = %q, want default for field the provider omits", meta.Sector)
	}
}

func TestGetPriceHistory_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	if _, err := New().GetPriceHistory(ctx, "AAPL", time.Now().AddDate(0, 0, -5), time.Now()); err == nil {
		t.Error("expected context error")
	}
	if _, err := New().GetCompanyInfo(ctx, "AAPL"); err == nil {
		t.Error("expected context error")
	}
}
