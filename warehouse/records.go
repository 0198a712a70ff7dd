package warehouse

import (
	"time"

	"github.com/lodeworks/stockpipe/types"
)

// Merge key for the daily prices stream.
var PriceKey = []string{"symbol", "date"}

// PriceRows converts normalized bars into storable rows.
// Dates are stored as calendar strings so the watermark read path can
// parse them back without timezone ambiguity.
func PriceRows(bars []types.PriceBar) []map[string]any {
	rows := make([]map[string]any, 0, len(bars))
	for _, b := range bars {
		rows = append(rows, map[string]any{
			"symbol":    b.Symbol,
			"date":      b.Date.Format(types.DateLayout),
			"open":      b.Open,
			"high":      b.High,
			"low":       b.Low,
			"close":     b.Close,
			"adj_close": b.AdjClose,
			"volume":    b.Volume,
		})
	}
	return rows
}

// MetadataRows converts company metadata into storable rows.
func MetadataRows(records []types.CompanyMetadata) []map[string]any {
	rows := make([]map[string]any, 0, len(records))
	for _, m := range records {
		rows = append(rows, map[string]any{
			"symbol":       m.Symbol,
			"company_name": m.CompanyName,
			"sector":       m.Sector,
			"industry":     m.Industry,
			"country":      m.Country,
			"market_cap":   m.MarketCap,
			"updated_at":   m.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	return rows
}

// OutcomeRows converts per-symbol run outcomes into storable rows.
func OutcomeRows(outcomes []types.RunOutcome) []map[string]any {
	rows := make([]map[string]any, 0, len(outcomes))
	for _, o := range outcomes {
		row := map[string]any{
			"run_id":          o.RunID,
			"pipeline_name":   o.PipelineName,
			"symbol":          o.Symbol,
			"rows_loaded":     o.RowsLoaded,
			"start_time":      o.StartTime.UTC().Format(time.RFC3339),
			"end_time":        o.EndTime.UTC().Format(time.RFC3339),
			"status":          string(o.Status),
			"data_date_range": o.DataDateRange,
		}
		if o.ErrorMessage != nil {
			row["error_message"] = *o.ErrorMessage
		}
		rows = append(rows, row)
	}
	return rows
}

// ParseOutcomeRecord reconstructs a RunOutcome from a stored row.
// Stored rows round-trip through JSONL, so numbers come back as float64
// and timestamps as RFC3339 strings.
func ParseOutcomeRecord(record map[string]any) types.RunOutcome {
	o := types.RunOutcome{
		RunID:         toString(record["run_id"]),
		PipelineName:  toString(record["pipeline_name"]),
		Symbol:        toString(record["symbol"]),
		RowsLoaded:    toInt(record["rows_loaded"]),
		Status:        types.OutcomeStatus(toString(record["status"])),
		DataDateRange: toString(record["data_date_range"]),
	}
	o.StartTime = toTime(record["start_time"])
	o.EndTime = toTime(record["end_time"])
	if msg, ok := record["error_message"].(string); ok {
		o.ErrorMessage = &msg
	}
	return o
}

// toString converts a value to string, returning "" for nil/non-string.
func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// toInt handles both native ints and JSON-decoded float64s.
func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func toTime(v any) time.Time {
	s, ok := v.(string)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
