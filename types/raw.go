package types

// RawTable is the pre-normalization shape of a price history response.
// Column names come straight from the provider: they may be mixed-case
// ("Adj Close") and may be hierarchical ("Close|AAPL") when the
// provider scopes columns by symbol. Cell values are provider-typed
// (decimal, float64, string, time.Time); the normalizer coerces them.
type RawTable struct {
	Columns []string
	Rows    [][]any
}

// Empty reports whether the table carries no rows.
// An empty table is a valid response (no new bars in range), not an error.
func (t *RawTable) Empty() bool {
	return t == nil || len(t.Rows) == 0
}

// RawRecord is the pre-normalization shape of a company info response.
// Providers differ in which keys they return; the normalizer fills
// documented defaults for anything absent.
type RawRecord map[string]any
