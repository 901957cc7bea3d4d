// Package chain holds the historical option-chain data model and the CSV
// datafeed that loads it.
package chain

import "time"

// OptionType values as they appear in chain data. Matching is prefix-based
// and case-insensitive ("c"/"call"/"CALL" are all calls).
const (
	Call = "call"
	Put  = "put"
)

// Quote is one option quote row: a contract observed on one quote date.
type Quote struct {
	UnderlyingSymbol string    `json:"underlying_symbol"`
	UnderlyingPrice  float64   `json:"underlying_price"`
	OptionType       string    `json:"option_type"`
	Expiration       time.Time `json:"expiration"`
	QuoteDate        time.Time `json:"quote_date"`
	Strike           float64   `json:"strike"`
	Bid              float64   `json:"bid"`
	Ask              float64   `json:"ask"`

	// Optional columns; zero when the feed does not provide them.
	Volume int64   `json:"volume,omitempty"`
	Delta  float64 `json:"delta,omitempty"`
}

// Mid returns the bid/ask midpoint, the default fill price model.
func (q Quote) Mid() float64 {
	return (q.Bid + q.Ask) / 2
}

// DTE returns days to expiration as of the quote date.
func (q Quote) DTE() int {
	return int(q.Expiration.Sub(q.QuoteDate).Hours() / 24)
}

// IsCall reports whether the quote is a call option.
func (q Quote) IsCall() bool {
	return len(q.OptionType) > 0 && (q.OptionType[0] == 'c' || q.OptionType[0] == 'C')
}

// IsPut reports whether the quote is a put option.
func (q Quote) IsPut() bool {
	return len(q.OptionType) > 0 && (q.OptionType[0] == 'p' || q.OptionType[0] == 'P')
}

// Table is an option chain: quote rows across dates, strikes and expirations.
type Table []Quote

// Symbols returns the distinct underlying symbols in first-seen order.
func (t Table) Symbols() []string {
	seen := make(map[string]bool)
	var out []string
	for _, q := range t {
		if !seen[q.UnderlyingSymbol] {
			seen[q.UnderlyingSymbol] = true
			out = append(out, q.UnderlyingSymbol)
		}
	}
	return out
}

// TrimExpirations keeps rows whose expiration falls inside [start, end].
// A zero bound is open on that side.
func (t Table) TrimExpirations(start, end time.Time) Table {
	out := make(Table, 0, len(t))
	for _, q := range t {
		if !start.IsZero() && q.Expiration.Before(start) {
			continue
		}
		if !end.IsZero() && q.Expiration.After(end) {
			continue
		}
		out = append(out, q)
	}
	return out
}
