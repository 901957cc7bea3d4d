package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sort"
	"time"

	"optbt/chain"
)

// Single-leg short strategies sell rather than buy the option, so their
// raw entry/exit prices are unsigned and must be negated into signed cash
// flows during normalization.
var shortSingleLeg = map[string]bool{
	"short_calls": true,
	"short_puts":  true,
}

// Options configures one simulation run.
type Options struct {
	Capital      float64 // starting capital in dollars
	Quantity     int     // contracts per trade
	MaxPositions int     // concurrent open position budget
	Multiplier   int     // contract multiplier (100 for standard equity options)

	// Selector names the candidate-selection policy ("nearest",
	// "highest_premium", "lowest_premium", "first"). SelectFn, when set,
	// overrides it with a custom policy.
	Selector string
	SelectFn SelectorFunc
}

// DefaultOptions returns the standard run configuration.
func DefaultOptions() Options {
	return Options{
		Capital:      100_000,
		Quantity:     1,
		MaxPositions: 1,
		Multiplier:   100,
		Selector:     "nearest",
	}
}

func (o Options) validate() error {
	if o.Capital <= 0 {
		return fmt.Errorf("capital must be positive, got %v", o.Capital)
	}
	if o.Quantity < 1 {
		return fmt.Errorf("quantity must be at least 1, got %d", o.Quantity)
	}
	if o.MaxPositions < 1 {
		return fmt.Errorf("max_positions must be at least 1, got %d", o.MaxPositions)
	}
	if o.Multiplier < 1 {
		return fmt.Errorf("multiplier must be at least 1, got %d", o.Multiplier)
	}
	return nil
}

// Simulate runs a chronological simulation of an options strategy over the
// given chain data.
//
// The strategy's raw candidates are grouped per underlying symbol and
// entry date, one candidate per group is chosen by the selector, the
// chosen trades are normalized and scheduled under the position budget,
// and the executed trades become the trade log and equity curve.
//
// Invalid options and unresolvable candidate shapes return an error. A
// failing strategy does not: its error is logged and the run yields an
// empty result, the same "nothing happened" outcome as an empty chain or
// an empty candidate table.
func Simulate(data chain.Table, strat Strategy, opts Options) (*SimulationResult, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	selectFn, err := resolveSelector(opts.Selector, opts.SelectFn)
	if err != nil {
		return nil, err
	}

	var raw []Row
	if len(data) > 0 {
		raw, err = strat.RawTrades(data)
		if err != nil {
			log.Printf("[SIM] strategy %s failed: %v", strat.Name(), err)
			raw = nil
		}
	}
	if len(raw) == 0 {
		return &SimulationResult{Summary: Summary{}}, nil
	}

	selected, err := selectPerEntryDate(raw, selectFn)
	if err != nil {
		return nil, err
	}

	trades, err := normalizeTrades(selected, shortSingleLeg[strat.Name()], strat.ExitOffsetDays())
	if err != nil {
		return nil, err
	}
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].EntryDate.Before(trades[j].EntryDate)
	})

	scheduled := filterPositions(trades, opts.MaxPositions)
	tradeLog := buildTradeLog(scheduled, opts.Capital, opts.Quantity, opts.Multiplier)

	curve := make([]EquityPoint, 0, len(tradeLog))
	for _, e := range tradeLog {
		curve = append(curve, EquityPoint{Date: e.ExitDate, Equity: e.Equity})
	}

	return &SimulationResult{
		TradeLog:    tradeLog,
		EquityCurve: curve,
		Summary:     summarize(tradeLog, opts.Capital),
	}, nil
}

// selectPerEntryDate groups raw candidates by (symbol, entry date) and
// applies the selector once per group. Grouping per symbol keeps
// multi-symbol data from collapsing to one trade across all symbols.
// Groups are visited in sorted key order so selection is deterministic.
func selectPerEntryDate(raw []Row, selectFn SelectorFunc) ([]Row, error) {
	type groupKey struct {
		symbol string
		date   time.Time
	}
	groups := make(map[groupKey][]Row)
	var order []groupKey

	for i, r := range raw {
		date, err := resolveEntryDate(r)
		if err != nil {
			return nil, fmt.Errorf("candidate %d: %w", i, err)
		}
		symbol, _ := rowString(r, "underlying_symbol")
		key := groupKey{symbol: symbol, date: date}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], r)
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].symbol != order[j].symbol {
			return order[i].symbol < order[j].symbol
		}
		return order[i].date.Before(order[j].date)
	})

	selected := make([]Row, 0, len(order))
	for _, key := range order {
		selected = append(selected, selectFn(groups[key]))
	}
	return selected, nil
}

// WriteResultJSON writes a simulation result as indented JSON.
func WriteResultJSON(w io.Writer, result *SimulationResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
