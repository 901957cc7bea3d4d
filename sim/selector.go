package sim

import (
	"fmt"
	"math"
	"sort"
)

// SelectorFunc picks exactly one candidate out of a group of raw trades
// sharing an entry date. Candidates are in the raw, pre-normalization
// schema, so strategy-specific columns (OTM%, entry cost) are visible.
//
// The built-in selectors break ties by keeping the earliest candidate in
// group order, which makes selection deterministic for identical input.
type SelectorFunc func(candidates []Row) Row

var builtinSelectors = map[string]SelectorFunc{
	"nearest":         selectNearest,
	"highest_premium": selectHighestPremium,
	"lowest_premium":  selectLowestPremium,
	"first":           selectFirst,
}

// SelectorNames lists the valid built-in selector names, sorted.
func SelectorNames() []string {
	names := make([]string, 0, len(builtinSelectors))
	for name := range builtinSelectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func resolveSelector(name string, custom SelectorFunc) (SelectorFunc, error) {
	if custom != nil {
		return custom, nil
	}
	fn, ok := builtinSelectors[name]
	if !ok {
		return nil, fmt.Errorf("%w %q, choose from: %v", ErrUnknownSelector, name, SelectorNames())
	}
	return fn, nil
}

// selectNearest picks the candidate closest to at-the-money: lowest
// absolute OTM%, falling back to strike-vs-underlying distance, then to
// the first candidate when neither is available.
func selectNearest(candidates []Row) Row {
	if col, ok := findOTMCol(candidates[0]); ok {
		return minBy(candidates, func(r Row) (float64, bool) {
			v, ok := rowFloat(r, col)
			return math.Abs(v), ok
		})
	}

	strikeCol := ""
	for _, c := range []string{"strike", "strike_leg1"} {
		if has(candidates[0], c) {
			strikeCol = c
			break
		}
	}
	underlyingCol := ""
	for _, c := range []string{"underlying_price_entry", "underlying_price_entry_leg1"} {
		if has(candidates[0], c) {
			underlyingCol = c
			break
		}
	}
	if strikeCol != "" && underlyingCol != "" {
		return minBy(candidates, func(r Row) (float64, bool) {
			strike, ok1 := rowFloat(r, strikeCol)
			price, ok2 := rowFloat(r, underlyingCol)
			return math.Abs(strike - price), ok1 && ok2
		})
	}
	return candidates[0]
}

// selectHighestPremium picks the largest credit. Multi-leg costs are
// signed (negative = credit), so the minimum wins; bare single-leg prices
// are unsigned, so the maximum wins.
func selectHighestPremium(candidates []Row) Row {
	col := findCostCol(candidates[0])
	if col == "entry" {
		return minBy(candidates, func(r Row) (float64, bool) {
			v, ok := rowFloat(r, col)
			return -v, ok
		})
	}
	return minBy(candidates, func(r Row) (float64, bool) {
		return rowFloat(r, col)
	})
}

// selectLowestPremium picks the cheapest absolute debit or credit.
func selectLowestPremium(candidates []Row) Row {
	col := findCostCol(candidates[0])
	return minBy(candidates, func(r Row) (float64, bool) {
		v, ok := rowFloat(r, col)
		return math.Abs(v), ok
	})
}

func selectFirst(candidates []Row) Row {
	return candidates[0]
}

// findOTMCol locates the OTM-percentage column, trying the single-leg name
// then the per-leg variants.
func findOTMCol(r Row) (string, bool) {
	for _, col := range []string{"otm_pct_entry", "otm_pct_entry_leg1", "otm_pct_leg1"} {
		if has(r, col) {
			return col, true
		}
	}
	return "", false
}

func findCostCol(r Row) string {
	if has(r, colTotalEntryCost) {
		return colTotalEntryCost
	}
	return "entry"
}

// minBy returns the first row achieving the minimum key. Rows whose key is
// unavailable are skipped; if none have a key, the first row is returned.
func minBy(candidates []Row, key func(Row) (float64, bool)) Row {
	best := -1
	bestVal := math.Inf(1)
	for i, r := range candidates {
		v, ok := key(r)
		if !ok {
			continue
		}
		if v < bestVal {
			best = i
			bestVal = v
		}
	}
	if best < 0 {
		return candidates[0]
	}
	return candidates[best]
}
