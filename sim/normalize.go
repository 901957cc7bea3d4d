package sim

import (
	"fmt"
	"strings"
	"time"
)

// Shape detection markers. A raw table is single-leg when it carries bare
// entry/exit prices and an entry quote date but no aggregate cost column;
// calendar/diagonal when it has a per-leg front expiration; multi-leg
// otherwise.
const (
	colTotalEntryCost    = "total_entry_cost"
	colTotalExitProceeds = "total_exit_proceeds"
	calendarMarker       = "expiration_leg1"
)

var singleLegCols = []string{"entry", "exit", "quote_date_entry"}

// classifyShape inspects the column set of a raw candidate row and returns
// the table's shape. Single-leg is checked first so that the bare
// entry/exit layout is never mistaken for a spread.
func classifyShape(r Row) Shape {
	single := true
	for _, c := range singleLegCols {
		if !has(r, c) {
			single = false
			break
		}
	}
	if single && !has(r, colTotalEntryCost) {
		return ShapeSingleLeg
	}
	if has(r, calendarMarker) {
		return ShapeCalendar
	}
	return ShapeMultiLeg
}

// normalizeTrades maps raw strategy output to the canonical trade schema.
//
// After normalization EntryCost and ExitProceeds are signed cash flows:
// negative values are credits received, positive values are debits paid.
// Multi-leg strategies already encode this in their totals; short
// single-leg strategies carry unsigned option prices, so shortSingle
// negates them. When exitOffsetDays > 0 the exit date becomes
// expiration - exitOffsetDays for every shape.
func normalizeTrades(rows []Row, shortSingle bool, exitOffsetDays int) ([]NormalizedTrade, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	shape := classifyShape(rows[0])
	out := make([]NormalizedTrade, 0, len(rows))
	for i, r := range rows {
		var (
			t   NormalizedTrade
			err error
		)
		switch shape {
		case ShapeSingleLeg:
			t, err = extractSingleLeg(r, shortSingle)
		case ShapeCalendar:
			t, err = extractCalendar(r)
		default:
			t, err = extractMultiLeg(r)
		}
		if err != nil {
			return nil, fmt.Errorf("normalize %s trade %d: %w", shape, i, err)
		}
		if exitOffsetDays > 0 {
			t.ExitDate = t.Expiration.AddDate(0, 0, -exitOffsetDays)
		}
		out = append(out, t)
	}
	return out, nil
}

func extractSingleLeg(r Row, negate bool) (NormalizedTrade, error) {
	entryDate, ok := rowTime(r, "quote_date_entry")
	if !ok {
		return NormalizedTrade{}, ErrMissingEntryDate
	}
	expiration, ok := rowTime(r, "expiration")
	if !ok {
		return NormalizedTrade{}, ErrMissingExpiration
	}

	entry, _ := rowFloat(r, "entry")
	exit, _ := rowFloat(r, "exit")
	// Short singles: selling at entry is a credit (negative cost), buying
	// back at exit is a debit (negative proceeds). This lines up with the
	// multi-leg convention where total_entry_cost < 0 means credit.
	sign := 1.0
	if negate {
		sign = -1
	}

	optType, _ := rowString(r, "option_type")
	desc := optType
	if strike, ok := rowFloat(r, "strike"); ok {
		desc += " " + formatStrike(strike)
	}

	symbol, _ := rowString(r, "underlying_symbol")
	pct, _ := rowFloat(r, "pct_change")

	return NormalizedTrade{
		EntryDate:        entryDate,
		ExitDate:         expiration, // held to expiry unless an exit offset applies
		Expiration:       expiration,
		UnderlyingSymbol: symbol,
		EntryCost:        entry * sign,
		ExitProceeds:     exit * sign,
		PctChange:        pct,
		Description:      desc,
	}, nil
}

func extractCalendar(r Row) (NormalizedTrade, error) {
	frontExp, ok := rowTime(r, calendarMarker)
	if !ok {
		return NormalizedTrade{}, ErrMissingExpiration
	}

	entryDate, ok := calendarEntryDate(r, frontExp)
	if !ok {
		return NormalizedTrade{}, ErrMissingEntryDate
	}

	strike, hasStrike := rowFloat(r, "strike")
	if !hasStrike {
		strike, hasStrike = rowFloat(r, "strike_leg1")
	}
	optType, _ := rowString(r, "option_type")
	desc := "cal " + optType
	if hasStrike {
		desc += " " + formatStrike(strike)
	}

	symbol, _ := rowString(r, "underlying_symbol")
	cost, _ := rowFloat(r, colTotalEntryCost)
	proceeds, _ := rowFloat(r, colTotalExitProceeds)
	pct, _ := rowFloat(r, "pct_change")

	// The spread is assumed closed at front-month expiry.
	return NormalizedTrade{
		EntryDate:        entryDate,
		ExitDate:         frontExp,
		Expiration:       frontExp,
		UnderlyingSymbol: symbol,
		EntryCost:        cost,
		ExitProceeds:     proceeds,
		PctChange:        pct,
		Description:      desc,
	}, nil
}

// calendarEntryDate tries quote_date, then quote_date_entry, then derives
// front expiration minus front-leg DTE.
func calendarEntryDate(r Row, frontExp time.Time) (time.Time, bool) {
	if t, ok := rowTime(r, "quote_date"); ok {
		return t, true
	}
	if t, ok := rowTime(r, "quote_date_entry"); ok {
		return t, true
	}
	if dte, ok := rowFloat(r, "dte_entry_leg1"); ok {
		return frontExp.AddDate(0, 0, -int(dte)), true
	}
	return time.Time{}, false
}

func extractMultiLeg(r Row) (NormalizedTrade, error) {
	expiration, ok := rowTime(r, "expiration")
	if !ok {
		if expiration, ok = rowTime(r, calendarMarker); !ok {
			return NormalizedTrade{}, ErrMissingExpiration
		}
	}

	entryDate, ok := multiLegEntryDate(r, expiration)
	if !ok {
		return NormalizedTrade{}, ErrMissingEntryDate
	}

	symbol, _ := rowString(r, "underlying_symbol")
	cost, _ := rowFloat(r, colTotalEntryCost)
	proceeds, _ := rowFloat(r, colTotalExitProceeds)
	pct, _ := rowFloat(r, "pct_change")

	return NormalizedTrade{
		EntryDate:        entryDate,
		ExitDate:         expiration,
		Expiration:       expiration,
		UnderlyingSymbol: symbol,
		EntryCost:        cost,
		ExitProceeds:     proceeds,
		PctChange:        pct,
		Description:      legDescription(r),
	}, nil
}

// multiLegEntryDate tries quote_date_entry, then quote_date_entry_leg1,
// then derives expiration minus dte_entry.
func multiLegEntryDate(r Row, expiration time.Time) (time.Time, bool) {
	if t, ok := rowTime(r, "quote_date_entry"); ok {
		return t, true
	}
	if t, ok := rowTime(r, "quote_date_entry_leg1"); ok {
		return t, true
	}
	if dte, ok := rowFloat(r, "dte_entry"); ok {
		return expiration.AddDate(0, 0, -int(dte)), true
	}
	return time.Time{}, false
}

// legDescription concatenates "type strike" for legs 1..4, e.g.
// "put 210/put 212.5". Falls back to "multi-leg" when no leg columns exist.
func legDescription(r Row) string {
	var parts []string
	for i := 1; i <= 4; i++ {
		optType, okT := rowString(r, fmt.Sprintf("option_type_leg%d", i))
		strike, okS := rowFloat(r, fmt.Sprintf("strike_leg%d", i))
		if okT && okS {
			parts = append(parts, optType+" "+formatStrike(strike))
		}
	}
	if len(parts) == 0 {
		return "multi-leg"
	}
	return strings.Join(parts, "/")
}

// resolveEntryDate finds the entry date of a raw row regardless of shape.
// The selector grouping reuses this so candidates are grouped the same way
// the normalizer will date them.
func resolveEntryDate(r Row) (time.Time, error) {
	for _, col := range []string{"quote_date_entry", "quote_date_entry_leg1", "quote_date"} {
		if t, ok := rowTime(r, col); ok {
			return t, nil
		}
	}
	if exp, ok := rowTime(r, "expiration"); ok {
		if dte, ok := rowFloat(r, "dte_entry"); ok {
			return exp.AddDate(0, 0, -int(dte)), nil
		}
	}
	if exp, ok := rowTime(r, calendarMarker); ok {
		if dte, ok := rowFloat(r, "dte_entry_leg1"); ok {
			return exp.AddDate(0, 0, -int(dte)), nil
		}
	}
	return time.Time{}, ErrMissingEntryDate
}
