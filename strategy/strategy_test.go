package strategy

import (
	"errors"
	"math"
	"testing"
	"time"

	"optbt/chain"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("bad fixture date %q: %v", s, err)
	}
	return d
}

func quote(sym, typ string, exp, qd time.Time, strike, bid, ask, under float64) chain.Quote {
	return chain.Quote{
		UnderlyingSymbol: sym,
		UnderlyingPrice:  under,
		OptionType:       typ,
		Expiration:       exp,
		QuoteDate:        qd,
		Strike:           strike,
		Bid:              bid,
		Ask:              ask,
	}
}

// testChain is one expiration cycle for SPX observed twice: at entry
// (30 DTE, underlying 100) and at expiration day (underlying 102).
// Mid prices at entry: calls 7.0/3.5/1.5/0.5 for strikes 95..110,
// puts 1.0/2.5/5.5 for 95..105.
func testChain(t *testing.T) chain.Table {
	entry := day(t, "2023-01-18")
	exp := day(t, "2023-02-17")

	return chain.Table{
		quote("SPX", "call", exp, entry, 95, 6.9, 7.1, 100),
		quote("SPX", "call", exp, entry, 100, 3.4, 3.6, 100),
		quote("SPX", "call", exp, entry, 105, 1.4, 1.6, 100),
		quote("SPX", "call", exp, entry, 110, 0.4, 0.6, 100),
		quote("SPX", "put", exp, entry, 95, 0.9, 1.1, 100),
		quote("SPX", "put", exp, entry, 100, 2.4, 2.6, 100),
		quote("SPX", "put", exp, entry, 105, 5.4, 5.6, 100),

		quote("SPX", "call", exp, exp, 95, 6.9, 7.1, 102),
		quote("SPX", "call", exp, exp, 100, 1.9, 2.1, 102),
		quote("SPX", "call", exp, exp, 105, 0.0, 0.1, 102),
		quote("SPX", "call", exp, exp, 110, 0.0, 0.1, 102),
		quote("SPX", "put", exp, exp, 95, 0.0, 0.1, 102),
		quote("SPX", "put", exp, exp, 100, 0.0, 0.2, 102),
		quote("SPX", "put", exp, exp, 105, 2.9, 3.1, 102),
	}
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func rowFloat(t *testing.T, r map[string]any, col string) float64 {
	t.Helper()
	v, ok := r[col].(float64)
	if !ok {
		t.Fatalf("column %q missing or not float64: %#v", col, r[col])
	}
	return v
}

func TestLongCallsRawTrades(t *testing.T) {
	rows, err := LongCalls(Params{}).RawTrades(testChain(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected 4 call candidates, got %d", len(rows))
	}
	for _, r := range rows {
		if r["option_type"] != "call" {
			t.Fatalf("expected call rows, got %#v", r["option_type"])
		}
	}
	// Strike 100: enter at 3.5 mid, exit at 2.0 mid.
	r := rows[1]
	if !near(rowFloat(t, r, "entry"), 3.5) || !near(rowFloat(t, r, "exit"), 2.0) {
		t.Fatalf("unexpected fills: entry=%v exit=%v", r["entry"], r["exit"])
	}
	if !near(rowFloat(t, r, "pct_change"), (2.0-3.5)/3.5) {
		t.Fatalf("unexpected pct_change %v", r["pct_change"])
	}
}

func TestShortPutsPctChangeIsOnCredit(t *testing.T) {
	rows, err := ShortPuts(Params{}).RawTrades(testChain(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 put candidates, got %d", len(rows))
	}
	// Strike 105: sold at 5.5, bought back at 3.0. The raw row keeps
	// unsigned prices but pct_change is computed on the credit.
	r := rows[2]
	if !near(rowFloat(t, r, "entry"), 5.5) {
		t.Fatalf("expected unsigned entry 5.5, got %v", r["entry"])
	}
	if !near(rowFloat(t, r, "pct_change"), 2.5/5.5) {
		t.Fatalf("unexpected pct_change %v", r["pct_change"])
	}
}

func TestEvaluateFiltersWorthlessEntries(t *testing.T) {
	data := testChain(t)
	// A quote below the bid/ask floor never becomes a candidate.
	data = append(data, quote("SPX", "call", day(t, "2023-02-17"), day(t, "2023-01-18"), 115, 0.0, 0.04, 100))
	rows, err := LongCalls(Params{}).RawTrades(data)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range rows {
		if rowFloat(t, r, "strike") == 115 {
			t.Fatal("worthless quote passed the entry filter")
		}
	}
}

func TestVerticalSpreadSigns(t *testing.T) {
	data := testChain(t)

	// Long call spread: buy the lower strike, sell the higher. The
	// 95/100 spread costs 7.0 - 3.5 = 3.5 debit.
	rows, err := LongCallSpread(Params{}).RawTrades(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 6 {
		t.Fatalf("expected 6 call spreads from 4 strikes, got %d", len(rows))
	}
	r := rows[0]
	if !near(rowFloat(t, r, "total_entry_cost"), 3.5) {
		t.Fatalf("long call spread should be a debit of 3.5, got %v", r["total_entry_cost"])
	}
	if !near(rowFloat(t, r, "total_exit_proceeds"), 7.0-2.0) {
		t.Fatalf("unexpected exit proceeds %v", r["total_exit_proceeds"])
	}

	// Short put spread: sell the higher strike, buy the lower. The
	// 95/100 spread collects 2.5 - 1.0 = 1.5 credit.
	rows, err = ShortPutSpread(Params{}).RawTrades(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 put spreads, got %d", len(rows))
	}
	if got := rowFloat(t, rows[0], "total_entry_cost"); !near(got, -1.5) {
		t.Fatalf("short put spread should be a credit of 1.5, got %v", got)
	}

	// Long put spread flips to a debit: buy the higher, sell the lower.
	rows, err = LongPutSpread(Params{}).RawTrades(data)
	if err != nil {
		t.Fatal(err)
	}
	if got := rowFloat(t, rows[0], "total_entry_cost"); !near(got, 1.5) {
		t.Fatalf("long put spread should be a debit of 1.5, got %v", got)
	}
}

func TestStraddleRequiresMatchingStrikes(t *testing.T) {
	rows, err := LongStraddle(Params{}).RawTrades(testChain(t))
	if err != nil {
		t.Fatal(err)
	}
	// Puts exist at 95/100/105 only, so three straddles.
	if len(rows) != 3 {
		t.Fatalf("expected 3 straddles, got %d", len(rows))
	}
	for _, r := range rows {
		if rowFloat(t, r, "strike_leg1") != rowFloat(t, r, "strike_leg2") {
			t.Fatalf("straddle legs differ in strike: %#v", r)
		}
	}
	// 100 straddle: 2.5 put + 3.5 call = 6.0 debit, exits at 2.1.
	var found bool
	for _, r := range rows {
		if rowFloat(t, r, "strike_leg1") == 100 {
			found = true
			if !near(rowFloat(t, r, "total_entry_cost"), 6.0) {
				t.Fatalf("unexpected straddle cost %v", r["total_entry_cost"])
			}
			if !near(rowFloat(t, r, "total_exit_proceeds"), 2.1) {
				t.Fatalf("unexpected straddle proceeds %v", r["total_exit_proceeds"])
			}
		}
	}
	if !found {
		t.Fatal("100 straddle not generated")
	}
}

func TestShortStrangleOrderingAndSign(t *testing.T) {
	rows, err := ShortStrangle(Params{}).RawTrades(testChain(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) == 0 {
		t.Fatal("no strangles generated")
	}
	for _, r := range rows {
		put := rowFloat(t, r, "strike_leg1")
		call := rowFloat(t, r, "strike_leg2")
		if put >= call {
			t.Fatalf("strangle put strike %v not below call strike %v", put, call)
		}
		if rowFloat(t, r, "total_entry_cost") >= 0 {
			t.Fatalf("short strangle should be a credit, got %v", r["total_entry_cost"])
		}
	}
}

func TestIronCondorLegOrdering(t *testing.T) {
	rows, err := IronCondor(Params{}).RawTrades(testChain(t))
	if err != nil {
		t.Fatal(err)
	}
	// Only 95/100 puts against 105/110 calls fit p1 < p2 < c1 < c2.
	if len(rows) != 1 {
		t.Fatalf("expected 1 condor, got %d", len(rows))
	}
	r := rows[0]
	strikes := []float64{
		rowFloat(t, r, "strike_leg1"),
		rowFloat(t, r, "strike_leg2"),
		rowFloat(t, r, "strike_leg3"),
		rowFloat(t, r, "strike_leg4"),
	}
	for i := 1; i < len(strikes); i++ {
		if strikes[i] <= strikes[i-1] {
			t.Fatalf("condor strikes not ascending: %v", strikes)
		}
	}
	// +1.0 - 2.5 - 1.5 + 0.5 = -2.5 credit.
	if !near(rowFloat(t, r, "total_entry_cost"), -2.5) {
		t.Fatalf("unexpected condor cost %v", r["total_entry_cost"])
	}
}

func TestIronButterflyPinsInnerStrikes(t *testing.T) {
	rows, err := IronButterfly(Params{}).RawTrades(testChain(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) == 0 {
		t.Fatal("no butterflies generated")
	}
	for _, r := range rows {
		if rowFloat(t, r, "strike_leg2") != rowFloat(t, r, "strike_leg3") {
			t.Fatalf("butterfly body legs differ: %#v", r)
		}
	}
}

func TestLongCalendarCall(t *testing.T) {
	entry := day(t, "2023-01-18")
	front := day(t, "2023-02-17")
	back := day(t, "2023-03-19")

	data := chain.Table{
		quote("SPX", "call", front, entry, 100, 3.4, 3.6, 100),
		quote("SPX", "call", back, entry, 100, 5.4, 5.6, 100),
		quote("SPX", "call", front, front, 100, 1.9, 2.1, 102),
		quote("SPX", "call", back, front, 100, 4.4, 4.6, 102),
	}

	rows, err := LongCalendarCall(Params{}).RawTrades(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 calendar, got %d", len(rows))
	}
	r := rows[0]
	if !r["expiration_leg1"].(time.Time).Equal(front) {
		t.Fatalf("front expiration wrong: %v", r["expiration_leg1"])
	}
	if !r["quote_date"].(time.Time).Equal(entry) {
		t.Fatalf("entry quote date wrong: %v", r["quote_date"])
	}
	// Buy back at 5.5, sell front at 3.5: 2.0 debit. Unwind at front
	// expiry: 4.5 - 2.0 = 2.5.
	if !near(rowFloat(t, r, "total_entry_cost"), 2.0) {
		t.Fatalf("unexpected calendar cost %v", r["total_entry_cost"])
	}
	if !near(rowFloat(t, r, "total_exit_proceeds"), 2.5) {
		t.Fatalf("unexpected calendar proceeds %v", r["total_exit_proceeds"])
	}
}

func TestCalendarRejectsOutOfWindowLegs(t *testing.T) {
	entry := day(t, "2023-01-18")
	front := day(t, "2023-01-28") // 10 DTE, below the front window
	back := day(t, "2023-03-19")

	data := chain.Table{
		quote("SPX", "call", front, entry, 100, 3.4, 3.6, 100),
		quote("SPX", "call", back, entry, 100, 5.4, 5.6, 100),
		quote("SPX", "call", front, front, 100, 1.9, 2.1, 102),
		quote("SPX", "call", back, front, 100, 4.4, 4.6, 102),
	}

	rows, err := LongCalendarCall(Params{}).RawTrades(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no calendars outside the DTE windows, got %d", len(rows))
	}
}

func TestByNameResolvesEveryRegisteredStrategy(t *testing.T) {
	names := Names()
	if len(names) != 16 {
		t.Fatalf("expected 16 registered strategies, got %d", len(names))
	}
	for _, name := range names {
		s, err := ByName(name, nil)
		if err != nil {
			t.Fatalf("ByName(%q): %v", name, err)
		}
		if s.Name() != name {
			t.Fatalf("ByName(%q) built %q", name, s.Name())
		}
	}
}

func TestByNameUnknown(t *testing.T) {
	if _, err := ByName("covered_call", nil); !errors.Is(err, ErrUnknownStrategy) {
		t.Fatalf("expected ErrUnknownStrategy, got %v", err)
	}
}

func TestParamsFromMap(t *testing.T) {
	p, err := ParamsFromMap(map[string]any{"max_entry_dte": 45, "exit_dte": 7})
	if err != nil {
		t.Fatal(err)
	}
	if p.MaxEntryDTE != 45 || p.ExitDTE != 7 {
		t.Fatalf("explicit params lost: %+v", p)
	}
	if p.MinBidAsk != 0.05 || p.FrontDTEMin != 20 {
		t.Fatalf("defaults not applied: %+v", p)
	}
}
