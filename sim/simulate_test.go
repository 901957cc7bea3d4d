package sim

import (
	"errors"
	"strings"
	"testing"

	"optbt/chain"
)

// stubStrategy feeds canned raw rows into the engine.
type stubStrategy struct {
	name    string
	exitDTE int
	rows    []Row
	err     error
}

func (s stubStrategy) Name() string        { return s.name }
func (s stubStrategy) ExitOffsetDays() int { return s.exitDTE }
func (s stubStrategy) RawTrades(chain.Table) ([]Row, error) {
	return s.rows, s.err
}

// oneQuote keeps Simulate from short-circuiting on an empty chain.
var oneQuote = chain.Table{{
	UnderlyingSymbol: "SPX",
	OptionType:       "call",
	Expiration:       date(2023, 2, 17),
	QuoteDate:        date(2023, 1, 18),
	Strike:           100,
	Bid:              3.4,
	Ask:              3.6,
}}

func TestSimulateEndToEnd(t *testing.T) {
	// Two candidates on Jan 3 (nearest wins: strike 100), one on Feb 20.
	rows := []Row{
		{
			"underlying_symbol": "SPX",
			"quote_date_entry":  date(2023, 1, 3),
			"expiration":        date(2023, 2, 17),
			"option_type":       "call",
			"strike":            105.0,
			"otm_pct_entry":     0.05,
			"entry":             1.5,
			"exit":              0.1,
			"pct_change":        (0.1 - 1.5) / 1.5,
		},
		{
			"underlying_symbol": "SPX",
			"quote_date_entry":  date(2023, 1, 3),
			"expiration":        date(2023, 2, 17),
			"option_type":       "call",
			"strike":            100.0,
			"otm_pct_entry":     0.0,
			"entry":             3.5,
			"exit":              5.0,
			"pct_change":        (5.0 - 3.5) / 3.5,
		},
		{
			"underlying_symbol": "SPX",
			"quote_date_entry":  date(2023, 2, 20),
			"expiration":        date(2023, 3, 17),
			"option_type":       "call",
			"strike":            110.0,
			"otm_pct_entry":     0.0,
			"entry":             2.0,
			"exit":              2.5,
			"pct_change":        (2.5 - 2.0) / 2.0,
		},
	}

	result, err := Simulate(oneQuote, stubStrategy{name: "long_calls", rows: rows}, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(result.TradeLog) != 2 {
		t.Fatalf("expected 2 executed trades, got %d", len(result.TradeLog))
	}
	// The nearest selector must have picked the ATM candidate.
	if !strings.Contains(result.TradeLog[0].Description, "100") {
		t.Fatalf("expected strike 100 selected, got %q", result.TradeLog[0].Description)
	}
	if !near(result.TradeLog[0].RealizedPnL, 150) {
		t.Fatalf("first trade pnl = %v, want 150", result.TradeLog[0].RealizedPnL)
	}
	if !near(result.Summary.TotalPnL, 200) {
		t.Fatalf("total pnl = %v, want 200", result.Summary.TotalPnL)
	}
	if len(result.EquityCurve) != 2 {
		t.Fatalf("equity curve length = %d", len(result.EquityCurve))
	}
	if !near(result.EquityCurve[1].Equity, 100_200) {
		t.Fatalf("final equity = %v, want 100200", result.EquityCurve[1].Equity)
	}
}

func TestSimulateIsDeterministic(t *testing.T) {
	rows := []Row{}
	for d := 3; d <= 9; d++ {
		for s := 95; s <= 105; s += 5 {
			rows = append(rows, Row{
				"underlying_symbol": "SPX",
				"quote_date_entry":  date(2023, 1, d),
				"expiration":        date(2023, 1, d+1),
				"option_type":       "put",
				"strike":            float64(s),
				"otm_pct_entry":     float64(s-100) / 100,
				"entry":             1.0,
				"exit":              1.1,
				"pct_change":        0.1,
			})
		}
	}

	strat := stubStrategy{name: "long_puts", rows: rows}
	first, err := Simulate(oneQuote, strat, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	second, err := Simulate(oneQuote, strat, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(first.TradeLog) != len(second.TradeLog) {
		t.Fatalf("trade counts differ: %d vs %d", len(first.TradeLog), len(second.TradeLog))
	}
	for i := range first.TradeLog {
		if first.TradeLog[i] != second.TradeLog[i] {
			t.Fatalf("trade %d differs between runs", i)
		}
	}
}

func TestSimulateShortStrategyNegation(t *testing.T) {
	rows := []Row{{
		"underlying_symbol": "SPX",
		"quote_date_entry":  date(2023, 1, 3),
		"expiration":        date(2023, 2, 17),
		"option_type":       "put",
		"strike":            100.0,
		"otm_pct_entry":     0.0,
		"entry":             2.5,
		"exit":              0.05,
		"pct_change":        (-0.05 + 2.5) / 2.5,
	}}

	result, err := Simulate(oneQuote, stubStrategy{name: "short_puts", rows: rows}, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	// Premium kept: (-0.05 - (-2.5)) * 100.
	if !near(result.TradeLog[0].RealizedPnL, 245) {
		t.Fatalf("short put pnl = %v, want 245", result.TradeLog[0].RealizedPnL)
	}
}

func TestSimulateExitOffsetFromStrategy(t *testing.T) {
	rows := []Row{{
		"underlying_symbol": "SPX",
		"quote_date_entry":  date(2023, 1, 3),
		"expiration":        date(2023, 2, 17),
		"option_type":       "call",
		"strike":            100.0,
		"otm_pct_entry":     0.0,
		"entry":             3.5,
		"exit":              5.0,
		"pct_change":        (5.0 - 3.5) / 3.5,
	}}

	result, err := Simulate(oneQuote, stubStrategy{name: "long_calls", exitDTE: 7, rows: rows}, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if want := date(2023, 2, 10); !result.TradeLog[0].ExitDate.Equal(want) {
		t.Fatalf("exit date = %v, want %v", result.TradeLog[0].ExitDate, want)
	}
}

func TestSimulateEmptyChain(t *testing.T) {
	result, err := Simulate(nil, stubStrategy{name: "long_calls"}, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(result.TradeLog) != 0 || result.Summary.TotalTrades != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
}

func TestSimulateStrategyErrorYieldsEmptyResult(t *testing.T) {
	strat := stubStrategy{name: "long_calls", err: errors.New("bad chain")}
	result, err := Simulate(oneQuote, strat, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(result.TradeLog) != 0 {
		t.Fatalf("failing strategy should yield no trades, got %d", len(result.TradeLog))
	}
}

func TestSimulateInvalidOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.Capital = 0
	if _, err := Simulate(oneQuote, stubStrategy{name: "long_calls"}, opts); err == nil {
		t.Fatal("expected error for zero capital")
	}

	opts = DefaultOptions()
	opts.Selector = "best"
	if _, err := Simulate(oneQuote, stubStrategy{name: "long_calls"}, opts); !errors.Is(err, ErrUnknownSelector) {
		t.Fatalf("expected ErrUnknownSelector, got %v", err)
	}
}

func TestSimulateMultiSymbolGrouping(t *testing.T) {
	exp := date(2023, 2, 17)
	rows := []Row{
		{
			"underlying_symbol": "AAPL",
			"quote_date_entry":  date(2023, 1, 3),
			"expiration":        exp,
			"option_type":       "call",
			"strike":            150.0,
			"otm_pct_entry":     0.0,
			"entry":             2.0,
			"exit":              2.2,
			"pct_change":        0.1,
		},
		{
			"underlying_symbol": "SPX",
			"quote_date_entry":  date(2023, 1, 3),
			"expiration":        date(2023, 3, 17),
			"option_type":       "call",
			"strike":            100.0,
			"otm_pct_entry":     0.0,
			"entry":             3.5,
			"exit":              4.0,
			"pct_change":        0.5 / 3.5,
		},
	}

	opts := DefaultOptions()
	opts.MaxPositions = 2
	result, err := Simulate(oneQuote, stubStrategy{name: "long_calls", rows: rows}, opts)
	if err != nil {
		t.Fatal(err)
	}
	// One candidate per symbol per day: both execute under a 2-slot budget.
	if len(result.TradeLog) != 2 {
		t.Fatalf("expected 1 trade per symbol, got %d", len(result.TradeLog))
	}
}

func TestWriteResultJSONEncodesInfProfitFactor(t *testing.T) {
	log := buildTradeLog([]NormalizedTrade{
		pnlTrade(date(2023, 1, 2), 1.0, 2.0),
	}, 100_000, 1, 100)
	result := &SimulationResult{TradeLog: log, Summary: summarize(log, 100_000)}

	var buf strings.Builder
	if err := WriteResultJSON(&buf, result); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"profit_factor": "inf"`) {
		t.Fatalf("+Inf profit factor not encoded as string:\n%s", buf.String())
	}
}
