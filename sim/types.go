// Package sim is the options backtest simulation engine. It takes the raw
// candidate trades produced by a strategy, picks one per entry date,
// schedules them under a concurrent-position budget, and produces a trade
// log, equity curve and performance summary.
package sim

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"time"

	"optbt/chain"
)

// Row is one raw candidate trade as produced by a strategy. Different
// strategy families emit different column sets; the engine only ever
// inspects column presence and a fixed set of known names.
type Row map[string]any

// Shape classifies a raw candidate table into one of the three known
// column layouts. Each shape has its own extraction path.
type Shape int

const (
	ShapeSingleLeg Shape = iota
	ShapeMultiLeg
	ShapeCalendar
)

func (s Shape) String() string {
	switch s {
	case ShapeSingleLeg:
		return "single-leg"
	case ShapeCalendar:
		return "calendar"
	default:
		return "multi-leg"
	}
}

// Shape-resolution and configuration errors.
var (
	ErrMissingEntryDate  = errors.New("cannot resolve entry date: no quote date or expiration/dte column")
	ErrMissingExpiration = errors.New("cannot resolve expiration: no expiration column")
	ErrUnknownSelector   = errors.New("unknown selector")
)

// Strategy produces raw candidate trades from an option chain. Parameters
// are bound at construction. Name is the snake_case strategy identifier;
// the engine uses it to recognise short single-leg strategies, whose raw
// prices must be negated into signed cash flows.
type Strategy interface {
	Name() string
	// ExitOffsetDays is the days-before-expiration exit configured on the
	// strategy (0 = hold to expiration).
	ExitOffsetDays() int
	RawTrades(data chain.Table) ([]Row, error)
}

// NormalizedTrade is the canonical per-trade record every raw shape maps
// to. EntryCost and ExitProceeds are signed cash flows: negative values
// are credits received, positive values are debits paid.
type NormalizedTrade struct {
	EntryDate        time.Time `json:"entry_date"`
	ExitDate         time.Time `json:"exit_date"`
	Expiration       time.Time `json:"expiration"`
	UnderlyingSymbol string    `json:"underlying_symbol"`
	EntryCost        float64   `json:"entry_cost"`
	ExitProceeds     float64   `json:"exit_proceeds"`
	PctChange        float64   `json:"pct_change"`
	Description      string    `json:"description"`
}

// TradeLogEntry is one executed trade with dollar P&L and running equity.
type TradeLogEntry struct {
	TradeID          int       `json:"trade_id"`
	UnderlyingSymbol string    `json:"underlying_symbol"`
	EntryDate        time.Time `json:"entry_date"`
	ExitDate         time.Time `json:"exit_date"`
	DaysHeld         int       `json:"days_held"`
	Expiration       time.Time `json:"expiration"`
	EntryCost        float64   `json:"entry_cost"`
	ExitProceeds     float64   `json:"exit_proceeds"`
	Quantity         int       `json:"quantity"`
	Multiplier       int       `json:"multiplier"`
	DollarCost       float64   `json:"dollar_cost"`
	DollarProceeds   float64   `json:"dollar_proceeds"`
	RealizedPnL      float64   `json:"realized_pnl"`
	PctChange        float64   `json:"pct_change"`
	CumulativePnL    float64   `json:"cumulative_pnl"`
	Equity           float64   `json:"equity"`
	Description      string    `json:"description"`
}

// EquityPoint is one point of the equity curve, keyed by trade exit date.
type EquityPoint struct {
	Date   time.Time `json:"date"`
	Equity float64   `json:"equity"`
}

// Summary holds the performance statistics of a simulation. All fields are
// well-defined zeros for an empty trade log; ProfitFactor is +Inf when
// there are wins and no losses.
type Summary struct {
	TotalTrades    int     `json:"total_trades"`
	WinningTrades  int     `json:"winning_trades"`
	LosingTrades   int     `json:"losing_trades"`
	WinRate        float64 `json:"win_rate"`
	TotalPnL       float64 `json:"total_pnl"`
	TotalReturn    float64 `json:"total_return"`
	AvgPnL         float64 `json:"avg_pnl"`
	AvgWin         float64 `json:"avg_win"`
	AvgLoss        float64 `json:"avg_loss"`
	MaxWin         float64 `json:"max_win"`
	MaxLoss        float64 `json:"max_loss"`
	ProfitFactor   float64 `json:"profit_factor"`
	MaxDrawdown    float64 `json:"max_drawdown"`
	AvgDaysInTrade float64 `json:"avg_days_in_trade"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	SortinoRatio   float64 `json:"sortino_ratio"`
	VaR95          float64 `json:"var_95"`
	CVaR95         float64 `json:"cvar_95"`
	CalmarRatio    float64 `json:"calmar_ratio"`
}

// MarshalJSON encodes an infinite profit factor as the string "inf", since
// JSON has no representation for IEEE infinities.
func (s Summary) MarshalJSON() ([]byte, error) {
	type alias Summary
	out := struct {
		alias
		ProfitFactor any `json:"profit_factor"`
	}{alias: alias(s), ProfitFactor: s.ProfitFactor}
	if math.IsInf(s.ProfitFactor, 1) {
		out.ProfitFactor = "inf"
	}
	return json.Marshal(out)
}

// SimulationResult is the complete output of one simulation run. It is
// fully materialized and never mutated after Simulate returns.
type SimulationResult struct {
	TradeLog    []TradeLogEntry `json:"trade_log"`
	EquityCurve []EquityPoint   `json:"equity_curve"`
	Summary     Summary         `json:"summary"`
}

// Typed column accessors. Strategy output mixes time.Time, float64, int
// and string values; numbers are read through a single float path.

func rowTime(r Row, col string) (time.Time, bool) {
	v, ok := r[col]
	if !ok {
		return time.Time{}, false
	}
	t, ok := v.(time.Time)
	return t, ok
}

func rowFloat(r Row, col string) (float64, bool) {
	v, ok := r[col]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func rowString(r Row, col string) (string, bool) {
	v, ok := r[col]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func has(r Row, col string) bool {
	_, ok := r[col]
	return ok
}

// formatStrike renders a strike the shortest way ("212.5", "215").
func formatStrike(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
