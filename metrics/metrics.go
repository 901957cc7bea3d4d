// Package metrics provides risk-adjusted performance statistics computed
// from returns series or equity curves.
//
// All functions are pure, accept plain float64 slices, drop NaN entries
// before computing, and return well-defined values (usually 0.0) for
// degenerate input instead of NaN or an error.
package metrics

import (
	"math"
	"sort"
)

// TradingDays is the default annualisation factor (252 trading days/year).
const TradingDays = 252

// SharpeRatio returns the annualised Sharpe ratio:
// mean(excess) / std(excess, sample) * sqrt(tradingDays), where excess is
// returns minus the per-period risk-free rate.
//
// Returns 0.0 with fewer than 2 observations or near-zero variance.
func SharpeRatio(returns []float64, tradingDays int, riskFreeRate float64) float64 {
	r := dropNaN(returns)
	if len(r) < 2 {
		return 0
	}
	periodRF := riskFreeRate / float64(tradingDays)
	excess := make([]float64, len(r))
	for i, v := range r {
		excess[i] = v - periodRF
	}
	std := sampleStd(excess)
	if std < 1e-12 {
		return 0
	}
	return mean(excess) / std * math.Sqrt(float64(tradingDays))
}

// SortinoRatio is like SharpeRatio but divides by downside deviation, the
// root-mean-square of negative excess returns only. Better suited to the
// asymmetric payoffs of options strategies.
//
// Returns 0.0 when there are no negative excess observations.
func SortinoRatio(returns []float64, tradingDays int, riskFreeRate float64) float64 {
	r := dropNaN(returns)
	if len(r) < 2 {
		return 0
	}
	periodRF := riskFreeRate / float64(tradingDays)
	excess := make([]float64, len(r))
	for i, v := range r {
		excess[i] = v - periodRF
	}
	var downSq float64
	var downN int
	for _, v := range excess {
		if v < 0 {
			downSq += v * v
			downN++
		}
	}
	if downN == 0 {
		return 0
	}
	downsideStd := math.Sqrt(downSq / float64(downN))
	if downsideStd == 0 {
		return 0
	}
	return mean(excess) / downsideStd * math.Sqrt(float64(tradingDays))
}

// MaxDrawdown returns the maximum peak-to-trough decline of an equity curve
// as a negative fraction of the peak (e.g. -0.15 for a 15% drawdown).
// Zero running-max entries are skipped to avoid division by zero.
//
// Returns 0.0 for fewer than 2 points or a monotonically rising curve.
func MaxDrawdown(equity []float64) float64 {
	e := dropNaN(equity)
	if len(e) < 2 {
		return 0
	}
	runningMax := math.Inf(-1)
	minDD := 0.0
	anyPositivePeak := false
	for _, v := range e {
		if v > runningMax {
			runningMax = v
		}
		if runningMax <= 0 {
			continue
		}
		anyPositivePeak = true
		dd := (v - runningMax) / runningMax
		if dd < minDD {
			minDD = dd
		}
	}
	if !anyPositivePeak {
		return 0
	}
	return minDD
}

// MaxDrawdownFromReturns reconstructs an equity curve from a returns series
// via the cumulative product of (1+r), prefixed with initialCapital, and
// delegates to MaxDrawdown.
func MaxDrawdownFromReturns(returns []float64, initialCapital float64) float64 {
	r := dropNaN(returns)
	if len(r) == 0 {
		return 0
	}
	equity := make([]float64, 0, len(r)+1)
	equity = append(equity, initialCapital)
	acc := initialCapital
	for _, v := range r {
		acc *= 1 + v
		equity = append(equity, acc)
	}
	return MaxDrawdown(equity)
}

// ValueAtRisk returns the historical VaR: the (1-confidence) percentile of
// the returns distribution. At 95% confidence that is the 5th percentile,
// typically a negative number representing a loss threshold.
func ValueAtRisk(returns []float64, confidence float64) float64 {
	r := dropNaN(returns)
	if len(r) == 0 {
		return 0
	}
	return percentile(r, (1-confidence)*100)
}

// ConditionalValueAtRisk (expected shortfall) returns the mean of returns
// at or below the VaR threshold. If no observation falls at or below it,
// the VaR value itself is returned.
func ConditionalValueAtRisk(returns []float64, confidence float64) float64 {
	r := dropNaN(returns)
	if len(r) == 0 {
		return 0
	}
	v := ValueAtRisk(r, confidence)
	var sum float64
	var n int
	for _, x := range r {
		if x <= v {
			sum += x
			n++
		}
	}
	if n == 0 {
		return v
	}
	return sum / float64(n)
}

// WinRate returns the fraction of entries with positive P&L.
func WinRate(pnl []float64) float64 {
	p := dropNaN(pnl)
	if len(p) == 0 {
		return 0
	}
	wins := 0
	for _, v := range p {
		if v > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(p))
}

// ProfitFactor returns |sum(wins) / sum(losses)|. With wins and zero
// losses it returns +Inf; with no wins it returns 0.0.
func ProfitFactor(pnl []float64) float64 {
	p := dropNaN(pnl)
	if len(p) == 0 {
		return 0
	}
	var totalWins, totalLosses float64
	for _, v := range p {
		if v > 0 {
			totalWins += v
		} else if v < 0 {
			totalLosses += v
		}
	}
	if totalLosses == 0 {
		if totalWins > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return math.Abs(totalWins / totalLosses)
}

// CalmarRatio returns the annualised mean return divided by the absolute
// max drawdown reconstructed from the returns series. Returns 0.0 for
// fewer than 2 observations or zero drawdown.
func CalmarRatio(returns []float64, tradingDays int, initialCapital float64) float64 {
	r := dropNaN(returns)
	if len(r) < 2 {
		return 0
	}
	annReturn := mean(r) * float64(tradingDays)
	mdd := MaxDrawdownFromReturns(r, initialCapital)
	if mdd == 0 {
		return 0
	}
	return annReturn / math.Abs(mdd)
}

// RiskMetrics is the flat result of Compute.
type RiskMetrics struct {
	SharpeRatio  float64 `json:"sharpe_ratio"`
	SortinoRatio float64 `json:"sortino_ratio"`
	MaxDrawdown  float64 `json:"max_drawdown"`
	VaR95        float64 `json:"var_95"`
	CVaR95       float64 `json:"cvar_95"`
	WinRate      float64 `json:"win_rate"`
	ProfitFactor float64 `json:"profit_factor"`
	CalmarRatio  float64 `json:"calmar_ratio"`
}

// Compute evaluates the whole metric suite over a per-trade returns series.
// When an equity curve is supplied the drawdown comes from it; otherwise
// the curve is reconstructed from returns.
func Compute(returns []float64, equity []float64, tradingDays int) RiskMetrics {
	mdd := 0.0
	if len(equity) > 0 {
		mdd = MaxDrawdown(equity)
	} else {
		mdd = MaxDrawdownFromReturns(returns, 1.0)
	}
	return RiskMetrics{
		SharpeRatio:  SharpeRatio(returns, tradingDays, 0),
		SortinoRatio: SortinoRatio(returns, tradingDays, 0),
		MaxDrawdown:  mdd,
		VaR95:        ValueAtRisk(returns, 0.95),
		CVaR95:       ConditionalValueAtRisk(returns, 0.95),
		WinRate:      WinRate(returns),
		ProfitFactor: ProfitFactor(returns),
		CalmarRatio:  CalmarRatio(returns, tradingDays, 1.0),
	}
}

func dropNaN(in []float64) []float64 {
	out := make([]float64, 0, len(in))
	for _, v := range in {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range xs {
		sum += v
	}
	return sum / float64(len(xs))
}

// sampleStd is the sample standard deviation (ddof=1).
func sampleStd(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var ss float64
	for _, v := range xs {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

// percentile uses linear interpolation between closest ranks, matching the
// numpy default method.
func percentile(xs []float64, pct float64) float64 {
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	if pct <= 0 {
		return sorted[0]
	}
	if pct >= 100 {
		return sorted[len(sorted)-1]
	}
	rank := pct / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
