package sim

import (
	"math"

	"optbt/metrics"
)

// buildTradeLog computes dollar P&L over the scheduled trades, in entry
// date order. If equity drops to zero or below (ruin), the log stops at
// and includes that trade; nothing is simulated past insolvency.
func buildTradeLog(trades []NormalizedTrade, capital float64, quantity, multiplier int) []TradeLogEntry {
	if len(trades) == 0 {
		return nil
	}

	lotSize := float64(quantity * multiplier)
	log := make([]TradeLogEntry, 0, len(trades))
	cumulative := 0.0

	for i, t := range trades {
		realized := (t.ExitProceeds - t.EntryCost) * lotSize
		cumulative += realized
		equity := capital + cumulative

		log = append(log, TradeLogEntry{
			TradeID:          i + 1,
			UnderlyingSymbol: t.UnderlyingSymbol,
			EntryDate:        t.EntryDate,
			ExitDate:         t.ExitDate,
			DaysHeld:         int(t.ExitDate.Sub(t.EntryDate).Hours() / 24),
			Expiration:       t.Expiration,
			EntryCost:        t.EntryCost,
			ExitProceeds:     t.ExitProceeds,
			Quantity:         quantity,
			Multiplier:       multiplier,
			DollarCost:       math.Abs(t.EntryCost) * lotSize,
			DollarProceeds:   t.ExitProceeds * lotSize,
			RealizedPnL:      realized,
			PctChange:        t.PctChange,
			CumulativePnL:    cumulative,
			Equity:           equity,
			Description:      t.Description,
		})

		if equity <= 0 {
			break
		}
	}
	return log
}

// summarize computes the performance summary from a (possibly
// ruin-truncated) trade log. Every statistic is a well-defined zero for an
// empty log.
func summarize(log []TradeLogEntry, capital float64) Summary {
	if len(log) == 0 {
		return Summary{}
	}

	var (
		totalPnL, totalWins, totalLosses float64
		avgWin, avgLoss                  float64
		wins, losses                     int
		maxWin                           = math.Inf(-1)
		maxLoss                          = math.Inf(1)
		daysSum                          float64
	)

	pnl := make([]float64, len(log))
	returns := make([]float64, len(log))
	equity := make([]float64, len(log))
	for i, e := range log {
		pnl[i] = e.RealizedPnL
		returns[i] = e.PctChange
		equity[i] = e.Equity

		totalPnL += e.RealizedPnL
		daysSum += float64(e.DaysHeld)
		if e.RealizedPnL > 0 {
			wins++
			totalWins += e.RealizedPnL
		} else if e.RealizedPnL < 0 {
			losses++
			totalLosses += e.RealizedPnL
		}
		if e.RealizedPnL > maxWin {
			maxWin = e.RealizedPnL
		}
		if e.RealizedPnL < maxLoss {
			maxLoss = e.RealizedPnL
		}
	}

	if wins > 0 {
		avgWin = totalWins / float64(wins)
	}
	if losses > 0 {
		avgLoss = totalLosses / float64(losses)
	}

	profitFactor := 0.0
	if totalLosses != 0 {
		profitFactor = math.Abs(totalWins / totalLosses)
	} else if totalWins > 0 {
		profitFactor = math.Inf(1)
	}

	totalReturn := 0.0
	if capital > 0 {
		totalReturn = totalPnL / capital
	}

	// Risk metrics use per-trade returns. The 252-day annualisation factor
	// overstates the ratios when trades close less often than daily.
	return Summary{
		TotalTrades:    len(log),
		WinningTrades:  wins,
		LosingTrades:   losses,
		WinRate:        float64(wins) / float64(len(log)),
		TotalPnL:       totalPnL,
		TotalReturn:    totalReturn,
		AvgPnL:         totalPnL / float64(len(log)),
		AvgWin:         avgWin,
		AvgLoss:        avgLoss,
		MaxWin:         maxWin,
		MaxLoss:        maxLoss,
		ProfitFactor:   profitFactor,
		MaxDrawdown:    metrics.MaxDrawdown(equity),
		AvgDaysInTrade: daysSum / float64(len(log)),
		SharpeRatio:    metrics.SharpeRatio(returns, metrics.TradingDays, 0),
		SortinoRatio:   metrics.SortinoRatio(returns, metrics.TradingDays, 0),
		VaR95:          metrics.ValueAtRisk(returns, 0.95),
		CVaR95:         metrics.ConditionalValueAtRisk(returns, 0.95),
		CalmarRatio:    metrics.CalmarRatio(returns, metrics.TradingDays, 1.0),
	}
}
