// Package terminalui renders simulation results as a terminal report.
package terminalui

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"optbt/sim"
)

// Snapshot is everything one report needs.
type Snapshot struct {
	Strategy string
	Selector string
	Capital  float64
	Result   *sim.SimulationResult

	// If true, print the full trade log; otherwise only the summary.
	ShowTrades bool
}

var printer = message.NewPrinter(language.English)

// Render prints the report to stdout.
func Render(s Snapshot) {
	sum := s.Result.Summary

	fmt.Println("╔══════════════════════════════════════════════════════════════════════════╗")
	fmt.Printf("║  Backtest Report  %-24s selector: %-15s      ║\n", s.Strategy, s.Selector)
	fmt.Println("╠══════════════════════════════════════════════════════════════════════════╣")

	printStat("Trades", printer.Sprintf("%d", sum.TotalTrades),
		"Win rate", fmt.Sprintf("%.1f%%", sum.WinRate*100))
	printStat("Winners", printer.Sprintf("%d", sum.WinningTrades),
		"Losers", printer.Sprintf("%d", sum.LosingTrades))
	printStat("Total P&L", dollars(sum.TotalPnL),
		"Total return", fmt.Sprintf("%+.2f%%", sum.TotalReturn*100))
	printStat("Avg P&L", dollars(sum.AvgPnL),
		"Avg days held", fmt.Sprintf("%.1f", sum.AvgDaysInTrade))
	printStat("Avg win", dollars(sum.AvgWin),
		"Avg loss", dollars(sum.AvgLoss))
	printStat("Max win", dollars(sum.MaxWin),
		"Max loss", dollars(sum.MaxLoss))
	printStat("Profit factor", ratio(sum.ProfitFactor),
		"Max drawdown", fmt.Sprintf("%.2f%%", sum.MaxDrawdown*100))
	printStat("Sharpe", fmt.Sprintf("%.2f", sum.SharpeRatio),
		"Sortino", fmt.Sprintf("%.2f", sum.SortinoRatio))
	printStat("VaR 95%", fmt.Sprintf("%.2f%%", sum.VaR95*100),
		"CVaR 95%", fmt.Sprintf("%.2f%%", sum.CVaR95*100))

	if s.ShowTrades && len(s.Result.TradeLog) > 0 {
		fmt.Println("╠══════════════════════════════════════════════════════════════════════════╣")
		fmt.Println("║   #  entry       exit        days  trade                 pnl      equity ║")
		fmt.Println("╟──────────────────────────────────────────────────────────────────────────╢")
		for _, e := range s.Result.TradeLog {
			fmt.Printf("║ %3d  %s  %s  %4d  %-16s %s%9s\033[0m  %10s ║\n",
				e.TradeID,
				e.EntryDate.Format("2006-01-02"),
				e.ExitDate.Format("2006-01-02"),
				e.DaysHeld,
				truncate(e.Description, 16),
				colorByPnL(e.RealizedPnL),
				printer.Sprintf("%+.0f", e.RealizedPnL),
				printer.Sprintf("%.0f", e.Equity))
		}
	}

	fmt.Println("╚══════════════════════════════════════════════════════════════════════════╝")
}

func printStat(label1, val1, label2, val2 string) {
	fmt.Printf("║  %-14s %-18s  %-14s %-18s    ║\n", label1, val1, label2, val2)
}

func dollars(v float64) string {
	return printer.Sprintf("$%+.2f", v)
}

func ratio(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", v)
}

func colorByPnL(pnl float64) string {
	if pnl > 0 {
		return "\033[32m"
	}
	if pnl < 0 {
		return "\033[31m"
	}
	return "\033[37m"
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen])
	}
	return s
}
