// Package optctl is the command-line front end: it loads a run
// configuration, executes the simulation, and writes the report.
package optctl

import (
	"flag"
	"fmt"
	"log"
	"os"

	"optbt/chain"
	"optbt/internal/terminalui"
	"optbt/sim"
	"optbt/strategy"
)

func Run(args []string) int {
	fs := flag.NewFlagSet("optctl", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		simulateMode bool
		configPath   string
		dataPath     string
		strategyName string
		selectorName string
		outPath      string
		asJSON       bool
		showTrades   bool

		listStrategies bool
	)

	fs.BoolVar(&simulateMode, "simulate", false, "run a backtest and exit")
	fs.StringVar(&configPath, "config", "run.yaml", "run configuration path (YAML)")
	fs.StringVar(&dataPath, "data", "", "option chain CSV path (overrides the config)")
	fs.StringVar(&strategyName, "strategy", "", "strategy name (overrides the config)")
	fs.StringVar(&selectorName, "selector", "", "candidate selector (overrides the config)")
	fs.StringVar(&outPath, "out", "", "report output path (default stdout)")
	fs.BoolVar(&asJSON, "json", false, "write the full result as JSON instead of the terminal report")
	fs.BoolVar(&showTrades, "trades", false, "include the trade log in the terminal report")

	fs.BoolVar(&listStrategies, "strategies", false, "list strategies and selectors and exit")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if listStrategies {
		fmt.Println("strategies:")
		for _, name := range strategy.Names() {
			fmt.Printf("  %s\n", name)
		}
		fmt.Println("selectors:")
		for _, name := range sim.SelectorNames() {
			fmt.Printf("  %s\n", name)
		}
		return 0
	}

	if simulateMode {
		if err := runSimulate(configPath, dataPath, strategyName, selectorName, outPath, asJSON, showTrades); err != nil {
			log.Printf("[ERROR] simulation failed: %v\n", err)
			return 1
		}
		return 0
	}

	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  optbt -simulate -config run.yaml [-data chains.csv] [-strategy short_put_spread]")
	fmt.Fprintln(os.Stderr, "                  [-selector nearest] [-trades] [-json] [-out report.json]")
	fmt.Fprintln(os.Stderr, "  optbt -strategies")
	fmt.Fprintln(os.Stderr, "  optbt -serve -data chains.csv [-port 19530]")
	return 2
}

func runSimulate(configPath, dataPath, strategyName, selectorName, outPath string, asJSON, showTrades bool) error {
	cfg, err := sim.LoadRunConfig(configPath)
	if err != nil {
		return err
	}
	if dataPath != "" {
		cfg.DataPath = dataPath
	}
	if strategyName != "" {
		cfg.StrategyName = strategyName
	}
	if selectorName != "" {
		cfg.Options.Selector = selectorName
	}

	strat, err := strategy.ByName(cfg.StrategyName, cfg.StrategyParams)
	if err != nil {
		return err
	}

	data, err := chain.FromCSV(cfg.DataPath)
	if err != nil {
		return fmt.Errorf("load chain data: %w", err)
	}
	log.Printf("[DATA] %s: %d quotes, symbols %v\n", cfg.DataPath, len(data), data.Symbols())

	if !cfg.Start.IsZero() || !cfg.End.IsZero() {
		data = data.TrimExpirations(cfg.Start, cfg.End)
		log.Printf("[DATA] expiration window applied: %d quotes remain\n", len(data))
	}

	result, err := sim.Simulate(data, strat, cfg.Options)
	if err != nil {
		return err
	}

	if asJSON || outPath != "" {
		out := os.Stdout
		if outPath != "" {
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("create report: %w", err)
			}
			defer f.Close()
			out = f
		}
		if err := sim.WriteResultJSON(out, result); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		if outPath != "" {
			log.Printf("[REPORT] written to %s\n", outPath)
		}
		return nil
	}

	terminalui.Render(terminalui.Snapshot{
		Strategy:   strat.Name(),
		Selector:   cfg.Options.Selector,
		Capital:    cfg.Options.Capital,
		Result:     result,
		ShowTrades: showTrades,
	})
	return nil
}
