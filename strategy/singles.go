package strategy

import (
	"optbt/chain"
	"optbt/sim"
)

// singleLeg covers the four one-option strategies. Raw rows carry the
// unsigned option prices in entry/exit columns; the engine converts short
// strategies to signed cash flows by name during normalization.
type singleLeg struct {
	name  string
	call  bool
	short bool
	p     Params
}

// LongCalls buys a call and holds it to exit.
func LongCalls(p Params) sim.Strategy {
	return singleLeg{name: "long_calls", call: true, p: p.withDefaults()}
}

// LongPuts buys a put and holds it to exit.
func LongPuts(p Params) sim.Strategy {
	return singleLeg{name: "long_puts", p: p.withDefaults()}
}

// ShortCalls sells a call, collecting premium at entry.
func ShortCalls(p Params) sim.Strategy {
	return singleLeg{name: "short_calls", call: true, short: true, p: p.withDefaults()}
}

// ShortPuts sells a put, collecting premium at entry.
func ShortPuts(p Params) sim.Strategy {
	return singleLeg{name: "short_puts", short: true, p: p.withDefaults()}
}

func (s singleLeg) Name() string        { return s.name }
func (s singleLeg) ExitOffsetDays() int { return s.p.ExitDTE }

func (s singleLeg) RawTrades(data chain.Table) ([]sim.Row, error) {
	var rows []sim.Row
	for _, l := range evaluate(data, s.p) {
		if l.entry.IsCall() != s.call {
			continue
		}
		entry := l.entryMid()
		exit := l.exitMid()

		pct := pctChange(entry, exit)
		if s.short {
			pct = pctChange(-entry, -exit)
		}

		rows = append(rows, sim.Row{
			"underlying_symbol":      l.entry.UnderlyingSymbol,
			"underlying_price_entry": l.entry.UnderlyingPrice,
			"quote_date_entry":       l.entry.QuoteDate,
			"option_type":            l.entry.OptionType,
			"expiration":             l.entry.Expiration,
			"dte_entry":              l.entry.DTE(),
			"strike":                 l.entry.Strike,
			"otm_pct_entry":          l.otmPct(),
			"entry":                  entry,
			"exit":                   exit,
			"pct_change":             pct,
		})
	}
	return rows, nil
}
