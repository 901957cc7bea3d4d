package strategy

import (
	"optbt/chain"
	"optbt/sim"
)

// vertical covers the four two-leg same-type spreads. Leg 1 is always the
// lower strike. Costs follow the signed cash-flow convention: a long leg
// contributes its premium as a debit (+), a short leg as a credit (-).
type vertical struct {
	name string
	call bool
	// lowerLong is leg 1's side (leg 1 is the lower strike); leg 2 takes
	// the opposite side.
	lowerLong bool
	p         Params
}

// LongCallSpread buys the lower-strike call and sells the higher (bull
// call spread, net debit).
func LongCallSpread(p Params) sim.Strategy {
	return vertical{name: "long_call_spread", call: true, lowerLong: true, p: p.withDefaults()}
}

// ShortCallSpread sells the lower-strike call and buys the higher (bear
// call spread, net credit).
func ShortCallSpread(p Params) sim.Strategy {
	return vertical{name: "short_call_spread", call: true, p: p.withDefaults()}
}

// LongPutSpread buys the higher-strike put and sells the lower (bear put
// spread, net debit).
func LongPutSpread(p Params) sim.Strategy {
	return vertical{name: "long_put_spread", p: p.withDefaults()}
}

// ShortPutSpread sells the higher-strike put and buys the lower (bull put
// spread, net credit).
func ShortPutSpread(p Params) sim.Strategy {
	return vertical{name: "short_put_spread", lowerLong: true, p: p.withDefaults()}
}

func (v vertical) Name() string        { return v.name }
func (v vertical) ExitOffsetDays() int { return v.p.ExitDTE }

func (v vertical) RawTrades(data chain.Table) ([]sim.Row, error) {
	var rows []sim.Row
	for _, g := range legsByGroup(evaluate(data, v.p)) {
		legs := g.puts
		if v.call {
			legs = g.calls
		}
		for i, lo := range legs {
			for j, hi := range legs {
				if i == j || lo.entry.Strike >= hi.entry.Strike {
					continue
				}
				loSign, hiSign := 1.0, -1.0
				if !v.lowerLong {
					loSign, hiSign = -1, 1
				}
				cost := loSign*lo.entryMid() + hiSign*hi.entryMid()
				proceeds := loSign*lo.exitMid() + hiSign*hi.exitMid()

				rows = append(rows, sim.Row{
					"underlying_symbol":           g.symbol,
					"underlying_price_entry_leg1": lo.entry.UnderlyingPrice,
					"expiration":                  lo.entry.Expiration,
					"dte_entry":                   lo.entry.DTE(),
					"option_type_leg1":            lo.entry.OptionType,
					"strike_leg1":                 lo.entry.Strike,
					"option_type_leg2":            hi.entry.OptionType,
					"strike_leg2":                 hi.entry.Strike,
					"total_entry_cost":            cost,
					"total_exit_proceeds":         proceeds,
					"pct_change":                  pctChange(cost, proceeds),
				})
			}
		}
	}
	return rows, nil
}
