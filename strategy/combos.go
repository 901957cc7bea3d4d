package strategy

import (
	"optbt/chain"
	"optbt/sim"
)

// straddle pairs a call and a put at the same strike and expiration.
// Long buys both legs (debit), short sells both (credit).
type straddle struct {
	name  string
	short bool
	p     Params
}

// LongStraddle buys a call and a put at the same strike.
func LongStraddle(p Params) sim.Strategy {
	return straddle{name: "long_straddle", p: p.withDefaults()}
}

// ShortStraddle sells a call and a put at the same strike.
func ShortStraddle(p Params) sim.Strategy {
	return straddle{name: "short_straddle", short: true, p: p.withDefaults()}
}

func (s straddle) Name() string        { return s.name }
func (s straddle) ExitOffsetDays() int { return s.p.ExitDTE }

func (s straddle) RawTrades(data chain.Table) ([]sim.Row, error) {
	sign := 1.0
	if s.short {
		sign = -1
	}
	var rows []sim.Row
	for _, g := range legsByGroup(evaluate(data, s.p)) {
		for _, put := range g.puts {
			for _, call := range g.calls {
				if put.entry.Strike != call.entry.Strike {
					continue
				}
				cost := sign * (call.entryMid() + put.entryMid())
				proceeds := sign * (call.exitMid() + put.exitMid())

				rows = append(rows, sim.Row{
					"underlying_symbol":           g.symbol,
					"underlying_price_entry_leg1": put.entry.UnderlyingPrice,
					"expiration":                  put.entry.Expiration,
					"dte_entry":                   put.entry.DTE(),
					"option_type_leg1":            put.entry.OptionType,
					"strike_leg1":                 put.entry.Strike,
					"option_type_leg2":            call.entry.OptionType,
					"strike_leg2":                 call.entry.Strike,
					"total_entry_cost":            cost,
					"total_exit_proceeds":         proceeds,
					"pct_change":                  pctChange(cost, proceeds),
				})
			}
		}
	}
	return rows, nil
}

// strangle pairs an out-of-the-money put with a higher-strike call.
type strangle struct {
	name  string
	short bool
	p     Params
}

// LongStrangle buys a put and a higher-strike call.
func LongStrangle(p Params) sim.Strategy {
	return strangle{name: "long_strangle", p: p.withDefaults()}
}

// ShortStrangle sells a put and a higher-strike call.
func ShortStrangle(p Params) sim.Strategy {
	return strangle{name: "short_strangle", short: true, p: p.withDefaults()}
}

func (s strangle) Name() string        { return s.name }
func (s strangle) ExitOffsetDays() int { return s.p.ExitDTE }

func (s strangle) RawTrades(data chain.Table) ([]sim.Row, error) {
	sign := 1.0
	if s.short {
		sign = -1
	}
	var rows []sim.Row
	for _, g := range legsByGroup(evaluate(data, s.p)) {
		for _, put := range g.puts {
			for _, call := range g.calls {
				if put.entry.Strike >= call.entry.Strike {
					continue
				}
				cost := sign * (call.entryMid() + put.entryMid())
				proceeds := sign * (call.exitMid() + put.exitMid())

				rows = append(rows, sim.Row{
					"underlying_symbol":           g.symbol,
					"underlying_price_entry_leg1": put.entry.UnderlyingPrice,
					"expiration":                  put.entry.Expiration,
					"dte_entry":                   put.entry.DTE(),
					"option_type_leg1":            put.entry.OptionType,
					"strike_leg1":                 put.entry.Strike,
					"option_type_leg2":            call.entry.OptionType,
					"strike_leg2":                 call.entry.Strike,
					"total_entry_cost":            cost,
					"total_exit_proceeds":         proceeds,
					"pct_change":                  pctChange(cost, proceeds),
				})
			}
		}
	}
	return rows, nil
}

// ironCombo is the four-leg wing structure: long a low put wing, short an
// inner put, short an inner call, long a high call wing. Entered for a net
// credit. The butterfly pins the two inner legs to the same strike, the
// condor keeps them apart.
type ironCombo struct {
	name      string
	butterfly bool
	p         Params
}

// IronCondor sells an inner put/call pair and buys wings around it.
func IronCondor(p Params) sim.Strategy {
	return ironCombo{name: "iron_condor", p: p.withDefaults()}
}

// IronButterfly sells a straddle and buys wings around it.
func IronButterfly(p Params) sim.Strategy {
	return ironCombo{name: "iron_butterfly", butterfly: true, p: p.withDefaults()}
}

func (s ironCombo) Name() string        { return s.name }
func (s ironCombo) ExitOffsetDays() int { return s.p.ExitDTE }

func (s ironCombo) RawTrades(data chain.Table) ([]sim.Row, error) {
	var rows []sim.Row
	for _, g := range legsByGroup(evaluate(data, s.p)) {
		for i, p1 := range g.puts {
			for j, p2 := range g.puts {
				if i == j || p1.entry.Strike >= p2.entry.Strike {
					continue
				}
				for k, c1 := range g.calls {
					if s.butterfly && c1.entry.Strike != p2.entry.Strike {
						continue
					}
					if !s.butterfly && c1.entry.Strike <= p2.entry.Strike {
						continue
					}
					for l, c2 := range g.calls {
						if k == l || c1.entry.Strike >= c2.entry.Strike {
							continue
						}
						cost := p1.entryMid() - p2.entryMid() - c1.entryMid() + c2.entryMid()
						proceeds := p1.exitMid() - p2.exitMid() - c1.exitMid() + c2.exitMid()

						rows = append(rows, sim.Row{
							"underlying_symbol":           g.symbol,
							"underlying_price_entry_leg1": p1.entry.UnderlyingPrice,
							"expiration":                  p1.entry.Expiration,
							"dte_entry":                   p1.entry.DTE(),
							"option_type_leg1":            p1.entry.OptionType,
							"strike_leg1":                 p1.entry.Strike,
							"option_type_leg2":            p2.entry.OptionType,
							"strike_leg2":                 p2.entry.Strike,
							"option_type_leg3":            c1.entry.OptionType,
							"strike_leg3":                 c1.entry.Strike,
							"option_type_leg4":            c2.entry.OptionType,
							"strike_leg4":                 c2.entry.Strike,
							"total_entry_cost":            cost,
							"total_exit_proceeds":         proceeds,
							"pct_change":                  pctChange(cost, proceeds),
						})
					}
				}
			}
		}
	}
	return rows, nil
}
