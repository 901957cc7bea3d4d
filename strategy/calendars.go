package strategy

import (
	"optbt/chain"
	"optbt/sim"
)

// calendar sells a near-dated option and buys a longer-dated one at the
// same strike and type. Both legs are entered on the same quote date; the
// position is marked closed at the front leg's exit. Unlike the
// single-expiration strategies, legs here span two expiration cycles, so
// the pairing walks the chain directly instead of going through
// legsByGroup.
type calendar struct {
	name string
	call bool
	p    Params
}

// LongCalendarCall sells a front-month call and buys a back-month call at
// the same strike.
func LongCalendarCall(p Params) sim.Strategy {
	return calendar{name: "long_calendar_call", call: true, p: p.withDefaults()}
}

// LongCalendarPut sells a front-month put and buys a back-month put at
// the same strike.
func LongCalendarPut(p Params) sim.Strategy {
	return calendar{name: "long_calendar_put", p: p.withDefaults()}
}

func (c calendar) Name() string        { return c.name }
func (c calendar) ExitOffsetDays() int { return c.p.ExitDTE }

func (c calendar) RawTrades(data chain.Table) ([]sim.Row, error) {
	// Quotes per contract keyed by quote date, so the back leg can be
	// marked at the front leg's exit date.
	byDate := make(map[contractKey]map[int64]chain.Quote)
	for _, q := range data {
		k := keyOf(q)
		if byDate[k] == nil {
			byDate[k] = make(map[int64]chain.Quote)
		}
		d := q.QuoteDate.Unix()
		if _, ok := byDate[k][d]; !ok {
			byDate[k][d] = q
		}
	}

	var rows []sim.Row
	for _, front := range data {
		if front.IsCall() != c.call {
			continue
		}
		frontDTE := front.DTE()
		if frontDTE < c.p.FrontDTEMin || frontDTE > c.p.FrontDTEMax {
			continue
		}
		if front.Bid <= c.p.MinBidAsk || front.Ask <= c.p.MinBidAsk {
			continue
		}
		frontExit, ok := c.exitQuote(byDate, front)
		if !ok {
			continue
		}

		for _, back := range data {
			if back.IsCall() != c.call ||
				back.UnderlyingSymbol != front.UnderlyingSymbol ||
				back.Strike != front.Strike ||
				!back.QuoteDate.Equal(front.QuoteDate) {
				continue
			}
			backDTE := back.DTE()
			if backDTE < c.p.BackDTEMin || backDTE > c.p.BackDTEMax {
				continue
			}
			if back.Expiration.Equal(front.Expiration) {
				continue
			}
			backExit, ok := byDate[keyOf(back)][frontExit.QuoteDate.Unix()]
			if !ok {
				continue
			}

			// Long calendar: buy back, sell front.
			cost := back.Mid() - front.Mid()
			proceeds := backExit.Mid() - frontExit.Mid()

			rows = append(rows, sim.Row{
				"underlying_symbol":      front.UnderlyingSymbol,
				"underlying_price_entry": front.UnderlyingPrice,
				"quote_date":             front.QuoteDate,
				"option_type":            front.OptionType,
				"strike":                 front.Strike,
				"expiration_leg1":        front.Expiration,
				"dte_entry_leg1":         frontDTE,
				"entry_leg1":             front.Mid(),
				"exit_leg1":              frontExit.Mid(),
				"expiration_leg2":        back.Expiration,
				"dte_entry_leg2":         backDTE,
				"entry_leg2":             back.Mid(),
				"exit_leg2":              backExit.Mid(),
				"total_entry_cost":       cost,
				"total_exit_proceeds":    proceeds,
				"pct_change":             pctChange(cost, proceeds),
			})
		}
	}
	return rows, nil
}

// exitQuote finds the front leg's quote at ExitDTE days to expiration.
func (c calendar) exitQuote(byDate map[contractKey]map[int64]chain.Quote, front chain.Quote) (chain.Quote, bool) {
	for _, q := range byDate[keyOf(front)] {
		if q.DTE() == c.p.ExitDTE {
			return q, true
		}
	}
	return chain.Quote{}, false
}
