package strategy

import (
	"math"

	"optbt/chain"
)

// evaluatedLeg is one option with its entry and exit quotes resolved: the
// entry observed at some quote date, the exit observed at ExitDTE days
// before expiration. Fill prices are bid/ask midpoints.
type evaluatedLeg struct {
	entry chain.Quote
	exit  chain.Quote
}

func (l evaluatedLeg) entryMid() float64 { return l.entry.Mid() }
func (l evaluatedLeg) exitMid() float64  { return l.exit.Mid() }

func (l evaluatedLeg) otmPct() float64 {
	if l.entry.UnderlyingPrice == 0 {
		return 0
	}
	return (l.entry.Strike - l.entry.UnderlyingPrice) / l.entry.UnderlyingPrice
}

type contractKey struct {
	symbol     string
	optionType string
	expiration int64
	strike     float64
}

func keyOf(q chain.Quote) contractKey {
	return contractKey{
		symbol:     q.UnderlyingSymbol,
		optionType: q.OptionType,
		expiration: q.Expiration.Unix(),
		strike:     q.Strike,
	}
}

// evaluate joins the chain against itself: every quote inside the entry
// DTE window is paired with the same contract's quote at ExitDTE.
// Entries with bid or ask at or below MinBidAsk are dropped (entering a
// worthless option is unrealistic), as are strikes beyond MaxOTMPct.
// Input order is preserved, so output is deterministic.
func evaluate(data chain.Table, p Params) []evaluatedLeg {
	exits := make(map[contractKey]chain.Quote)
	for _, q := range data {
		if q.DTE() == p.ExitDTE {
			if _, ok := exits[keyOf(q)]; !ok {
				exits[keyOf(q)] = q
			}
		}
	}

	var legs []evaluatedLeg
	for _, q := range data {
		dte := q.DTE()
		if dte <= p.ExitDTE || dte > p.MaxEntryDTE {
			continue
		}
		if q.Bid <= p.MinBidAsk || q.Ask <= p.MinBidAsk {
			continue
		}
		if q.UnderlyingPrice > 0 {
			otm := (q.Strike - q.UnderlyingPrice) / q.UnderlyingPrice
			if math.Abs(otm) > p.MaxOTMPct {
				continue
			}
		}
		exit, ok := exits[keyOf(q)]
		if !ok {
			continue
		}
		legs = append(legs, evaluatedLeg{entry: q, exit: exit})
	}
	return legs
}

// pctChange is the return on premium committed: profit over absolute
// entry cost. Returns 0 when the entry cost is zero.
func pctChange(cost, proceeds float64) float64 {
	if cost == 0 {
		return 0
	}
	return (proceeds - cost) / math.Abs(cost)
}

// legsByGroup buckets evaluated legs by symbol, expiration and entry
// quote date, preserving first-seen group order. Multi-leg builders
// combine legs only within one bucket so every leg of a spread shares its
// entry date and expiration cycle.
type legGroup struct {
	symbol string
	calls  []evaluatedLeg
	puts   []evaluatedLeg
}

func legsByGroup(legs []evaluatedLeg) []legGroup {
	type gk struct {
		symbol     string
		expiration int64
		quoteDate  int64
	}
	index := make(map[gk]int)
	var groups []legGroup
	for _, l := range legs {
		k := gk{
			symbol:     l.entry.UnderlyingSymbol,
			expiration: l.entry.Expiration.Unix(),
			quoteDate:  l.entry.QuoteDate.Unix(),
		}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, legGroup{symbol: l.entry.UnderlyingSymbol})
		}
		if l.entry.IsCall() {
			groups[i].calls = append(groups[i].calls, l)
		} else {
			groups[i].puts = append(groups[i].puts, l)
		}
	}
	return groups
}
