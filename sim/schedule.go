package sim

import "time"

// filterPositions decides which normalized trades execute, given a budget
// of concurrent open positions. Input must be sorted ascending by entry
// date; output preserves order.
//
// maxPositions == 1 runs a greedy non-overlap scan, which is optimal for a
// single slot over entry-sorted intervals. maxPositions > 1 tracks the
// open set and admits a trade only when a slot is free and no open
// position shares its expiration — two candidates on the same expiration
// cycle are the same economic bet and must not both consume capital. A
// same-expiration candidate is skipped, never swapped in for the one
// already open.
func filterPositions(trades []NormalizedTrade, maxPositions int) []NormalizedTrade {
	if len(trades) == 0 {
		return trades
	}

	kept := make([]NormalizedTrade, 0, len(trades))

	if maxPositions == 1 {
		var prevExit time.Time
		haveOpen := false
		for _, t := range trades {
			if !haveOpen || !t.EntryDate.Before(prevExit) {
				kept = append(kept, t)
				prevExit = t.ExitDate
				haveOpen = true
			}
		}
		return kept
	}

	type openPosition struct {
		exitDate   time.Time
		expiration time.Time
	}
	var open []openPosition

	for _, t := range trades {
		// Evict positions that have closed by this entry date.
		stillOpen := open[:0]
		for _, p := range open {
			if p.exitDate.After(t.EntryDate) {
				stillOpen = append(stillOpen, p)
			}
		}
		open = stillOpen

		if len(open) >= maxPositions {
			continue
		}
		duplicate := false
		for _, p := range open {
			if p.expiration.Equal(t.Expiration) {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		kept = append(kept, t)
		open = append(open, openPosition{exitDate: t.ExitDate, expiration: t.Expiration})
	}
	return kept
}
