package strategy

import (
	"fmt"
	"sort"

	"optbt/sim"
)

// ErrUnknownStrategy is returned by ByName for names not in the registry.
var ErrUnknownStrategy = fmt.Errorf("unknown strategy")

var builders = map[string]func(Params) sim.Strategy{
	"long_calls":         LongCalls,
	"long_puts":          LongPuts,
	"short_calls":        ShortCalls,
	"short_puts":         ShortPuts,
	"long_call_spread":   LongCallSpread,
	"short_call_spread":  ShortCallSpread,
	"long_put_spread":    LongPutSpread,
	"short_put_spread":   ShortPutSpread,
	"long_straddle":      LongStraddle,
	"short_straddle":     ShortStraddle,
	"long_strangle":      LongStrangle,
	"short_strangle":     ShortStrangle,
	"iron_condor":        IronCondor,
	"iron_butterfly":     IronButterfly,
	"long_calendar_call": LongCalendarCall,
	"long_calendar_put":  LongCalendarPut,
}

// ByName builds a registered strategy from its snake_case name and a raw
// parameter map (typically decoded from YAML or JSON). Unset parameters
// take their defaults.
func ByName(name string, params map[string]any) (sim.Strategy, error) {
	build, ok := builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	p, err := ParamsFromMap(params)
	if err != nil {
		return nil, fmt.Errorf("strategy %s: %w", name, err)
	}
	return build(p), nil
}

// Names lists every registered strategy name, sorted.
func Names() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
