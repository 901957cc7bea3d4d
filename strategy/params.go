// Package strategy provides the candidate-trade builders the simulation
// engine consumes. Each builder scans an option chain for entry/exit
// pairs and emits raw trade rows in the column layout of its strategy
// family (single-leg, multi-leg, or calendar).
package strategy

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Params controls candidate generation. Zero values are replaced by
// defaults via withDefaults.
type Params struct {
	// MaxEntryDTE is the maximum days-to-expiration at entry.
	MaxEntryDTE int `yaml:"max_entry_dte"`
	// ExitDTE is the days-to-expiration at which positions exit
	// (0 = hold to expiration).
	ExitDTE int `yaml:"exit_dte"`
	// MinBidAsk filters out near-worthless quotes at entry.
	MinBidAsk float64 `yaml:"min_bid_ask"`
	// MaxOTMPct is the widest out-of-the-money fraction considered.
	MaxOTMPct float64 `yaml:"max_otm_pct"`

	// Calendar-only DTE windows for the front and back legs.
	FrontDTEMin int `yaml:"front_dte_min"`
	FrontDTEMax int `yaml:"front_dte_max"`
	BackDTEMin  int `yaml:"back_dte_min"`
	BackDTEMax  int `yaml:"back_dte_max"`
}

func (p Params) withDefaults() Params {
	if p.MaxEntryDTE <= 0 {
		p.MaxEntryDTE = 90
	}
	if p.MinBidAsk <= 0 {
		p.MinBidAsk = 0.05
	}
	if p.MaxOTMPct <= 0 {
		p.MaxOTMPct = 0.5
	}
	if p.FrontDTEMin <= 0 {
		p.FrontDTEMin = 20
	}
	if p.FrontDTEMax <= 0 {
		p.FrontDTEMax = 40
	}
	if p.BackDTEMin <= 0 {
		p.BackDTEMin = 50
	}
	if p.BackDTEMax <= 0 {
		p.BackDTEMax = 90
	}
	return p
}

// ParamsFromMap decodes a loose params map (as read from YAML config or a
// JSON request body) into Params via a yaml round-trip.
func ParamsFromMap(m map[string]any) (Params, error) {
	var p Params
	if m != nil {
		b, err := yaml.Marshal(m)
		if err != nil {
			return p, fmt.Errorf("encode params: %w", err)
		}
		if err := yaml.Unmarshal(b, &p); err != nil {
			return p, fmt.Errorf("decode params: %w", err)
		}
	}
	return p.withDefaults(), nil
}
