package sim

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// YAMLConfig is the on-disk shape of a simulation run configuration.
type YAMLConfig struct {
	Simulation struct {
		Data         string  `yaml:"data"`
		Start        string  `yaml:"start"`
		End          string  `yaml:"end"`
		Capital      float64 `yaml:"capital"`
		Quantity     int     `yaml:"quantity"`
		MaxPositions int     `yaml:"max_positions"`
		Multiplier   int     `yaml:"multiplier"`
		Selector     string  `yaml:"selector"`
	} `yaml:"simulation"`

	Strategy struct {
		Type   string         `yaml:"type"`
		Params map[string]any `yaml:"params"`
	} `yaml:"strategy"`
}

// RunConfig is a loaded, defaulted run configuration. The strategy is kept
// by name plus raw params; the strategy package resolves it, so the engine
// stays independent of the builders.
type RunConfig struct {
	DataPath string
	Start    time.Time
	End      time.Time

	Options Options

	StrategyName   string
	StrategyParams map[string]any
}

// LoadRunConfig reads a YAML run configuration, applying DefaultOptions
// for any unset simulation field.
func LoadRunConfig(path string) (RunConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return RunConfig{}, fmt.Errorf("read config: %w", err)
	}

	var yc YAMLConfig
	if err := yaml.Unmarshal(raw, &yc); err != nil {
		return RunConfig{}, fmt.Errorf("parse yaml: %w", err)
	}

	cfg := RunConfig{Options: DefaultOptions()}

	if yc.Simulation.Data == "" {
		return RunConfig{}, fmt.Errorf("simulation.data is required")
	}
	cfg.DataPath = yc.Simulation.Data

	if yc.Simulation.Capital > 0 {
		cfg.Options.Capital = yc.Simulation.Capital
	}
	if yc.Simulation.Quantity > 0 {
		cfg.Options.Quantity = yc.Simulation.Quantity
	}
	if yc.Simulation.MaxPositions > 0 {
		cfg.Options.MaxPositions = yc.Simulation.MaxPositions
	}
	if yc.Simulation.Multiplier > 0 {
		cfg.Options.Multiplier = yc.Simulation.Multiplier
	}
	if yc.Simulation.Selector != "" {
		if _, err := resolveSelector(yc.Simulation.Selector, nil); err != nil {
			return RunConfig{}, err
		}
		cfg.Options.Selector = yc.Simulation.Selector
	}

	if yc.Simulation.Start != "" {
		t, err := time.Parse("2006-01-02", yc.Simulation.Start)
		if err != nil {
			return RunConfig{}, fmt.Errorf("invalid simulation.start: %w", err)
		}
		cfg.Start = t
	}
	if yc.Simulation.End != "" {
		t, err := time.Parse("2006-01-02", yc.Simulation.End)
		if err != nil {
			return RunConfig{}, fmt.Errorf("invalid simulation.end: %w", err)
		}
		cfg.End = t
	}

	if yc.Strategy.Type == "" {
		return RunConfig{}, fmt.Errorf("strategy.type is required")
	}
	cfg.StrategyName = yc.Strategy.Type
	cfg.StrategyParams = yc.Strategy.Params

	return cfg, nil
}
