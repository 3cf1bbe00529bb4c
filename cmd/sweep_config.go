package cmd

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	sim "github.com/inference-sim/dramsim/sim"
)

// SweepConfig describes a scrub-interval sweep: one base configuration
// simulated once per entry of ScrubIntervals.
// All top-level keys must be listed to satisfy KnownFields(true) strict parsing.
type SweepConfig struct {
	Rows           int       `yaml:"rows"`
	Cols           int       `yaml:"cols"`
	ErrorRate      float64   `yaml:"error_rate"`
	NumAccesses    int64     `yaml:"num_accesses"`
	SimTime        float64   `yaml:"sim_time"`
	Batches        int       `yaml:"batches"`
	Seed           *int64    `yaml:"seed"`
	TieBreak       string    `yaml:"tie_break"`
	ScrubIntervals []float64 `yaml:"scrub_intervals"`
}

// LoadSweepConfig parses a sweep YAML file with strict field checking
// (typos must cause errors).
func LoadSweepConfig(path string) (*SweepConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sweep config %s: %w", path, err)
	}
	return ParseSweepConfig(data)
}

// ParseSweepConfig decodes and validates sweep YAML.
func ParseSweepConfig(data []byte) (*SweepConfig, error) {
	var cfg SweepConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse sweep config: %w", err)
	}
	if len(cfg.ScrubIntervals) == 0 {
		return nil, fmt.Errorf("sweep config: scrub_intervals must list at least one interval")
	}
	for _, interval := range cfg.ScrubIntervals {
		if err := cfg.At(interval).Validate(); err != nil {
			return nil, fmt.Errorf("sweep config: %w", err)
		}
	}
	return &cfg, nil
}

// At returns the simulation configuration for one scrub interval.
func (c *SweepConfig) At(scrubInterval float64) sim.SimConfig {
	return sim.SimConfig{
		Rows:          c.Rows,
		Cols:          c.Cols,
		ErrorRate:     c.ErrorRate,
		NumAccesses:   c.NumAccesses,
		ScrubInterval: scrubInterval,
		SimTime:       c.SimTime,
		Batches:       c.Batches,
		TieBreak:      sim.TieBreak(c.TieBreak),
	}
}
