package sim

import (
	"fmt"
	"math"
)

// SimConfig groups the parameters of one simulation run.
type SimConfig struct {
	Rows          int      // memory array rows (must be > 0)
	Cols          int      // memory array columns (must be > 0)
	ErrorRate     float64  // injected errors per simulated hour (≥ 0)
	NumAccesses   int64    // accesses over the whole run, split evenly across batches (≥ 0)
	ScrubInterval float64  // seconds between scrubs of the same row (> 0)
	SimTime       float64  // total simulated seconds (> 0)
	Batches       int      // number of equal windows covering [0, SimTime) (≥ 1)
	TieBreak      TieBreak // ordering of equal-time events ("" = kind)
}

// Validate rejects configurations with no defined behaviour.
// It runs before any state is allocated so bad input fails fast.
func (c SimConfig) Validate() error {
	if c.Rows <= 0 {
		return fmt.Errorf("rows must be positive, got %d", c.Rows)
	}
	if c.Cols <= 0 {
		return fmt.Errorf("cols must be positive, got %d", c.Cols)
	}
	if !isFinite(c.ErrorRate) || c.ErrorRate < 0 {
		return fmt.Errorf("error_rate must be a finite value >= 0, got %v", c.ErrorRate)
	}
	if c.NumAccesses < 0 {
		return fmt.Errorf("num_accesses must be >= 0, got %d", c.NumAccesses)
	}
	if !isFinite(c.ScrubInterval) || c.ScrubInterval <= 0 {
		return fmt.Errorf("scrub_interval must be a finite value > 0, got %v", c.ScrubInterval)
	}
	if !isFinite(c.SimTime) || c.SimTime <= 0 {
		return fmt.Errorf("sim_time must be a finite value > 0, got %v", c.SimTime)
	}
	if c.Batches < 1 {
		return fmt.Errorf("batches must be >= 1, got %d", c.Batches)
	}
	// ErrorsInWindow converts to int64; larger counts would wrap.
	if n := c.ErrorRate * c.BatchDuration() / SecondsPerHour; !(n < math.MaxInt64) {
		return fmt.Errorf("error_rate %v gives %v errors per %vs window, more than an int64 can count",
			c.ErrorRate, n, c.BatchDuration())
	}
	if !IsValidTieBreak(string(c.TieBreak)) {
		return fmt.Errorf("unknown tie-break %q (valid: %s, %s)", c.TieBreak, TieBreakKind, TieBreakFIFO)
	}
	return nil
}

// BatchDuration returns the length of each window.
func (c SimConfig) BatchDuration() float64 {
	return c.SimTime / float64(c.Batches)
}

// AccessesPerBatch returns NumAccesses / Batches using integer division.
// The remainder is dropped.
func (c SimConfig) AccessesPerBatch() int64 {
	return c.NumAccesses / int64(c.Batches)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
