package sim

import (
	"math/rand"
)

// === SimulationKey ===

// SimulationKey uniquely identifies a reproducible simulation run.
// Two simulations with the same SimulationKey and identical configuration
// MUST produce bit-for-bit identical results.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// NewRand returns the single random source for a simulation run.
// It is created once per run and shared by every batch window, so successive
// windows continue one sequence instead of being separately seeded.
//
// Thread-safety: NOT thread-safe. Must be used from a single goroutine.
func (k SimulationKey) NewRand() *rand.Rand {
	return rand.New(rand.NewSource(int64(k)))
}
