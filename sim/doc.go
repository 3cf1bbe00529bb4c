// Package sim provides the discrete-event simulation engine for dramsim, a model of
// transient bit errors in a memory array and the scrubbing that corrects them.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - grid.go: MemoryGrid, the per-cell upset flags
//   - event.go: the Error, Access and Scrub events and what each does to the grid
//   - queue.go: Schedule, the time-ordered event heap and its tie-break rules
//   - generator.go: how one window's events are drawn
//   - simulator.go: the batch driver alternating generate → drain per window
//
// # Batching
//
// Total simulated time is split into equal windows. Each window's events are generated,
// then drained to completion, before the next window starts. Peak schedule size is
// therefore bounded by one window's events. Scrub sweeps and accesses never span a
// window boundary.
//
// # Determinism
//
// A run is reproducible from its SimulationKey: one random source is created per run
// and threaded through every window. Events with equal timestamps are ordered by the
// configured TieBreak, never by heap layout.
package sim
