// sim/simulator.go
package sim

import (
	"fmt"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
)

// WindowStats describes one processed batch window.
type WindowStats struct {
	RunID        string
	Index        int
	Window       Window
	Generated    GenerationStats
	Processed    int64    // events drained
	PeakSchedule int      // schedule size after generation
	Delta        Counters // counter increments within this window
	UpsetAfter   int      // cells upset when the window ended
}

// WindowObserver is notified after every window is drained.
// Returning an error aborts the run.
type WindowObserver interface {
	ObserveWindow(WindowStats) error
}

// Simulator is the batch driver. It owns the grid, the schedule, the counters
// and the random source, and alternates generate → drain per window.
type Simulator struct {
	ID       string
	Config   SimConfig
	Key      SimulationKey
	Grid     *MemoryGrid
	Schedule *Schedule
	Counters *Counters
	Metrics  *Metrics

	gen       *Generator
	proc      *Processor
	observers []WindowObserver
	next      int // index of the next window to run
}

// NewSimulator validates cfg and builds a simulator seeded from key.
func NewSimulator(cfg SimConfig, key SimulationKey) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid simulation config: %w", err)
	}
	if cfg.TieBreak == "" {
		cfg.TieBreak = TieBreakKind
	}

	grid := NewMemoryGrid(cfg.Rows, cfg.Cols)
	counters := &Counters{}
	s := &Simulator{
		ID:       xid.New().String(),
		Config:   cfg,
		Key:      key,
		Grid:     grid,
		Schedule: NewSchedule(cfg.TieBreak),
		Counters: counters,
		Metrics:  &Metrics{},
		gen:      NewGenerator(grid.Rows(), grid.Cols(), key.NewRand()),
		proc:     NewProcessor(grid, counters),
	}
	return s, nil
}

// AddObserver registers o to receive per-window statistics.
func (sim *Simulator) AddObserver(o WindowObserver) {
	sim.observers = append(sim.observers, o)
}

// Done reports whether every window has been processed.
func (sim *Simulator) Done() bool {
	return sim.next >= sim.Config.Batches
}

// WindowAt returns the bounds of window i: [i*d, (i+1)*d) with d = SimTime/Batches.
func (sim *Simulator) WindowAt(i int) Window {
	d := sim.Config.BatchDuration()
	return Window{Start: float64(i) * d, End: float64(i+1) * d}
}

// Step generates and fully drains the next window.
func (sim *Simulator) Step() (WindowStats, error) {
	if sim.Done() {
		return WindowStats{}, fmt.Errorf("simulation already finished after %d windows", sim.Config.Batches)
	}
	if ev := sim.Schedule.Peek(); ev != nil {
		panic(fmt.Sprintf("Simulator.Step: schedule holds %d events at window start, earliest %s at %v",
			sim.Schedule.Len(), ev.Kind(), ev.Timestamp()))
	}

	idx := sim.next
	w := sim.WindowAt(idx)
	before := *sim.Counters

	sim.Schedule.ResetPeak()
	gen := sim.gen.Generate(sim.Schedule, w, sim.Config.ErrorRate, sim.Config.AccessesPerBatch(), sim.Config.ScrubInterval)
	peak := sim.Schedule.Peak()
	processed := sim.proc.Drain(sim.Schedule)
	sim.next++

	stats := WindowStats{
		RunID:        sim.ID,
		Index:        idx,
		Window:       w,
		Generated:    gen,
		Processed:    processed,
		PeakSchedule: peak,
		Delta:        sim.Counters.Sub(before),
		UpsetAfter:   sim.Grid.UpsetCount(),
	}
	sim.accumulate(stats)

	logrus.WithField("run", sim.ID).Debugf("Window %d/%d [%.3f, %.3f): encountered=%d corrected=%d upset=%d peak=%d",
		idx+1, sim.Config.Batches, w.Start, w.End,
		stats.Delta.ErrorsEncountered, stats.Delta.ErrorsCorrected, stats.UpsetAfter, peak)

	for _, o := range sim.observers {
		if err := o.ObserveWindow(stats); err != nil {
			return stats, fmt.Errorf("window %d observer: %w", idx, err)
		}
	}
	return stats, nil
}

// Run processes all remaining windows and returns the final metrics.
func (sim *Simulator) Run() (*Metrics, error) {
	log := logrus.WithField("run", sim.ID)
	log.Infof("Starting simulation: %dx%d grid, error_rate=%v/h, accesses=%d, scrub_interval=%vs, sim_time=%vs, batches=%d, seed=%d",
		sim.Config.Rows, sim.Config.Cols, sim.Config.ErrorRate, sim.Config.NumAccesses,
		sim.Config.ScrubInterval, sim.Config.SimTime, sim.Config.Batches, int64(sim.Key))

	for !sim.Done() {
		if _, err := sim.Step(); err != nil {
			return sim.Metrics, err
		}
	}

	log.Infof("Simulation ended: injected=%d encountered=%d corrected=%d overwrites=%d residual=%d",
		sim.Metrics.ErrorsInjected, sim.Metrics.ErrorsEncountered, sim.Metrics.ErrorsCorrected,
		sim.Metrics.Overwrites, sim.Metrics.ResidualUpset)
	return sim.Metrics, nil
}

func (sim *Simulator) accumulate(ws WindowStats) {
	m := sim.Metrics
	m.Counters = *sim.Counters
	m.ErrorsInjected += ws.Generated.Errors
	m.Accesses += ws.Generated.Accesses
	m.Scrubs += ws.Generated.Scrubs
	m.ResidualUpset = int64(ws.UpsetAfter)
	m.PeakSchedule = max(m.PeakSchedule, ws.PeakSchedule)
	m.Windows++
}
