// Implements the event processor that drains a window's schedule into the memory grid.

package sim

import "github.com/sirupsen/logrus"

// Processor applies events to the memory grid and the run's counters.
type Processor struct {
	grid     *MemoryGrid
	counters *Counters
	clock    float64
}

// NewProcessor creates a Processor mutating grid and counters.
func NewProcessor(grid *MemoryGrid, counters *Counters) *Processor {
	if grid == nil || counters == nil {
		panic("NewProcessor: grid and counters must not be nil")
	}
	return &Processor{grid: grid, counters: counters}
}

// Clock returns the timestamp of the last processed event.
func (p *Processor) Clock() float64 { return p.clock }

// Drain pops events in time order and executes each until the schedule is empty.
// It returns the number of events processed.
func (p *Processor) Drain(sched *Schedule) int64 {
	var n int64
	for sched.Len() > 0 {
		ev := sched.PopNext()
		p.clock = ev.Timestamp()
		ev.Execute(p)
		n++
	}
	logrus.Debugf("[t=%.3fs] Drained %d events", p.clock, n)
	return n
}
