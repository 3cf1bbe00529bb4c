// Implements the event generator that fills the schedule for one batch window.

package sim

import (
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"
)

// SecondsPerHour converts the hourly error rate to the window length in seconds.
const SecondsPerHour = 3600.0

// Window is the half-open simulated time interval [Start, End).
type Window struct {
	Start float64
	End   float64
}

// Duration returns End - Start.
func (w Window) Duration() float64 { return w.End - w.Start }

// GenerationStats counts what a single Generate call inserted.
type GenerationStats struct {
	Errors   int64
	Accesses int64
	Scrubs   int64
}

// Total returns the number of events inserted.
func (g GenerationStats) Total() int64 { return g.Errors + g.Accesses + g.Scrubs }

// Generator produces randomized error and access events plus periodic row scrubs.
// All draws come from the injected random source.
type Generator struct {
	rows int
	cols int
	rng  *rand.Rand
}

// NewGenerator creates a Generator for a rows × cols array drawing from rng.
func NewGenerator(rows, cols int, rng *rand.Rand) *Generator {
	if rng == nil {
		panic("NewGenerator: rng must not be nil")
	}
	return &Generator{rows: rows, cols: cols, rng: rng}
}

// ErrorsInWindow returns floor(errorRate * duration / 3600), the number of errors
// injected into a window of the given length.
func ErrorsInWindow(errorRate, duration float64) int64 {
	return int64(math.Floor(errorRate * duration / SecondsPerHour))
}

// Generate inserts one window's events into sched. It does not clear sched.
//
//   - floor(errorRate * (End-Start) / 3600) Error events at uniform random times and cells
//   - numAccesses Access events at uniform random times and cells
//   - for every row, a Scrub at Start, Start+scrubInterval, ... while < End
func (g *Generator) Generate(sched *Schedule, w Window, errorRate float64, numAccesses int64, scrubInterval float64) GenerationStats {
	var stats GenerationStats

	totalErrors := ErrorsInWindow(errorRate, w.Duration())
	for i := int64(0); i < totalErrors; i++ {
		t, cell := g.drawTime(w), g.drawCell()
		sched.Insert(NewErrorEvent(t, cell))
		stats.Errors++
	}

	for i := int64(0); i < numAccesses; i++ {
		t, cell := g.drawTime(w), g.drawCell()
		sched.Insert(NewAccessEvent(t, cell))
		stats.Accesses++
	}

	// Multiply rather than accumulate so long windows don't drift.
	for row := 0; row < g.rows; row++ {
		for k := 0; ; k++ {
			t := w.Start + float64(k)*scrubInterval
			if t >= w.End {
				break
			}
			sched.Insert(NewScrubEvent(t, row))
			stats.Scrubs++
		}
	}

	logrus.Debugf("Generated window [%.3f, %.3f): %d errors, %d accesses, %d scrubs",
		w.Start, w.End, stats.Errors, stats.Accesses, stats.Scrubs)
	return stats
}

// drawTime returns a uniform time in [Start, End).
func (g *Generator) drawTime(w Window) float64 {
	t := w.Start + g.rng.Float64()*w.Duration()
	// Rounding can land exactly on End for tiny windows.
	if t >= w.End {
		t = math.Nextafter(w.End, w.Start)
	}
	return t
}

func (g *Generator) drawCell() Cell {
	return Cell{Row: g.rng.Intn(g.rows), Col: g.rng.Intn(g.cols)}
}
