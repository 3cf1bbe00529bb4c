package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGenerator(rows, cols int, seed int64) *Generator {
	return NewGenerator(rows, cols, NewSimulationKey(seed).NewRand())
}

func drainAll(s *Schedule) []Event {
	var evs []Event
	for s.Len() > 0 {
		evs = append(evs, s.PopNext())
	}
	return evs
}

func TestErrorsInWindow_Floors(t *testing.T) {
	tests := []struct {
		name      string
		rate, dur float64
		want      int64
	}{
		{"zero rate", 0, 1000, 0},
		{"just under one", 1, 3599, 0},
		{"exactly one", 1, 3600, 1},
		{"fractional", 7200, 10, 20},
		{"truncates", 1000, 514.2857, 142},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorsInWindow(tt.rate, tt.dur))
		})
	}
}

// TestGenerate_ScrubOnlyScenario: 1x1 grid, no errors, no accesses, interval 1 over [0,10).
func TestGenerate_ScrubOnlyScenario(t *testing.T) {
	// GIVEN a generator with no error or access load
	g := newTestGenerator(1, 1, 42)
	s := NewSchedule(TieBreakKind)

	// WHEN one window [0,10) is generated
	stats := g.Generate(s, Window{Start: 0, End: 10}, 0, 0, 1)

	// THEN only scrubs at t=0..9 are scheduled
	assert.Equal(t, GenerationStats{Scrubs: 10}, stats)
	evs := drainAll(s)
	require.Len(t, evs, 10)
	for i, ev := range evs {
		assert.Equal(t, KindScrub, ev.Kind())
		assert.Equal(t, float64(i), ev.Timestamp())
		assert.Equal(t, 0, ev.(*ScrubEvent).Row())
	}
}

func TestGenerate_Counts(t *testing.T) {
	g := newTestGenerator(3, 5, 7)
	s := NewSchedule(TieBreakKind)

	// 7200 errors/h over 10s = 20 errors; interval 3 over [0,10) = t 0,3,6,9 per row
	stats := g.Generate(s, Window{Start: 0, End: 10}, 7200, 50, 3)

	assert.Equal(t, int64(20), stats.Errors)
	assert.Equal(t, int64(50), stats.Accesses)
	assert.Equal(t, int64(12), stats.Scrubs)
	assert.Equal(t, int64(82), stats.Total())
	assert.Equal(t, 82, s.Len())

	byKind := map[EventKind]int{}
	for _, ev := range drainAll(s) {
		byKind[ev.Kind()]++
	}
	assert.Equal(t, map[EventKind]int{KindError: 20, KindAccess: 50, KindScrub: 12}, byKind)
}

func TestGenerate_EventsStayInsideWindowAndGrid(t *testing.T) {
	g := newTestGenerator(4, 6, 99)
	s := NewSchedule(TieBreakKind)
	w := Window{Start: 25, End: 37.5}

	g.Generate(s, w, 3600*100, 500, 0.7)

	prev := w.Start
	for _, ev := range drainAll(s) {
		ts := ev.Timestamp()
		assert.GreaterOrEqual(t, ts, w.Start)
		assert.Less(t, ts, w.End)
		assert.GreaterOrEqual(t, ts, prev, "schedule must pop in time order")
		prev = ts

		switch e := ev.(type) {
		case *ErrorEvent:
			assertCellInGrid(t, e.Cell(), 4, 6)
		case *AccessEvent:
			assertCellInGrid(t, e.Cell(), 4, 6)
		case *ScrubEvent:
			assert.GreaterOrEqual(t, e.Row(), 0)
			assert.Less(t, e.Row(), 4)
		}
	}
}

func assertCellInGrid(t *testing.T, c Cell, rows, cols int) {
	t.Helper()
	assert.True(t, c.Row >= 0 && c.Row < rows && c.Col >= 0 && c.Col < cols, "cell %s outside %dx%d", c, rows, cols)
}

func TestGenerate_ScrubsStartAtWindowStart(t *testing.T) {
	g := newTestGenerator(2, 2, 1)
	s := NewSchedule(TieBreakKind)

	stats := g.Generate(s, Window{Start: 5, End: 15}, 0, 0, 4)

	// rows 0 and 1 each at t=5, 9, 13
	assert.Equal(t, int64(6), stats.Scrubs)
	var times []float64
	for _, ev := range drainAll(s) {
		times = append(times, ev.Timestamp())
	}
	assert.Equal(t, []float64{5, 5, 9, 9, 13, 13}, times)
}

func TestGenerate_IntervalLongerThanWindow_OneScrubPerRow(t *testing.T) {
	g := newTestGenerator(3, 1, 1)
	s := NewSchedule(TieBreakKind)

	stats := g.Generate(s, Window{Start: 0, End: 10}, 0, 0, 1000)
	assert.Equal(t, int64(3), stats.Scrubs)
}

func TestGenerate_SameSeed_IdenticalEvents(t *testing.T) {
	gen := func(seed int64) []Event {
		g := newTestGenerator(8, 8, seed)
		s := NewSchedule(TieBreakKind)
		// two windows from one generator share the random stream
		g.Generate(s, Window{Start: 0, End: 50}, 36000, 100, 10)
		g.Generate(s, Window{Start: 50, End: 100}, 36000, 100, 10)
		return drainAll(s)
	}

	a, b := gen(123), gen(123)
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i], b[i], "event %d", i)
	}

	c := gen(124)
	require.Equal(t, len(a), len(c))
	anyDifferent := false
	for i := range a {
		if a[i].Timestamp() != c[i].Timestamp() {
			anyDifferent = true
			break
		}
	}
	assert.True(t, anyDifferent, "different seeds produced identical schedules")
}

func TestNewGenerator_NilRNG_Panics(t *testing.T) {
	assert.Panics(t, func() { NewGenerator(1, 1, nil) })
}
