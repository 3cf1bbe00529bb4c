package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/dramsim/sim/internal/testutil"
)

func mustSimulator(t *testing.T, cfg SimConfig, seed int64) *Simulator {
	t.Helper()
	s, err := NewSimulator(cfg, NewSimulationKey(seed))
	require.NoError(t, err)
	return s
}

func mustRun(t *testing.T, cfg SimConfig, seed int64) *Metrics {
	t.Helper()
	m, err := mustSimulator(t, cfg, seed).Run()
	require.NoError(t, err)
	return m
}

// TestRun_ScrubOnlyScenario: rows=1 cols=1 rate=0 accesses=0 interval=1 sim_time=10 batches=1.
func TestRun_ScrubOnlyScenario(t *testing.T) {
	cfg := SimConfig{Rows: 1, Cols: 1, ErrorRate: 0, NumAccesses: 0, ScrubInterval: 1, SimTime: 10, Batches: 1}

	s := mustSimulator(t, cfg, 42)
	m, err := s.Run()
	require.NoError(t, err)

	assert.Equal(t, int64(0), m.ErrorsEncountered)
	assert.Equal(t, int64(0), m.ErrorsCorrected)
	assert.Equal(t, int64(10), m.Scrubs)
	assert.Equal(t, int64(0), m.ErrorsInjected)
	assert.Equal(t, 10, m.PeakSchedule)
	assert.Equal(t, 0, s.Grid.UpsetCount())
	assert.Equal(t, 1, m.Windows)
}

func TestRun_EveryInjectedErrorIsAccountedFor(t *testing.T) {
	tests := []struct {
		name string
		cfg  SimConfig
	}{
		{"dense single window", SimConfig{Rows: 4, Cols: 4, ErrorRate: 360000, NumAccesses: 2000, ScrubInterval: 2, SimTime: 60, Batches: 1}},
		{"many windows", SimConfig{Rows: 16, Cols: 32, ErrorRate: 720000, NumAccesses: 50000, ScrubInterval: 5, SimTime: 120, Batches: 8}},
		{"no accesses", SimConfig{Rows: 8, Cols: 8, ErrorRate: 36000, NumAccesses: 0, ScrubInterval: 7, SimTime: 100, Batches: 3}},
		{"long interval", SimConfig{Rows: 8, Cols: 8, ErrorRate: 36000, NumAccesses: 300, ScrubInterval: 500, SimTime: 100, Batches: 2}},
		{"fifo ties", SimConfig{Rows: 2, Cols: 2, ErrorRate: 360000, NumAccesses: 1000, ScrubInterval: 0.25, SimTime: 30, Batches: 5, TieBreak: TieBreakFIFO}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustSimulator(t, tt.cfg, 2024)
			m, err := s.Run()
			require.NoError(t, err)

			// injected = encountered + corrected + overwrites + residual
			assert.Equal(t, int64(0), m.Unaccounted(),
				"injected=%d encountered=%d corrected=%d overwrites=%d residual=%d",
				m.ErrorsInjected, m.ErrorsEncountered, m.ErrorsCorrected, m.Overwrites, m.ResidualUpset)
			assert.Equal(t, int64(s.Grid.UpsetCount()), m.ResidualUpset)
			assert.Greater(t, m.ErrorsInjected, int64(0))
		})
	}
}

func TestRun_SameKey_IdenticalMetrics(t *testing.T) {
	cfg := SimConfig{Rows: 8, Cols: 16, ErrorRate: 360000, NumAccesses: 10000, ScrubInterval: 3, SimTime: 100, Batches: 4}

	a := mustRun(t, cfg, 7)
	b := mustRun(t, cfg, 7)
	assert.Equal(t, *a, *b)
}

func TestRun_MoreBatches_SameInjectedTotal(t *testing.T) {
	// 36000/h over 100s = 1000 errors; 4 windows of 25s = 4 × 250
	base := SimConfig{Rows: 8, Cols: 8, ErrorRate: 36000, NumAccesses: 4000, ScrubInterval: 5, SimTime: 100, Batches: 1}
	split := base
	split.Batches = 4

	a := mustRun(t, base, 1)
	b := mustRun(t, split, 1)

	assert.Equal(t, int64(1000), a.ErrorsInjected)
	assert.Equal(t, a.ErrorsInjected, b.ErrorsInjected)
	assert.Equal(t, a.Accesses, b.Accesses)
}

func TestRun_NonDivisibleBatches_InjectedTotalClose(t *testing.T) {
	base := SimConfig{Rows: 4, Cols: 4, ErrorRate: 1000, NumAccesses: 0, ScrubInterval: 60, SimTime: 3600, Batches: 1}
	split := base
	split.Batches = 7

	a := mustRun(t, base, 1)
	b := mustRun(t, split, 1)

	// 1000 vs 7 × floor(142.86) = 994
	assert.Equal(t, int64(1000), a.ErrorsInjected)
	assert.Equal(t, int64(994), b.ErrorsInjected)
	testutil.AssertFloat64Equal(t, "injected", float64(a.ErrorsInjected), float64(b.ErrorsInjected), 0.01)
}

func TestRun_Batching_BoundsPeakSchedule(t *testing.T) {
	base := SimConfig{Rows: 2, Cols: 8, ErrorRate: 36000, NumAccesses: 1000, ScrubInterval: 1, SimTime: 100, Batches: 1}
	split := base
	split.Batches = 10

	a := mustRun(t, base, 3)
	b := mustRun(t, split, 3)

	// whole run in one window: 1000 errors + 1000 accesses + 200 scrubs
	assert.Equal(t, 2200, a.PeakSchedule)
	// one tenth per window
	assert.Equal(t, 220, b.PeakSchedule)
}

func TestRun_AccessRemainderDropped(t *testing.T) {
	cfg := SimConfig{Rows: 1, Cols: 1, ErrorRate: 0, NumAccesses: 10, ScrubInterval: 1, SimTime: 9, Batches: 3}
	m := mustRun(t, cfg, 1)
	assert.Equal(t, int64(9), m.Accesses)

	cfg.NumAccesses = 11
	m = mustRun(t, cfg, 1)
	assert.Equal(t, int64(9), m.Accesses, "11/3 = 3 per window")
}

func TestSimulator_WindowAt(t *testing.T) {
	s := mustSimulator(t, SimConfig{Rows: 1, Cols: 1, ScrubInterval: 1, SimTime: 100, Batches: 4}, 1)

	assert.Equal(t, Window{Start: 0, End: 25}, s.WindowAt(0))
	assert.Equal(t, Window{Start: 75, End: 100}, s.WindowAt(3))
}

type collectingObserver struct {
	windows []WindowStats
	failAt  int
}

func (o *collectingObserver) ObserveWindow(ws WindowStats) error {
	o.windows = append(o.windows, ws)
	if ws.Index == o.failAt {
		return errors.New("disk full")
	}
	return nil
}

func TestSimulator_ObserversSeeEveryWindow(t *testing.T) {
	cfg := SimConfig{Rows: 4, Cols: 4, ErrorRate: 36000, NumAccesses: 400, ScrubInterval: 2, SimTime: 40, Batches: 4}
	s := mustSimulator(t, cfg, 11)
	obs := &collectingObserver{failAt: -1}
	s.AddObserver(obs)

	m, err := s.Run()
	require.NoError(t, err)
	require.Len(t, obs.windows, 4)

	var encountered, corrected int64
	for i, ws := range obs.windows {
		assert.Equal(t, i, ws.Index)
		assert.Equal(t, s.ID, ws.RunID)
		assert.Equal(t, s.WindowAt(i), ws.Window)
		assert.Equal(t, ws.Generated.Total(), ws.Processed, "every generated event is drained")
		encountered += ws.Delta.ErrorsEncountered
		corrected += ws.Delta.ErrorsCorrected
	}
	assert.Equal(t, m.ErrorsEncountered, encountered)
	assert.Equal(t, m.ErrorsCorrected, corrected)
	assert.Equal(t, int(m.ResidualUpset), obs.windows[3].UpsetAfter)
}

func TestSimulator_ObserverError_AbortsRun(t *testing.T) {
	cfg := SimConfig{Rows: 1, Cols: 1, ScrubInterval: 1, SimTime: 10, Batches: 5}
	s := mustSimulator(t, cfg, 1)
	obs := &collectingObserver{failAt: 1}
	s.AddObserver(obs)

	_, err := s.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Len(t, obs.windows, 2)
	assert.False(t, s.Done())
}

func TestSimulator_StepAfterDone_Errors(t *testing.T) {
	s := mustSimulator(t, SimConfig{Rows: 1, Cols: 1, ScrubInterval: 1, SimTime: 2, Batches: 2}, 1)

	_, err := s.Step()
	require.NoError(t, err)
	_, err = s.Step()
	require.NoError(t, err)
	assert.True(t, s.Done())

	_, err = s.Step()
	assert.Error(t, err)
}

func TestSimulator_Step_LeftoverEvents_Panics(t *testing.T) {
	s := mustSimulator(t, SimConfig{Rows: 1, Cols: 1, ScrubInterval: 1, SimTime: 2, Batches: 2}, 1)
	s.Schedule.Insert(NewAccessEvent(0.5, Cell{0, 0}))

	assert.PanicsWithValue(t,
		"Simulator.Step: schedule holds 1 events at window start, earliest access at 0.5",
		func() { _, _ = s.Step() })
}

func TestNewSimulator_InvalidConfig_FailsFast(t *testing.T) {
	valid := SimConfig{Rows: 1, Cols: 1, ScrubInterval: 1, SimTime: 10, Batches: 1}

	bad := valid
	bad.Batches = 0
	_, err := NewSimulator(bad, NewSimulationKey(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batches")

	bad = valid
	bad.ScrubInterval = 0
	_, err = NewSimulator(bad, NewSimulationKey(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scrub_interval")

	bad = valid
	bad.ErrorRate = 1e300
	_, err = NewSimulator(bad, NewSimulationKey(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error_rate")
}

func TestNewSimulator_EmptyTieBreak_DefaultsToKind(t *testing.T) {
	s := mustSimulator(t, SimConfig{Rows: 1, Cols: 1, ScrubInterval: 1, SimTime: 1, Batches: 1}, 1)
	assert.Equal(t, TieBreakKind, s.Config.TieBreak)
}
