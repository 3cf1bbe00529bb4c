// Package monitor samples resource usage of the running simulator process.
package monitor

import (
	"fmt"
	"os"

	"github.com/shirou/gopsutil/process"
	"github.com/sirupsen/logrus"

	sim "github.com/inference-sim/dramsim/sim"
)

// RSSReader returns the resident set size of a process in bytes.
type RSSReader interface {
	RSS() (uint64, error)
}

type processRSS struct {
	proc *process.Process
}

// NewProcessRSS returns an RSSReader for the current process.
func NewProcessRSS() (RSSReader, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("open current process: %w", err)
	}
	return &processRSS{proc: p}, nil
}

func (r *processRSS) RSS() (uint64, error) {
	info, err := r.proc.MemoryInfo()
	if err != nil {
		return 0, fmt.Errorf("read memory info: %w", err)
	}
	return info.RSS, nil
}

// MemorySampler records process RSS after every batch window.
// It implements sim.WindowObserver.
type MemorySampler struct {
	reader  RSSReader
	Samples []uint64 // one entry per observed window
	Peak    uint64
}

// NewMemorySampler creates a sampler reading from r.
func NewMemorySampler(r RSSReader) *MemorySampler {
	return &MemorySampler{reader: r}
}

// ObserveWindow implements sim.WindowObserver.
func (m *MemorySampler) ObserveWindow(ws sim.WindowStats) error {
	rss, err := m.reader.RSS()
	if err != nil {
		return err
	}
	m.Samples = append(m.Samples, rss)
	m.Peak = max(m.Peak, rss)
	logrus.WithField("run", ws.RunID).Debugf("Window %d RSS: %.1f MiB (schedule peak %d events)",
		ws.Index, float64(rss)/(1<<20), ws.PeakSchedule)
	return nil
}

// Last returns the most recent sample, or 0 if none were taken.
func (m *MemorySampler) Last() uint64 {
	if len(m.Samples) == 0 {
		return 0
	}
	return m.Samples[len(m.Samples)-1]
}
