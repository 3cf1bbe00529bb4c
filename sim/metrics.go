// Tracks the run-wide error counters and prints the final report.

package sim

import (
	"fmt"
	"io"
)

// Counters aggregates what the processor observed over a whole run.
// All fields are monotonically non-decreasing.
type Counters struct {
	ErrorsEncountered int64 // upsets detected (and repaired) by an access
	ErrorsCorrected   int64 // upsets cleared by a row scrub
	Overwrites        int64 // errors that landed on an already-upset cell
}

// Sub returns c - prev, the per-window delta.
func (c Counters) Sub(prev Counters) Counters {
	return Counters{
		ErrorsEncountered: c.ErrorsEncountered - prev.ErrorsEncountered,
		ErrorsCorrected:   c.ErrorsCorrected - prev.ErrorsCorrected,
		Overwrites:        c.Overwrites - prev.Overwrites,
	}
}

// Metrics is the end-of-run summary.
type Metrics struct {
	Counters
	ErrorsInjected int64 // Error events generated
	Accesses       int64 // Access events generated
	Scrubs         int64 // Scrub events generated
	ResidualUpset  int64 // cells still upset when the run ended
	PeakSchedule   int   // largest schedule size over all windows
	Windows        int   // batch windows processed
}

// Print writes the two result lines.
func (m *Metrics) Print(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Errors Encountered: %d\nErrors Corrected: %d\n",
		m.ErrorsEncountered, m.ErrorsCorrected)
	return err
}

// Unaccounted returns injected errors not explained by an access, a scrub,
// an overwrite, or a cell left upset. It is zero for every completed run.
func (m *Metrics) Unaccounted() int64 {
	return m.ErrorsInjected - m.ErrorsEncountered - m.ErrorsCorrected - m.Overwrites - m.ResidualUpset
}
