package sim

import "github.com/sirupsen/logrus"

// EventKind identifies the variant of an Event.
type EventKind int

const (
	// KindError injects a bit upset into one cell.
	KindError EventKind = iota
	// KindAccess reads one cell, detecting and repairing an upset.
	KindAccess
	// KindScrub sweeps an entire row, correcting every upset cell.
	KindScrub
)

func (k EventKind) String() string {
	switch k {
	case KindError:
		return "error"
	case KindAccess:
		return "access"
	case KindScrub:
		return "scrub"
	default:
		return "unknown"
	}
}

// Event defines the interface for all simulation events.
// Events are immutable once created. Each carries a Timestamp (in simulated seconds)
// and an Execute method that applies it to the processor's grid and counters.
type Event interface {
	Timestamp() float64
	Kind() EventKind
	Execute(*Processor)
}

// ErrorEvent flips a single cell to the upset state.
type ErrorEvent struct {
	time float64
	cell Cell
}

// NewErrorEvent creates an ErrorEvent at time t targeting cell.
func NewErrorEvent(t float64, cell Cell) *ErrorEvent {
	return &ErrorEvent{time: t, cell: cell}
}

func (e *ErrorEvent) Timestamp() float64 { return e.time }
func (e *ErrorEvent) Kind() EventKind    { return KindError }

// Cell returns the cell the error lands on.
func (e *ErrorEvent) Cell() Cell { return e.cell }

// Execute marks the cell upset. Hitting an already-upset cell is not double counted.
func (e *ErrorEvent) Execute(p *Processor) {
	if p.grid.SetUpset(e.cell.Row, e.cell.Col) {
		p.counters.Overwrites++
	}
	logrus.Tracef("<< Error: %s at %.6fs", e.cell, e.time)
}

// AccessEvent models a read of a single cell.
type AccessEvent struct {
	time float64
	cell Cell
}

// NewAccessEvent creates an AccessEvent at time t targeting cell.
func NewAccessEvent(t float64, cell Cell) *AccessEvent {
	return &AccessEvent{time: t, cell: cell}
}

func (e *AccessEvent) Timestamp() float64 { return e.time }
func (e *AccessEvent) Kind() EventKind    { return KindAccess }

// Cell returns the accessed cell.
func (e *AccessEvent) Cell() Cell { return e.cell }

// Execute detects an upset on the accessed cell and repairs it.
// An access to a clean cell has no effect.
func (e *AccessEvent) Execute(p *Processor) {
	if p.grid.ClearUpset(e.cell.Row, e.cell.Col) {
		p.counters.ErrorsEncountered++
		logrus.Tracef("<< Access: %s at %.6fs encountered an error", e.cell, e.time)
	}
}

// ScrubEvent sweeps one row. It has no column.
type ScrubEvent struct {
	time float64
	row  int
}

// NewScrubEvent creates a ScrubEvent at time t for row.
func NewScrubEvent(t float64, row int) *ScrubEvent {
	return &ScrubEvent{time: t, row: row}
}

func (e *ScrubEvent) Timestamp() float64 { return e.time }
func (e *ScrubEvent) Kind() EventKind    { return KindScrub }

// Row returns the scrubbed row.
func (e *ScrubEvent) Row() int { return e.row }

// Execute corrects every upset cell in the row.
func (e *ScrubEvent) Execute(p *Processor) {
	if n := p.grid.ClearRow(e.row); n > 0 {
		p.counters.ErrorsCorrected += int64(n)
		logrus.Tracef("<< Scrub: row %d at %.6fs corrected %d", e.row, e.time, n)
	}
}
