// Implements the Schedule, the time-ordered event queue drained once per batch window.

package sim

import (
	"container/heap"
	"fmt"
)

// TieBreak selects how events with identical timestamps are ordered.
type TieBreak string

const (
	// TieBreakKind orders equal-time events Error → Access → Scrub, then by insertion order.
	TieBreakKind TieBreak = "kind"
	// TieBreakFIFO orders equal-time events by insertion order only.
	TieBreakFIFO TieBreak = "fifo"
)

// validTieBreaks maps accepted tie-break names.
var validTieBreaks = map[TieBreak]bool{
	TieBreakKind: true,
	TieBreakFIFO: true,
	"":           true, // empty defaults to kind
}

// IsValidTieBreak returns true if name is a recognized tie-break policy.
func IsValidTieBreak(name string) bool {
	return validTieBreaks[TieBreak(name)]
}

// KindPriority is the secondary sort key under TieBreakKind (lower runs first).
// Errors land before accesses so that a simultaneous access observes them,
// and scrubs run last in the instant.
var KindPriority = map[EventKind]int{
	KindError:  1,
	KindAccess: 2,
	KindScrub:  3,
}

type scheduled struct {
	ev  Event
	seq uint64
}

// Schedule is a priority queue of events with deterministic ordering.
// Ordering: timestamp → kind priority (TieBreakKind only) → insertion sequence.
type Schedule struct {
	events  []scheduled
	byKind  bool
	nextSeq uint64
	peak    int
}

// NewSchedule creates an empty schedule using the given tie-break policy.
func NewSchedule(tb TieBreak) *Schedule {
	if !IsValidTieBreak(string(tb)) {
		panic(fmt.Sprintf("NewSchedule: unknown tie-break %q", tb))
	}
	s := &Schedule{
		events: make([]scheduled, 0),
		byKind: tb != TieBreakFIFO,
	}
	heap.Init(s)
	return s
}

// Len implements heap.Interface
func (s *Schedule) Len() int { return len(s.events) }

// Less implements heap.Interface with deterministic ordering
func (s *Schedule) Less(i, j int) bool {
	ei, ej := s.events[i], s.events[j]

	if ei.ev.Timestamp() != ej.ev.Timestamp() {
		return ei.ev.Timestamp() < ej.ev.Timestamp()
	}

	if s.byKind {
		pi, pj := KindPriority[ei.ev.Kind()], KindPriority[ej.ev.Kind()]
		if pi != pj {
			return pi < pj
		}
	}

	return ei.seq < ej.seq
}

// Swap implements heap.Interface
func (s *Schedule) Swap(i, j int) { s.events[i], s.events[j] = s.events[j], s.events[i] }

// Push implements heap.Interface. Use Insert instead.
func (s *Schedule) Push(x any) { s.events = append(s.events, x.(scheduled)) }

// Pop implements heap.Interface. Use PopNext instead.
func (s *Schedule) Pop() any {
	old := s.events
	n := len(old)
	item := old[n-1]
	old[n-1] = scheduled{}
	s.events = old[0 : n-1]
	return item
}

// Insert adds an event to the schedule.
func (s *Schedule) Insert(ev Event) {
	if ev == nil {
		panic("Schedule.Insert: event must not be nil")
	}
	heap.Push(s, scheduled{ev: ev, seq: s.nextSeq})
	s.nextSeq++
	if len(s.events) > s.peak {
		s.peak = len(s.events)
	}
}

// PopNext removes and returns the earliest event, or nil if the schedule is empty.
func (s *Schedule) PopNext() Event {
	if s.Len() == 0 {
		return nil
	}
	return heap.Pop(s).(scheduled).ev
}

// Peek returns the earliest event without removing it, or nil if empty.
func (s *Schedule) Peek() Event {
	if s.Len() == 0 {
		return nil
	}
	return s.events[0].ev
}

// Peak returns the largest size the schedule reached since the last ResetPeak.
func (s *Schedule) Peak() int { return s.peak }

// ResetPeak restarts peak tracking from the current size.
func (s *Schedule) ResetPeak() { s.peak = len(s.events) }
