package tracker

import (
	"time"

	"github.com/gardar/ocrlens/pkg/paint"
	"github.com/gardar/ocrlens/pkg/resolve"
)

// State is the lifecycle state of a highlight.
type State int

const (
	// StatePending highlights have no geometry yet.
	StatePending State = iota
	// StateRendered highlights are painted with a style other than
	// active or inactive.
	StateRendered
	StateActive
	StateInactive
	StateRemoved
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRendered:
		return "rendered"
	case StateActive:
		return "active"
	case StateInactive:
		return "inactive"
	case StateRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Highlight is a snapshot of one registered highlight.
type Highlight struct {
	ID        string
	Start     int
	End       int
	Page      int
	Style     paint.Style
	Boxes     []resolve.Box
	CreatedAt time.Time
	State     State
}

// Contains reports whether offset lies inside the highlight's range.
func (h Highlight) Contains(offset int) bool {
	return offset >= h.Start && offset < h.End
}

// Overlaps reports whether [start, end) intersects the highlight's range.
func (h Highlight) Overlaps(start, end int) bool {
	return start < h.End && end > h.Start
}

// entry is the registry record of a highlight.
type entry struct {
	Highlight
	seq  int
	base int // page base Start and End were resolved against
	plan *paint.Plan
	text *paint.TextPlan
}

func (e *entry) state() State {
	switch {
	case len(e.Boxes) == 0:
		return StatePending
	case e.Style == paint.StyleActive:
		return StateActive
	case e.Style == paint.StyleInactive:
		return StateInactive
	default:
		return StateRendered
	}
}

func (e *entry) snapshot() Highlight {
	h := e.Highlight
	h.Boxes = append([]resolve.Box(nil), e.Boxes...)
	h.State = e.state()
	return h
}
