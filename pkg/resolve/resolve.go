// Package resolve answers geometry questions against coordinate maps:
// which boxes a text range covers on the page, and which text offset a
// page coordinate points at.
//
// Absence of geometry is a normal state (pages that have not been rendered
// yet), so lookups never fail: range lookups return no boxes and coordinate
// lookups return the best offset they can.
package resolve

import (
	"math"

	"github.com/gardar/ocrlens/pkg/coordmap"
)

// DefaultToleranceFactor is the share of the smaller box height within which
// two glyph centers count as the same visual line.
const DefaultToleranceFactor = 0.5

// caretWidthRatio sizes the caret relative to the glyph it sits on.
const caretWidthRatio = 0.1

// Box is a page-relative rectangle with positive width and height.
type Box struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// BoxFromRect converts corner coordinates to a Box.
func BoxFromRect(r coordmap.Rect) Box {
	return Box{X: r.X0, Y: r.Y0, Width: r.Width(), Height: r.Height()}
}

// Rect converts b back to corner coordinates.
func (b Box) Rect() coordmap.Rect {
	return coordmap.NewRect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// Maps gives the resolver access to the current page maps.
// *coordmap.Document implements it.
type Maps interface {
	Map(page int) (*coordmap.CoordinateMap, bool)
	Base(page int) int
}

// Options tunes the resolver.
type Options struct {
	// ToleranceFactor scales the line clustering tolerance. Zero means
	// DefaultToleranceFactor.
	ToleranceFactor float64
}

// Resolver maps between text offsets and page coordinates.
// It keeps no state of its own besides the maps it reads.
type Resolver struct {
	maps   Maps
	factor float64
}

// New creates a resolver reading page maps from maps.
func New(maps Maps, opts Options) *Resolver {
	factor := opts.ToleranceFactor
	if factor <= 0 {
		factor = DefaultToleranceFactor
	}
	return &Resolver{maps: maps, factor: factor}
}

// ToleranceFactor returns the line clustering factor in use.
func (r *Resolver) ToleranceFactor() float64 { return r.factor }

// Boxes returns one box per visual line covered by [start, end) on page,
// ordered top to bottom then left to right. It returns nil when the page
// has no map or the range does not intersect the page.
func (r *Resolver) Boxes(start, end, page int) []Box {
	m, ok := r.maps.Map(page)
	if !ok {
		return nil
	}
	return RangeBoxes(m, start, end, r.factor)
}

// Offset returns the text offset closest to the page coordinate (x, y).
// The offset is the nearest glyph's offset when x lies left of the glyph's
// center, and the offset after it otherwise. ok is false when the page has
// no map; the page base is returned in that case.
func (r *Resolver) Offset(x, y float64, page int) (int, bool) {
	m, ok := r.maps.Map(page)
	if !ok {
		return r.maps.Base(page), false
	}
	return NearestOffset(m, x, y), true
}

// Glyph returns the offset of the glyph nearest to (x, y) on page.
func (r *Resolver) Glyph(x, y float64, page int) (int, bool) {
	m, ok := r.maps.Map(page)
	if !ok {
		return 0, false
	}
	e, ok := NearestEntry(m, x, y)
	return e.Offset, ok
}

// Caret returns a thin box marking the insertion point before offset.
// An offset at the end of the page yields a caret after its last glyph.
func (r *Resolver) Caret(offset, page int) (Box, bool) {
	m, ok := r.maps.Map(page)
	if !ok {
		return Box{}, false
	}
	return CaretBox(m, offset)
}

// CaretBox computes the caret box for offset on m.
func CaretBox(m *coordmap.CoordinateMap, offset int) (Box, bool) {
	if m.Len() == 0 || offset < m.Base() || offset > m.End() {
		return Box{}, false
	}

	x := 0.0
	var glyph coordmap.Rect
	if e, ok := m.Entry(offset); ok {
		glyph = e.Box
		x = glyph.X0
	} else {
		last, _ := m.Entry(m.End() - 1)
		glyph = last.Box
		x = glyph.X1
	}

	w := math.Max(glyph.Width()*caretWidthRatio, coordmap.MinSyntheticWidth)
	return Box{X: x, Y: glyph.Y0, Width: w, Height: glyph.Height()}, true
}
