package resolve

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardar/ocrlens/pkg/coordmap"
)

// pageMaps is a fixed set of page maps for testing.
type pageMaps map[int]*coordmap.CoordinateMap

func (p pageMaps) Map(page int) (*coordmap.CoordinateMap, bool) {
	m, ok := p[page]
	return m, ok
}

func (p pageMaps) Base(page int) int {
	if m, ok := p[page]; ok {
		return m.Base()
	}
	return 0
}

func mustBuild(t *testing.T, page, base int, runs []coordmap.GlyphRun) *coordmap.CoordinateMap {
	t.Helper()
	m, err := coordmap.Build(page, base, runs)
	require.NoError(t, err)
	return m
}

func helloWorld(t *testing.T) *coordmap.CoordinateMap {
	return mustBuild(t, 1, 0, []coordmap.GlyphRun{
		{Text: "Hello", Box: coordmap.NewRect(0, 0, 50, 10), FontSize: 10, Break: coordmap.BreakSpace},
		{Text: "World", Box: coordmap.NewRect(55, 0, 110, 10), FontSize: 10},
	})
}

// twoLines builds a page whose first line holds offsets 0..40 (the newline
// at 40 included) and whose second line holds 41..90.
func twoLines(t *testing.T) *coordmap.CoordinateMap {
	return mustBuild(t, 1, 0, []coordmap.GlyphRun{
		{Text: strings.Repeat("a", 40), Box: coordmap.NewRect(0, 0, 400, 12), Break: coordmap.BreakLine},
		{Text: strings.Repeat("b", 50), Box: coordmap.NewRect(0, 20, 500, 32)},
	})
}

func TestBoxes_SingleLine(t *testing.T) {
	r := New(pageMaps{1: helloWorld(t)}, Options{})

	boxes := r.Boxes(0, 11, 1)
	require.Len(t, boxes, 1)
	assert.Equal(t, Box{X: 0, Y: 0, Width: 110, Height: 10}, boxes[0])
}

func TestBoxes_TwoLines(t *testing.T) {
	m := twoLines(t)
	line, ok := m.LineAt(40)
	require.True(t, ok)
	require.Equal(t, coordmap.Span{Start: 0, End: 41}, line)

	r := New(pageMaps{1: m}, Options{})
	boxes := r.Boxes(30, 50, 1)
	require.Len(t, boxes, 2)
	assert.Less(t, boxes[0].Y, boxes[1].Y)

	assert.Equal(t, 0.0, boxes[0].Y)
	assert.InDelta(t, 300, boxes[0].X, 1e-9)
	assert.Equal(t, 20.0, boxes[1].Y)
	assert.Equal(t, 0.0, boxes[1].X)
	assert.InDelta(t, 90, boxes[1].Width, 1e-9)
}

func TestBoxes_Empty(t *testing.T) {
	r := New(pageMaps{1: helloWorld(t)}, Options{})

	tests := []struct {
		name       string
		start, end int
		page       int
	}{
		{"no map", 0, 5, 2},
		{"collapsed", 3, 3, 1},
		{"reversed", 5, 2, 1},
		{"outside", 20, 30, 1},
		{"before", -10, -1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, r.Boxes(tt.start, tt.end, tt.page))
		})
	}
}

func TestBoxes_Clamps(t *testing.T) {
	r := New(pageMaps{1: helloWorld(t)}, Options{})
	assert.Equal(t, r.Boxes(0, 11, 1), r.Boxes(-100, 100, 1))
}

func TestBoxes_ContainEveryGlyph(t *testing.T) {
	m := twoLines(t)
	r := New(pageMaps{1: m}, Options{})

	ranges := [][2]int{{0, 91}, {10, 20}, {39, 42}, {40, 41}, {41, 91}, {0, 1}}
	for _, rg := range ranges {
		boxes := r.Boxes(rg[0], rg[1], 1)
		require.NotEmpty(t, boxes, "range %v", rg)
		for _, e := range m.Entries(rg[0], rg[1]) {
			covered := false
			for _, b := range boxes {
				if b.Rect().Contains(e.Box) {
					covered = true
					break
				}
			}
			assert.True(t, covered, "offset %d not covered by %v", e.Offset, boxes)
		}
	}
}

func TestBoxes_MixedFontSizes(t *testing.T) {
	// A small superscript sitting near the top of a large line stays on
	// that line, and a following line of large text does not merge into it.
	m := mustBuild(t, 1, 0, []coordmap.GlyphRun{
		{Text: "Big", Box: coordmap.NewRect(0, 0, 60, 20)},
		{Text: "2", Box: coordmap.NewRect(60, 4, 66, 12), Break: coordmap.BreakLine},
		{Text: "Next", Box: coordmap.NewRect(0, 30, 80, 50)},
	})
	boxes := RangeBoxes(m, 0, m.End(), DefaultToleranceFactor)
	require.Len(t, boxes, 2)
	assert.Equal(t, Box{X: 0, Y: 0, Width: 67.5, Height: 20}, boxes[0])
	assert.Equal(t, Box{X: 0, Y: 30, Width: 80, Height: 20}, boxes[1])
}

func TestBoxes_OrderedByYThenX(t *testing.T) {
	// Reading order visits the right column first.
	m := mustBuild(t, 1, 0, []coordmap.GlyphRun{
		{Text: "right", Box: coordmap.NewRect(300, 100, 350, 110), Break: coordmap.BreakLine},
		{Text: "left", Box: coordmap.NewRect(0, 100, 40, 110), Break: coordmap.BreakLine},
		{Text: "top", Box: coordmap.NewRect(0, 0, 30, 10)},
	})
	boxes := RangeBoxes(m, 0, m.End(), 0.5)

	want := []Box{
		{X: 0, Y: 0, Width: 30, Height: 10},
		{X: 0, Y: 100, Width: 352.5, Height: 10},
	}
	if diff := cmp.Diff(want, boxes); diff != "" {
		t.Errorf("boxes mismatch (-want +got):\n%s", diff)
	}
}

func TestOffset_Midpoint(t *testing.T) {
	r := New(pageMaps{1: helloWorld(t)}, Options{})

	// Centers of 'H' and 'e' are at x=5 and x=15.
	off, ok := r.Offset(10, 5, 1)
	require.True(t, ok)
	assert.Equal(t, 1, off)
}

func TestOffset_BeforeAfter(t *testing.T) {
	r := New(pageMaps{1: helloWorld(t)}, Options{})

	tests := []struct {
		name string
		x, y float64
		want int
	}{
		{"left half of H", 2, 5, 0},
		{"right half of H", 7, 5, 1},
		{"left half of W", 57, 5, 6},
		{"right of last glyph", 200, 5, 11},
		{"far left margin", -50, 5, 0},
		{"below the line", 105, 300, 11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			off, ok := r.Offset(tt.x, tt.y, 1)
			require.True(t, ok)
			assert.Equal(t, tt.want, off)
		})
	}
}

func TestOffset_PicksNearestLine(t *testing.T) {
	m := twoLines(t)
	r := New(pageMaps{1: m}, Options{})

	off, ok := r.Offset(2, 27, 1)
	require.True(t, ok)
	assert.Equal(t, 41, off)

	off, ok = r.Offset(8, 3, 1)
	require.True(t, ok)
	assert.Equal(t, 1, off)
}

func TestOffset_Deterministic(t *testing.T) {
	r := New(pageMaps{1: twoLines(t)}, Options{})

	points := [][2]float64{{0, 0}, {250, 16}, {-3, 400}, {999, -1}, {37.5, 26}}
	for _, p := range points {
		a, _ := r.Offset(p[0], p[1], 1)
		b, _ := r.Offset(p[0], p[1], 1)
		assert.Equal(t, a, b, "point %v", p)
	}
}

func TestOffset_NoMap(t *testing.T) {
	m := mustBuild(t, 3, 42, []coordmap.GlyphRun{{Text: "x", Box: coordmap.NewRect(0, 0, 1, 1)}})
	r := New(pageMaps{3: m}, Options{})

	off, ok := r.Offset(1, 1, 2)
	assert.False(t, ok)
	assert.Equal(t, 0, off)

	off, ok = r.Offset(100, 100, 3)
	assert.True(t, ok)
	assert.Equal(t, 43, off)
}

func TestCaret(t *testing.T) {
	r := New(pageMaps{1: helloWorld(t)}, Options{})

	b, ok := r.Caret(1, 1)
	require.True(t, ok)
	assert.Equal(t, 10.0, b.X)
	assert.Equal(t, 10.0, b.Height)
	assert.InDelta(t, 1.0, b.Width, 1e-9)

	b, ok = r.Caret(11, 1)
	require.True(t, ok)
	assert.Equal(t, 110.0, b.X)

	_, ok = r.Caret(12, 1)
	assert.False(t, ok)
	_, ok = r.Caret(0, 5)
	assert.False(t, ok)
}

func TestNew_DefaultFactor(t *testing.T) {
	assert.Equal(t, DefaultToleranceFactor, New(pageMaps{}, Options{}).ToleranceFactor())
	assert.Equal(t, 0.8, New(pageMaps{}, Options{ToleranceFactor: 0.8}).ToleranceFactor())
}

func TestGlyph(t *testing.T) {
	r := New(pageMaps{1: helloWorld(t)}, Options{})

	off, ok := r.Glyph(7, 5, 1)
	require.True(t, ok)
	assert.Equal(t, 0, off)

	off, ok = r.Glyph(61, 2, 1)
	require.True(t, ok)
	assert.Equal(t, 6, off)

	_, ok = r.Glyph(7, 5, 2)
	assert.False(t, ok)
}
