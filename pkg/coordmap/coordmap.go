// Package coordmap builds the per-page index that ties every character of a
// page's extracted text to a box in page coordinates.
//
// The package provides:
//
// - CharacterEntry: one glyph, its global offset and its box
// - CoordinateMap: the immutable per-page index with line and word spans
// - Build: the builder that apportions glyph runs into per-character boxes
// - Document: the ordered set of page maps with their global offset bases
//
// Offsets are global: they count characters from the start of the whole
// document, not the page. A page's offsets form the contiguous range
// [Base, Base+Len). Maps are never patched in place; a change to a page's
// text means building a new map and replacing the old one.
package coordmap

import (
	"math"
	"sort"
)

// Rect is an axis-aligned box in page coordinates. Y grows downwards.
type Rect struct {
	X0 float64 // Left
	Y0 float64 // Top
	X1 float64 // Right
	Y1 float64 // Bottom
}

// NewRect creates a rect from its corner coordinates.
func NewRect(x0, y0, x1, y1 float64) Rect {
	return Rect{X0: x0, Y0: y0, X1: x1, Y1: y1}
}

// Width returns the horizontal extent of r.
func (r Rect) Width() float64 { return r.X1 - r.X0 }

// Height returns the vertical extent of r.
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

// Center returns the midpoint of r.
func (r Rect) Center() (float64, float64) {
	return (r.X0 + r.X1) / 2, (r.Y0 + r.Y1) / 2
}

// Valid reports whether r has a strictly positive extent on both axes.
func (r Rect) Valid() bool {
	return r.X0 < r.X1 && r.Y0 < r.Y1
}

// Union returns the smallest rect containing r and o.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		X0: math.Min(r.X0, o.X0),
		Y0: math.Min(r.Y0, o.Y0),
		X1: math.Max(r.X1, o.X1),
		Y1: math.Max(r.Y1, o.Y1),
	}
}

// Contains reports whether o lies entirely inside r.
func (r Rect) Contains(o Rect) bool {
	return o.X0 >= r.X0 && o.Y0 >= r.Y0 && o.X1 <= r.X1 && o.Y1 <= r.Y1
}

// Distance returns the Euclidean distance from (x, y) to the closest point of r.
// It is zero for points inside r.
func (r Rect) Distance(x, y float64) float64 {
	dx := math.Max(0, math.Max(r.X0-x, x-r.X1))
	dy := math.Max(0, math.Max(r.Y0-y, y-r.Y1))
	return math.Hypot(dx, dy)
}

// CharacterEntry is one character of a page's text with its geometry.
type CharacterEntry struct {
	Offset    int     // Global offset in the document
	Page      int     // 1-based page number
	Box       Rect    // Glyph box in page coordinates
	Glyph     rune    // The character, including synthetic ' ' and '\n'
	FontSize  float64 // Font size of the run the glyph came from
	Synthetic bool    // True for injected inter-word spaces and line breaks
	Line      int     // Index into the map's line spans
	Word      int     // Index into the map's word spans
}

// Span is a half-open range [Start, End) of global offsets.
type Span struct {
	Start int
	End   int
}

// Len returns the number of offsets covered by s.
func (s Span) Len() int { return s.End - s.Start }

// Contains reports whether offset lies in s.
func (s Span) Contains(offset int) bool {
	return offset >= s.Start && offset < s.End
}

// CoordinateMap is the geometry index of a single page.
// It is immutable once built and safe to share between readers.
type CoordinateMap struct {
	page      int
	base      int
	entries   []CharacterEntry
	lines     []Span
	lineBoxes []Rect
	words     []Span
	text      string
}

// Page returns the 1-based page number.
func (m *CoordinateMap) Page() int { return m.page }

// Base returns the global offset of the page's first character.
func (m *CoordinateMap) Base() int { return m.base }

// Len returns the number of characters on the page.
func (m *CoordinateMap) Len() int { return len(m.entries) }

// End returns the global offset one past the page's last character.
func (m *CoordinateMap) End() int { return m.base + len(m.entries) }

// Text returns the page text the map was built from, synthetic glyphs included.
func (m *CoordinateMap) Text() string { return m.text }

// Contains reports whether offset belongs to the page.
func (m *CoordinateMap) Contains(offset int) bool {
	return offset >= m.base && offset < m.End()
}

// Entry returns the character at a global offset.
func (m *CoordinateMap) Entry(offset int) (CharacterEntry, bool) {
	if !m.Contains(offset) {
		return CharacterEntry{}, false
	}
	return m.entries[offset-m.base], true
}

// Clamp limits start and end to the page's offset domain.
func (m *CoordinateMap) Clamp(start, end int) (int, int) {
	return clamp(start, m.base, m.End()), clamp(end, m.base, m.End())
}

// Entries returns the characters in [start, end), clamped to the page.
// The returned slice shares storage with the map and must not be modified.
func (m *CoordinateMap) Entries(start, end int) []CharacterEntry {
	start, end = m.Clamp(start, end)
	if start >= end {
		return nil
	}
	return m.entries[start-m.base : end-m.base]
}

// Lines returns the line spans in top-to-bottom order.
func (m *CoordinateMap) Lines() []Span {
	return append([]Span(nil), m.lines...)
}

// Words returns the word spans in reading order. Each word span carries the
// whitespace that follows it so that the spans partition the page.
func (m *CoordinateMap) Words() []Span {
	return append([]Span(nil), m.words...)
}

// LineBox returns the union box of the i-th line.
func (m *CoordinateMap) LineBox(i int) Rect {
	return m.lineBoxes[i]
}

// LineAt returns the line span containing offset.
func (m *CoordinateMap) LineAt(offset int) (Span, bool) {
	e, ok := m.Entry(offset)
	if !ok {
		return Span{}, false
	}
	return m.lines[e.Line], true
}

// WordAt returns the word span containing offset.
func (m *CoordinateMap) WordAt(offset int) (Span, bool) {
	e, ok := m.Entry(offset)
	if !ok {
		return Span{}, false
	}
	return m.words[e.Word], true
}

// LineIndex returns the index of the line that contains offset, searching
// the line table rather than the entry so it also works for End().
func (m *CoordinateMap) LineIndex(offset int) int {
	i := sort.Search(len(m.lines), func(i int) bool {
		return m.lines[i].End > offset
	})
	if i == len(m.lines) {
		return len(m.lines) - 1
	}
	return i
}

// Rebase returns a copy of the map whose first character sits at base.
// The receiver is left untouched.
func (m *CoordinateMap) Rebase(base int) *CoordinateMap {
	if base == m.base {
		return m
	}
	shift := base - m.base

	out := &CoordinateMap{
		page:      m.page,
		base:      base,
		entries:   make([]CharacterEntry, len(m.entries)),
		lines:     shiftSpans(m.lines, shift),
		lineBoxes: m.lineBoxes,
		words:     shiftSpans(m.words, shift),
		text:      m.text,
	}
	for i, e := range m.entries {
		e.Offset += shift
		out.entries[i] = e
	}
	return out
}

func shiftSpans(spans []Span, shift int) []Span {
	out := make([]Span, len(spans))
	for i, s := range spans {
		out[i] = Span{Start: s.Start + shift, End: s.End + shift}
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
