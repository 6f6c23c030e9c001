package resolve

import (
	"math"

	"github.com/gardar/ocrlens/pkg/coordmap"
)

// NearestOffset returns the insertion offset for the page coordinate (x, y):
// the nearest glyph's offset when x lies left of the glyph's center, and the
// offset after it otherwise.
func NearestOffset(m *coordmap.CoordinateMap, x, y float64) int {
	e, ok := NearestEntry(m, x, y)
	if !ok {
		return m.Base()
	}
	cx, _ := e.Box.Center()
	if x < cx {
		return e.Offset
	}
	return e.Offset + 1
}

// NearestEntry returns the glyph whose center is closest to (x, y) by
// Euclidean distance, ties going to the lowest offset. Lines whose bounding
// box is already farther than the best candidate are skipped: a glyph
// center is never closer than the box that contains it.
func NearestEntry(m *coordmap.CoordinateMap, x, y float64) (coordmap.CharacterEntry, bool) {
	var (
		best     coordmap.CharacterEntry
		bestDist = math.Inf(1)
		found    bool
	)

	for i, line := range m.Lines() {
		if m.LineBox(i).Distance(x, y) > bestDist {
			continue
		}
		for _, e := range m.Entries(line.Start, line.End) {
			cx, cy := e.Box.Center()
			d := math.Hypot(cx-x, cy-y)
			if d < bestDist || (d == bestDist && e.Offset < best.Offset) {
				best, bestDist, found = e, d, true
			}
		}
	}
	// found stays false for empty maps and NaN coordinates.
	return best, found
}
