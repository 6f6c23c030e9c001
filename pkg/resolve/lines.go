package resolve

import (
	"math"
	"sort"

	"github.com/gardar/ocrlens/pkg/coordmap"
)

// RangeBoxes clusters the glyphs of [start, end) on m into visual lines and
// returns the union box of each line.
//
// Clustering does not use the map's line table: a range can start or stop
// mid-line and lines of different columns can interleave in reading order.
// A glyph joins a cluster when its vertical center is within factor times
// the smaller of its own height and the cluster's median glyph height.
func RangeBoxes(m *coordmap.CoordinateMap, start, end int, factor float64) []Box {
	entries := m.Entries(start, end)
	if len(entries) == 0 {
		return nil
	}

	var clusters []*lineCluster
	for _, e := range entries {
		if c := findCluster(clusters, e.Box, factor); c != nil {
			c.add(e.Box)
			continue
		}
		clusters = append(clusters, newLineCluster(e.Box))
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		a, b := clusters[i].box, clusters[j].box
		if a.Y0 != b.Y0 {
			return a.Y0 < b.Y0
		}
		return a.X0 < b.X0
	})

	boxes := make([]Box, len(clusters))
	for i, c := range clusters {
		boxes[i] = BoxFromRect(c.box)
	}
	return boxes
}

// findCluster returns the cluster a glyph box belongs to. Recent clusters
// are tried first since text mostly continues on the line it is on.
func findCluster(clusters []*lineCluster, box coordmap.Rect, factor float64) *lineCluster {
	_, yc := box.Center()
	h := box.Height()
	for i := len(clusters) - 1; i >= 0; i-- {
		c := clusters[i]
		_, cy := c.box.Center()
		tol := factor * math.Min(h, c.medianHeight())
		if math.Abs(yc-cy) < tol {
			return c
		}
	}
	return nil
}

type lineCluster struct {
	box     coordmap.Rect
	heights []float64 // sorted ascending
}

func newLineCluster(box coordmap.Rect) *lineCluster {
	return &lineCluster{box: box, heights: []float64{box.Height()}}
}

func (c *lineCluster) add(box coordmap.Rect) {
	c.box = c.box.Union(box)
	h := box.Height()
	i := sort.SearchFloat64s(c.heights, h)
	c.heights = append(c.heights, 0)
	copy(c.heights[i+1:], c.heights[i:])
	c.heights[i] = h
}

func (c *lineCluster) medianHeight() float64 {
	n := len(c.heights)
	if n%2 == 1 {
		return c.heights[n/2]
	}
	return (c.heights[n/2-1] + c.heights[n/2]) / 2
}
