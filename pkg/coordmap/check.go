package coordmap

import (
	"fmt"
	"math"
)

// checkRect validates a source box. Inverted or empty boxes are defects in
// the geometry source: debug builds panic, release builds normalize them.
func checkRect(r Rect) Rect {
	if r.Valid() {
		return r
	}
	if debugChecks {
		panic(fmt.Sprintf("coordmap: malformed box %+v", r))
	}
	return normalizeRect(r)
}

// normalizeRect swaps inverted corners and widens zero extents.
func normalizeRect(r Rect) Rect {
	out := Rect{
		X0: math.Min(r.X0, r.X1),
		Y0: math.Min(r.Y0, r.Y1),
		X1: math.Max(r.X0, r.X1),
		Y1: math.Max(r.Y0, r.Y1),
	}
	if out.X1-out.X0 < MinSyntheticWidth {
		out.X1 = out.X0 + MinSyntheticWidth
	}
	if out.Y1-out.Y0 < MinSyntheticWidth {
		out.Y1 = out.Y0 + MinSyntheticWidth
	}
	return out
}
