package coordmap

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/gardar/ocrlens/internal/logging"
)

// Document owns the coordinate maps of all pages of one document and keeps
// their global offset bases consistent.
//
// A page's base is the total text length of all prior pages. Pages without
// geometry count with their last known length (zero if never built), so a
// page that later becomes available shifts the bases of the pages after it.
// Rebuild re-bases those pages and reports them so that cached highlight
// geometry can be refreshed.
type Document struct {
	source  GeometrySource
	maps    []*CoordinateMap // index page-1, nil when not built
	lengths []int            // last known text length per page
	log     zerolog.Logger
}

// NewDocument creates an empty document backed by src.
func NewDocument(src GeometrySource) *Document {
	n := src.PageCount()
	return &Document{
		source:  src,
		maps:    make([]*CoordinateMap, n),
		lengths: make([]int, n),
		log:     logging.Component("coordmap"),
	}
}

// PageCount returns the number of pages in the document.
func (d *Document) PageCount() int { return len(d.maps) }

// Map returns the coordinate map of a page, if it has been built.
func (d *Document) Map(page int) (*CoordinateMap, bool) {
	if page < 1 || page > len(d.maps) || d.maps[page-1] == nil {
		return nil, false
	}
	return d.maps[page-1], true
}

// Base returns the global offset of the first character of page.
func (d *Document) Base(page int) int {
	base := 0
	for i := 0; i < page-1 && i < len(d.lengths); i++ {
		base += d.lengths[i]
	}
	return base
}

// Len returns the total text length of the document as currently known.
func (d *Document) Len() int {
	return d.Base(len(d.lengths) + 1)
}

// PageOf returns the page whose map contains offset.
func (d *Document) PageOf(offset int) (int, bool) {
	i := sort.Search(len(d.maps), func(i int) bool {
		return d.Base(i+2) > offset
	})
	if i >= len(d.maps) || d.maps[i] == nil || !d.maps[i].Contains(offset) {
		return 0, false
	}
	return i + 1, true
}

// BuildAll builds every page in order. Pages without geometry are skipped and
// returned; any other error aborts the build.
func (d *Document) BuildAll(ctx context.Context) ([]int, error) {
	var unavailable []int
	for page := 1; page <= len(d.maps); page++ {
		if _, err := d.Rebuild(ctx, page); err != nil {
			if errors.Is(err, ErrGeometryUnavailable) {
				unavailable = append(unavailable, page)
				continue
			}
			return unavailable, err
		}
	}
	return unavailable, nil
}

// Rebuild discards the map of page and builds a new one from the source.
// It returns every page whose map changed: the page itself and any later
// pages whose base moved. On ErrGeometryUnavailable the page is invalidated.
func (d *Document) Rebuild(ctx context.Context, page int) ([]int, error) {
	if page < 1 || page > len(d.maps) {
		return nil, fmt.Errorf("page %d out of range 1..%d", page, len(d.maps))
	}

	m, err := BuildFrom(ctx, d.source, page, d.Base(page))
	if err != nil {
		if errors.Is(err, ErrGeometryUnavailable) {
			d.Invalidate(page)
		}
		return nil, err
	}
	return d.install(page, m), nil
}

// Set installs a map built elsewhere for page, re-basing it if needed.
// It returns the pages whose maps changed.
func (d *Document) Set(page int, m *CoordinateMap) ([]int, error) {
	if page < 1 || page > len(d.maps) {
		return nil, fmt.Errorf("page %d out of range 1..%d", page, len(d.maps))
	}
	if m.Page() != page {
		return nil, fmt.Errorf("map belongs to page %d, not %d", m.Page(), page)
	}
	return d.install(page, m.Rebase(d.Base(page))), nil
}

// Invalidate drops the map of a page. Its last known length is kept so the
// bases of later pages stay stable until the page is rebuilt.
func (d *Document) Invalidate(page int) {
	if page < 1 || page > len(d.maps) {
		return
	}
	d.maps[page-1] = nil
	d.log.Debug().Int("page", page).Msg("coordinate map invalidated")
}

func (d *Document) install(page int, m *CoordinateMap) []int {
	d.maps[page-1] = m
	oldLen := d.lengths[page-1]
	d.lengths[page-1] = m.Len()

	changed := []int{page}
	if oldLen != m.Len() {
		for p := page + 1; p <= len(d.maps); p++ {
			other := d.maps[p-1]
			if other == nil {
				continue
			}
			if base := d.Base(p); other.Base() != base {
				d.maps[p-1] = other.Rebase(base)
				changed = append(changed, p)
			}
		}
	}

	d.log.Debug().
		Int("page", page).
		Int("base", m.Base()).
		Int("len", m.Len()).
		Ints("changed", changed).
		Msg("coordinate map installed")
	return changed
}
