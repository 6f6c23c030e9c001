package pdfpaint

import (
	"fmt"
	"sort"

	"github.com/gardar/ocrlens/pkg/hocr"
	"github.com/gardar/ocrlens/pkg/paint"
)

// Sink collects page plans from a highlight tracker. It implements the
// tracker's page view, so whatever the tracker shows on a page at a given
// moment can be written out as a PDF layer.
type Sink struct {
	plans map[int]map[string]*paint.Plan
	order map[int][]string
}

// NewSink returns an empty sink.
func NewSink() *Sink {
	return &Sink{
		plans: make(map[int]map[string]*paint.Plan),
		order: make(map[int][]string),
	}
}

// Apply stores plan under id. A replaced plan moves to the top.
func (s *Sink) Apply(page int, id string, plan *paint.Plan) {
	if plan == nil {
		return
	}
	s.Remove(page, id, nil)
	if s.plans[page] == nil {
		s.plans[page] = make(map[string]*paint.Plan)
	}
	s.plans[page][id] = plan
	s.order[page] = append(s.order[page], id)
}

// Remove drops the plan stored under id.
func (s *Sink) Remove(page int, id string, _ *paint.Plan) {
	if _, ok := s.plans[page][id]; !ok {
		return
	}
	delete(s.plans[page], id)
	ids := s.order[page]
	for i, v := range ids {
		if v == id {
			s.order[page] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
}

// Plans returns the plans of a page bottom to top.
func (s *Sink) Plans(page int) []*paint.Plan {
	ids := s.order[page]
	out := make([]*paint.Plan, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.plans[page][id])
	}
	return out
}

// Len returns the number of stored plans.
func (s *Sink) Len() int {
	n := 0
	for _, m := range s.plans {
		n += len(m)
	}
	return n
}

// PageSizer reports the size of a page in the units its plans use.
type PageSizer interface {
	PageCount() int
	PageSize(page int) (w, h float64, ok bool)
}

// Pages lays out every page of sizes with the plans collected for it.
// Pages without plans are included so the output keeps the page count.
func (s *Sink) Pages(sizes PageSizer) ([]Page, error) {
	pages := make([]Page, 0, sizes.PageCount())
	for n := 1; n <= sizes.PageCount(); n++ {
		w, h, ok := sizes.PageSize(n)
		if !ok {
			return nil, fmt.Errorf("size of page %d unknown", n)
		}
		pages = append(pages, Page{Number: n, Width: w, Height: h, Plans: s.Plans(n)})
	}
	return pages, nil
}

// PageNumbers returns the pages holding at least one plan.
func (s *Sink) PageNumbers() []int {
	var out []int
	for n, m := range s.plans {
		if len(m) > 0 {
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out
}

// Page is one output page: its size in source units and what to draw on it.
type Page struct {
	Number int
	Width  float64
	Height float64

	// MediaWidth and MediaHeight are the PDF page size in points. Zero means
	// one source unit per point.
	MediaWidth  float64
	MediaHeight float64

	Plans []*paint.Plan

	// Text, when set and Config.TextLayer is on, is drawn as invisible text.
	Text *hocr.Page
}

func (p Page) media() (float64, float64) {
	w, h := p.MediaWidth, p.MediaHeight
	if w <= 0 || h <= 0 {
		return p.Width, p.Height
	}
	return w, h
}

// transform maps source units to PDF points.
func (p Page) transform(x, y float64) (float64, float64) {
	w, h := p.media()
	return normalizeCoords(x, y, p.Width, p.Height, w, h)
}
