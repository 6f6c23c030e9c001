// Package paint turns resolved highlight geometry into renderer-agnostic
// paint plans for the page view and the text view, and computes the damage
// a view must repaint when a plan is taken away.
package paint

import (
	"github.com/gardar/ocrlens/pkg/resolve"
)

// Item is one filled rectangle of a page plan.
type Item struct {
	Rect    resolve.Box
	Fill    Color
	Opacity float64
}

// Plan is the page view paint plan of one highlight: one item per visual
// line, in the order the boxes were resolved.
type Plan struct {
	Page  int
	Style Style
	Items []Item
}

// Boxes returns the rectangles of the plan.
func (p *Plan) Boxes() []resolve.Box {
	if p == nil {
		return nil
	}
	boxes := make([]resolve.Box, len(p.Items))
	for i, it := range p.Items {
		boxes[i] = it.Rect
	}
	return boxes
}

// TextPlan is the text view paint plan of one highlight: a character range
// with the same fill as the page plan.
type TextPlan struct {
	Start   int
	End     int
	Style   Style
	Fill    Color
	Opacity float64
}

// Damage lists the page regions that were covered by an erased plan.
type Damage struct {
	Page  int
	Rects []resolve.Box
}

// Empty reports whether nothing needs repainting.
func (d Damage) Empty() bool { return len(d.Rects) == 0 }

// Bounds returns the union of all damaged rects.
func (d Damage) Bounds() (resolve.Box, bool) {
	if len(d.Rects) == 0 {
		return resolve.Box{}, false
	}
	r := d.Rects[0].Rect()
	for _, b := range d.Rects[1:] {
		r = r.Union(b.Rect())
	}
	return resolve.BoxFromRect(r), true
}

// TextDamage is the character range covered by an erased text plan.
type TextDamage struct {
	Start int
	End   int
}

// Empty reports whether nothing needs repainting.
func (d TextDamage) Empty() bool { return d.Start >= d.End }

// Renderer builds and erases paint plans. Its only state is a count of the
// plans it has handed out and not yet erased.
type Renderer struct {
	live int
}

// NewRenderer creates a renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Plan builds the page plan for boxes. It returns nil when there is nothing
// to paint.
func (r *Renderer) Plan(page int, boxes []resolve.Box, style Style) *Plan {
	if len(boxes) == 0 {
		return nil
	}
	fill := style.Fill()
	items := make([]Item, 0, len(boxes))
	for _, b := range boxes {
		if b.Width <= 0 || b.Height <= 0 {
			continue
		}
		items = append(items, Item{Rect: b, Fill: fill.Color, Opacity: fill.Opacity})
	}
	if len(items) == 0 {
		return nil
	}
	r.live++
	return &Plan{Page: page, Style: style, Items: items}
}

// TextPlan builds the text plan for [start, end). It returns nil for an
// empty range.
func (r *Renderer) TextPlan(start, end int, style Style) *TextPlan {
	if start >= end {
		return nil
	}
	fill := style.Fill()
	r.live++
	return &TextPlan{Start: start, End: end, Style: style, Fill: fill.Color, Opacity: fill.Opacity}
}

// Erase retires a page plan and returns the region it covered.
func (r *Renderer) Erase(p *Plan) Damage {
	if p == nil {
		return Damage{}
	}
	r.release()
	return Damage{Page: p.Page, Rects: p.Boxes()}
}

// EraseText retires a text plan and returns the range it covered.
func (r *Renderer) EraseText(p *TextPlan) TextDamage {
	if p == nil {
		return TextDamage{}
	}
	r.release()
	return TextDamage{Start: p.Start, End: p.End}
}

// Live returns the number of plans built and not yet erased.
func (r *Renderer) Live() int { return r.live }

func (r *Renderer) release() {
	if r.live > 0 {
		r.live--
	}
}
