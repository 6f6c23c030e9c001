// Package textview is a terminal text view for highlight trackers. A Buffer
// holds the document text, the text plans applied to it and the caret, and
// renders them with lipgloss.
package textview

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/gardar/ocrlens/pkg/paint"
)

// Buffer implements the tracker's text view.
type Buffer struct {
	text   []rune
	plans  map[string]*paint.TextPlan
	order  []string
	cursor int
}

// New returns a buffer over text with the caret at offset 0.
func New(text string) *Buffer {
	return &Buffer{
		text:  []rune(text),
		plans: make(map[string]*paint.TextPlan),
	}
}

// Text returns the buffer text.
func (b *Buffer) Text() string { return string(b.text) }

// Len returns the text length in characters.
func (b *Buffer) Len() int { return len(b.text) }

// Apply stores plan under id, on top of earlier plans.
func (b *Buffer) Apply(id string, plan *paint.TextPlan) {
	if plan == nil {
		return
	}
	b.Remove(id, nil)
	b.plans[id] = plan
	b.order = append(b.order, id)
}

// Remove drops the plan stored under id.
func (b *Buffer) Remove(id string, _ *paint.TextPlan) {
	if _, ok := b.plans[id]; !ok {
		return
	}
	delete(b.plans, id)
	for i, v := range b.order {
		if v == id {
			b.order = append(b.order[:i:i], b.order[i+1:]...)
			break
		}
	}
}

// SetCursor moves the caret, clamped to the text.
func (b *Buffer) SetCursor(offset int) {
	b.cursor = min(max(offset, 0), len(b.text))
}

// Cursor returns the caret offset.
func (b *Buffer) Cursor() int { return b.cursor }

// Plans returns the applied plans bottom to top.
func (b *Buffer) Plans() []*paint.TextPlan {
	out := make([]*paint.TextPlan, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.plans[id])
	}
	return out
}

// PlanAt returns the topmost plan covering offset.
func (b *Buffer) PlanAt(offset int) (*paint.TextPlan, bool) {
	for i := len(b.order) - 1; i >= 0; i-- {
		p := b.plans[b.order[i]]
		if offset >= p.Start && offset < p.End {
			return p, true
		}
	}
	return nil, false
}

// Segment is a stretch of text drawn with one fill.
type Segment struct {
	Text   string
	Plan   *paint.TextPlan // nil when unhighlighted
	Cursor bool
}

// Segments splits the text at plan, caret and line boundaries.
// Newlines are always their own segment. A caret at a newline or at the end
// of the text is a segment holding a single space.
func (b *Buffer) Segments() []Segment {
	cuts := map[int]bool{0: true, len(b.text): true, b.cursor: true, b.cursor + 1: true}
	for _, p := range b.plans {
		cuts[p.Start] = true
		cuts[p.End] = true
	}
	for i, r := range b.text {
		if r == '\n' {
			cuts[i] = true
			cuts[i+1] = true
		}
	}
	points := make([]int, 0, len(cuts))
	for c := range cuts {
		if c >= 0 && c <= len(b.text) {
			points = append(points, c)
		}
	}
	sort.Ints(points)

	var segs []Segment
	for i := 0; i+1 < len(points); i++ {
		start, end := points[i], points[i+1]
		text := string(b.text[start:end])
		if start == b.cursor && text == "\n" {
			segs = append(segs, Segment{Text: " ", Cursor: true})
			segs = append(segs, Segment{Text: text})
			continue
		}
		seg := Segment{Text: text, Cursor: start == b.cursor}
		if text != "\n" {
			seg.Plan, _ = b.PlanAt(start)
		}
		segs = append(segs, seg)
	}
	if b.cursor == len(b.text) {
		segs = append(segs, Segment{Text: " ", Cursor: true})
	}
	return segs
}

// Render draws the buffer with the default lipgloss renderer.
func (b *Buffer) Render() string {
	return b.RenderWith(lipgloss.DefaultRenderer())
}

// RenderWith draws the buffer with r. Highlights get their fill as the
// background and the caret is drawn in reverse video.
func (b *Buffer) RenderWith(r *lipgloss.Renderer) string {
	var sb strings.Builder
	for _, seg := range b.Segments() {
		if seg.Text == "\n" {
			sb.WriteString(seg.Text)
			continue
		}
		style := r.NewStyle()
		if seg.Plan != nil {
			style = style.Background(lipgloss.Color(seg.Plan.Fill.Hex()))
		}
		if seg.Cursor {
			style = style.Reverse(true)
		}
		sb.WriteString(style.Render(seg.Text))
	}
	return sb.String()
}
