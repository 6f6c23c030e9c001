package coordmap

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"
)

// ErrGeometryUnavailable is returned when a page has no glyph geometry yet.
// Callers are expected to retry once the page has been rendered.
var ErrGeometryUnavailable = errors.New("glyph geometry unavailable")

// MinSyntheticWidth is the narrowest box given to synthetic glyphs and to
// degenerate source boxes, in page units.
const MinSyntheticWidth = 0.01

// syntheticWidthRatio sizes a synthetic glyph relative to the glyph before it.
const syntheticWidthRatio = 0.25

// Break describes the synthetic glyph that follows a run.
type Break int

const (
	BreakNone  Break = iota // Run is followed directly by the next run
	BreakSpace              // Run ends a word; a space is injected
	BreakLine               // Run ends a line; a newline is injected
)

// String returns the name of the break kind.
func (b Break) String() string {
	switch b {
	case BreakNone:
		return "none"
	case BreakSpace:
		return "space"
	case BreakLine:
		return "line"
	default:
		return fmt.Sprintf("Break(%d)", int(b))
	}
}

// GlyphRun is a piece of page text that shares one measured bounding box,
// typically a word.
type GlyphRun struct {
	Text     string  // Characters of the run
	Box      Rect    // Measured box covering all characters
	FontSize float64 // Font size; zero means "use the box height"
	Break    Break   // Synthetic glyph to inject after the run
}

// GeometrySource supplies glyph runs per page in reading order.
type GeometrySource interface {
	// PageCount returns the number of pages the source knows about.
	PageCount() int

	// PageRuns returns the runs covering the full text of a page.
	// It returns ErrGeometryUnavailable when the page has no geometry.
	PageRuns(ctx context.Context, page int) ([]GlyphRun, error)
}

// BuildFrom fetches the runs of a page from src and builds its map.
func BuildFrom(ctx context.Context, src GeometrySource, page, base int) (*CoordinateMap, error) {
	runs, err := src.PageRuns(ctx, page)
	if err != nil {
		if errors.Is(err, ErrGeometryUnavailable) {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		return nil, fmt.Errorf("failed to read runs for page %d: %w", page, err)
	}
	return Build(page, base, runs)
}

// Build creates the coordinate map of a page from its glyph runs.
// base is the global offset of the page's first character, i.e. the total
// text length of all prior pages.
func Build(page, base int, runs []GlyphRun) (*CoordinateMap, error) {
	if page < 1 {
		return nil, fmt.Errorf("page number must be at least 1, got %d", page)
	}

	b := &builder{page: page, base: base, lineStart: base, wordStart: base}
	for _, run := range runs {
		b.addRun(run)
	}

	if len(b.entries) == 0 {
		return nil, fmt.Errorf("page %d: %w", page, ErrGeometryUnavailable)
	}

	return b.finish(), nil
}

// builder accumulates entries and derives line and word spans in one pass.
type builder struct {
	page    int
	base    int
	entries []CharacterEntry
	text    strings.Builder

	lines     []Span
	lineBoxes []Rect
	lineStart int
	lineBox   Rect

	words     []Span
	wordStart int
	afterWS   bool // current word already has trailing whitespace
}

func (b *builder) addRun(run GlyphRun) {
	glyphs := []rune(run.Text)
	box := checkRect(run.Box)
	fontSize := run.FontSize
	if fontSize <= 0 {
		fontSize = box.Height()
	}

	if len(glyphs) > 0 {
		w := box.Width() / float64(len(glyphs))
		for i, r := range glyphs {
			child := Rect{
				X0: box.X0 + w*float64(i),
				Y0: box.Y0,
				X1: box.X0 + w*float64(i+1),
				Y1: box.Y1,
			}
			// Keep the last child flush with the run's edge despite rounding.
			if i == len(glyphs)-1 {
				child.X1 = box.X1
			}
			b.add(r, child, fontSize, false)
		}
	}

	switch run.Break {
	case BreakSpace:
		if last, ok := b.lastGlyph(); ok && unicode.IsSpace(last) {
			return
		}
		b.addSynthetic(' ', box, fontSize)
	case BreakLine:
		if last, ok := b.lastGlyph(); ok && last == '\n' {
			return
		}
		b.addSynthetic('\n', box, fontSize)
	}
}

func (b *builder) lastGlyph() (rune, bool) {
	if len(b.entries) == 0 {
		return 0, false
	}
	return b.entries[len(b.entries)-1].Glyph, true
}

// addSynthetic appends a thin glyph to the right edge of the preceding
// glyph. runBox anchors it when the page has no glyph yet.
func (b *builder) addSynthetic(r rune, runBox Rect, fontSize float64) {
	anchor := Rect{X0: runBox.X0, Y0: runBox.Y0, X1: runBox.X0, Y1: runBox.Y1}
	if n := len(b.entries); n > 0 {
		anchor = b.entries[n-1].Box
		fontSize = b.entries[n-1].FontSize
	}

	w := math.Max(anchor.Width()*syntheticWidthRatio, MinSyntheticWidth)
	box := Rect{X0: anchor.X1, Y0: anchor.Y0, X1: anchor.X1 + w, Y1: anchor.Y1}
	b.add(r, box, fontSize, true)
}

func (b *builder) add(r rune, box Rect, fontSize float64, synthetic bool) {
	offset := b.base + len(b.entries)
	space := unicode.IsSpace(r)

	// A non-space glyph after whitespace starts a new word.
	if !space && b.afterWS {
		b.closeWord(offset)
	}

	if offset == b.lineStart {
		b.lineBox = box
	} else {
		b.lineBox = b.lineBox.Union(box)
	}

	b.entries = append(b.entries, CharacterEntry{
		Offset:    offset,
		Page:      b.page,
		Box:       box,
		Glyph:     r,
		FontSize:  fontSize,
		Synthetic: synthetic,
		Line:      len(b.lines),
		Word:      len(b.words),
	})
	b.text.WriteRune(r)

	if space {
		b.afterWS = true
	}
	if r == '\n' {
		b.closeWord(offset + 1)
		b.closeLine(offset + 1)
	}
}

func (b *builder) closeWord(end int) {
	if end > b.wordStart {
		b.words = append(b.words, Span{Start: b.wordStart, End: end})
		b.wordStart = end
	}
	b.afterWS = false
}

func (b *builder) closeLine(end int) {
	if end > b.lineStart {
		b.lines = append(b.lines, Span{Start: b.lineStart, End: end})
		b.lineBoxes = append(b.lineBoxes, b.lineBox)
		b.lineStart = end
	}
}

func (b *builder) finish() *CoordinateMap {
	end := b.base + len(b.entries)
	b.closeWord(end)
	b.closeLine(end)

	return &CoordinateMap{
		page:      b.page,
		base:      b.base,
		entries:   b.entries,
		lines:     b.lines,
		lineBoxes: b.lineBoxes,
		words:     b.words,
		text:      b.text.String(),
	}
}
