// Package pdftext serves the text layer of born-digital PDFs as glyph
// geometry.
//
// Glyphs are read with ledongthuc/pdf, grouped into rows by baseline and
// into words by horizontal gap, and converted to top-left page coordinates
// in points so they line up with OCR geometry and with pdfpaint output.
package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/gardar/ocrlens/pkg/coordmap"
)

// Options tune how glyphs are grouped.
type Options struct {
	// RowTolerance is the largest baseline difference, as a fraction of the
	// font size, between glyphs of one row.
	RowTolerance float64 `yaml:"row_tolerance"`

	// WordGap is the smallest horizontal gap, as a fraction of the font
	// size, that splits a row into words.
	WordGap float64 `yaml:"word_gap"`

	// AscentRatio places the top of a glyph box above its baseline.
	AscentRatio float64 `yaml:"ascent_ratio"`
}

// DefaultOptions returns the grouping used by NewSource.
func DefaultOptions() Options {
	return Options{RowTolerance: 0.5, WordGap: 0.2, AscentRatio: 0.718}
}

// Source reads glyph geometry from a PDF.
type Source struct {
	r    *pdf.Reader
	opts Options
}

// NewSource opens a PDF held in r.
func NewSource(r io.ReaderAt, size int64, opts Options) (*Source, error) {
	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	d := DefaultOptions()
	if opts.RowTolerance <= 0 {
		opts.RowTolerance = d.RowTolerance
	}
	if opts.WordGap <= 0 {
		opts.WordGap = d.WordGap
	}
	if opts.AscentRatio <= 0 {
		opts.AscentRatio = d.AscentRatio
	}
	return &Source{r: reader, opts: opts}, nil
}

// Open reads the PDF at path into memory.
func Open(path string, opts Options) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return NewSource(bytes.NewReader(data), int64(len(data)), opts)
}

// PageCount returns the number of pages in the PDF.
func (s *Source) PageCount() int { return s.r.NumPage() }

// PageSize returns the media box size of a page in points.
func (s *Source) PageSize(page int) (float64, float64, bool) {
	if page < 1 || page > s.PageCount() {
		return 0, 0, false
	}
	p := s.r.Page(page)
	if p.V.IsNull() {
		return 0, 0, false
	}
	box := inherited(p.V, "MediaBox")
	if box.Len() < 4 {
		return 0, 0, false
	}
	w := box.Index(2).Float64() - box.Index(0).Float64()
	h := box.Index(3).Float64() - box.Index(1).Float64()
	return math.Abs(w), math.Abs(h), w != 0 && h != 0
}

// inherited looks key up on v and its parents.
func inherited(v pdf.Value, key string) pdf.Value {
	for ; !v.IsNull(); v = v.Key("Parent") {
		if r := v.Key(key); !r.IsNull() {
			return r
		}
	}
	return pdf.Value{}
}

// PageRuns implements coordmap.GeometrySource. Pages with no extractable
// text report coordmap.ErrGeometryUnavailable so an OCR source can take
// over.
func (s *Source) PageRuns(ctx context.Context, page int) ([]coordmap.GlyphRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if page < 1 || page > s.PageCount() {
		return nil, fmt.Errorf("page %d out of range 1..%d", page, s.PageCount())
	}
	_, h, ok := s.PageSize(page)
	if !ok {
		return nil, fmt.Errorf("page %d has no media box", page)
	}

	texts, err := pageTexts(s.r.Page(page))
	if err != nil {
		return nil, fmt.Errorf("failed to read content of page %d: %w", page, err)
	}
	runs := groupRuns(texts, h, s.opts)
	if len(runs) == 0 {
		return nil, coordmap.ErrGeometryUnavailable
	}
	return runs, nil
}

// pageTexts returns the glyphs of a page. The content parser panics on
// malformed streams.
func pageTexts(p pdf.Page) (texts []pdf.Text, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed content stream: %v", r)
		}
	}()
	return p.Content().Text, nil
}

type row struct {
	baseline float64
	size     float64
	texts    []pdf.Text
}

// groupRuns turns the glyphs of a page into word runs in reading order:
// rows top to bottom, glyphs left to right.
func groupRuns(texts []pdf.Text, pageHeight float64, opts Options) []coordmap.GlyphRun {
	var rows []*row
	for _, t := range texts {
		if t.S == "" {
			continue
		}
		size := math.Max(t.FontSize, 1)
		var target *row
		for _, r := range rows {
			if math.Abs(r.baseline-t.Y) <= opts.RowTolerance*math.Min(size, r.size) {
				target = r
				break
			}
		}
		if target == nil {
			target = &row{baseline: t.Y, size: size}
			rows = append(rows, target)
		}
		target.texts = append(target.texts, t)
	}

	// PDF y grows upwards.
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].baseline > rows[j].baseline })

	var runs []coordmap.GlyphRun
	for _, r := range rows {
		sort.SliceStable(r.texts, func(i, j int) bool { return r.texts[i].X < r.texts[j].X })
		words := splitWords(r.texts, opts)
		if len(words) == 0 {
			continue
		}
		if len(runs) > 0 {
			runs[len(runs)-1].Break = coordmap.BreakLine
		}
		for i, w := range words {
			run := w.run(pageHeight, opts.AscentRatio)
			if i < len(words)-1 {
				run.Break = coordmap.BreakSpace
			}
			runs = append(runs, run)
		}
	}
	return runs
}

type word struct {
	text     strings.Builder
	x0, x1   float64
	baseline float64
	size     float64
}

func (w *word) run(pageHeight, ascent float64) coordmap.GlyphRun {
	top := pageHeight - w.baseline - w.size*ascent
	return coordmap.GlyphRun{
		Text:     w.text.String(),
		Box:      coordmap.NewRect(w.x0, top, w.x1, top+w.size),
		FontSize: w.size,
	}
}

// splitWords merges the glyphs of a row into words. Whitespace glyphs and
// gaps wider than the word gap end a word.
func splitWords(texts []pdf.Text, opts Options) []*word {
	var words []*word
	var cur *word
	for _, t := range texts {
		if strings.TrimFunc(t.S, unicode.IsSpace) == "" {
			cur = nil
			continue
		}
		size := math.Max(t.FontSize, 1)
		if cur != nil && t.X-cur.x1 > opts.WordGap*size {
			cur = nil
		}
		if cur == nil {
			cur = &word{x0: t.X, x1: t.X, baseline: t.Y, size: size}
			words = append(words, cur)
		}
		cur.text.WriteString(strings.TrimFunc(t.S, unicode.IsSpace))
		w := t.W
		if w <= 0 {
			// Fonts without width tables report zero advance.
			w = 0.5 * size * float64(utf8.RuneCountInString(t.S))
		}
		cur.x1 = math.Max(cur.x1, t.X+w)
		cur.size = math.Max(cur.size, size)
	}
	return words
}
