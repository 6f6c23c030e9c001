package hocr

import (
	"context"
	"fmt"
	"os"

	"github.com/gardar/ocrlens/pkg/coordmap"
)

// Source serves the words of a Document as glyph runs, one run per word.
// Coordinates are hOCR image pixels with the origin at the top left.
type Source struct {
	doc *Document
}

// NewSource creates a geometry source over doc.
func NewSource(doc *Document) *Source {
	return &Source{doc: doc}
}

// Open reads and parses an hOCR file.
func Open(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read hOCR file: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return NewSource(doc), nil
}

// Document returns the parsed document.
func (s *Source) Document() *Document { return s.doc }

// PageCount implements coordmap.GeometrySource.
func (s *Source) PageCount() int { return len(s.doc.Pages) }

// PageSize returns the extent of a page in image pixels.
func (s *Source) PageSize(page int) (float64, float64, bool) {
	if page < 1 || page > len(s.doc.Pages) {
		return 0, 0, false
	}
	b := s.doc.Pages[page-1].BBox
	if !b.Valid() {
		return 0, 0, false
	}
	return b.X1, b.Y1, true
}

// PageRuns implements coordmap.GeometrySource. Words are separated by
// synthetic spaces and lines by synthetic newlines.
func (s *Source) PageRuns(ctx context.Context, page int) ([]coordmap.GlyphRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if page < 1 || page > len(s.doc.Pages) {
		return nil, fmt.Errorf("page %d out of range 1..%d", page, len(s.doc.Pages))
	}
	p := s.doc.Pages[page-1]
	lines := p.textLines()
	if len(lines) == 0 {
		return nil, coordmap.ErrGeometryUnavailable
	}

	var runs []coordmap.GlyphRun
	for i, line := range lines {
		for j, w := range line.Words {
			brk := coordmap.BreakSpace
			if j == len(line.Words)-1 {
				brk = coordmap.BreakNone
				if i < len(lines)-1 {
					brk = coordmap.BreakLine
				}
			}
			box := wordBox(w, line, p)
			runs = append(runs, coordmap.GlyphRun{
				Text:     w.Text,
				Box:      box,
				FontSize: fontSize(w, line, box),
				Break:    brk,
			})
		}
	}
	return runs, nil
}

// wordBox falls back to the line box, then the page box, for words the OCR
// engine reported without geometry.
func wordBox(w Word, line Line, p Page) coordmap.Rect {
	switch {
	case w.BBox.Valid():
		return w.BBox
	case line.BBox.Valid():
		return line.BBox
	default:
		return p.BBox
	}
}

func fontSize(w Word, line Line, box coordmap.Rect) float64 {
	switch {
	case w.FontSize > 0:
		return w.FontSize
	case line.Size > 0:
		return line.Size
	default:
		return box.Height()
	}
}
