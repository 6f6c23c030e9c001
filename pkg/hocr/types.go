package hocr

import (
	"strings"

	"github.com/gardar/ocrlens/pkg/coordmap"
)

// Document is a parsed hOCR file.
type Document struct {
	Title    string            // Document title
	Language string            // Document language
	Metadata map[string]string // ocr-system, ocr-capabilities and friends
	Pages    []Page
}

// Page is one page of recognized text.
// Corresponds to hOCR element with class: 'ocr_page'
type Page struct {
	ID        string
	Number    int           // ppageno, when present
	ImageName string        // Source image filename
	BBox      coordmap.Rect // Page extent in image pixels
	Lines     []Line        // Lines in reading order
}

// Line is a line of text.
// Corresponds to hOCR element with class: 'ocr_line'
type Line struct {
	ID       string
	BBox     coordmap.Rect
	Baseline string  // Raw baseline property
	Size     float64 // x_size: line height in pixels
	Words    []Word
}

// Word is a recognized word with its bounding box.
// Corresponds to hOCR element with class: 'ocrx_word'
type Word struct {
	ID         string
	Text       string
	BBox       coordmap.Rect
	Confidence float64 // x_wconf, 0-100
	FontSize   float64 // x_fsize, in points
	Lang       string
}

// Text returns the page text the way its coordinate map spells it: words
// separated by single spaces and lines by newlines.
func (p Page) Text() string {
	var b strings.Builder
	for i, line := range p.textLines() {
		if i > 0 {
			b.WriteByte('\n')
		}
		for j, w := range line.Words {
			if j > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(w.Text)
		}
	}
	return b.String()
}

// Text returns the text of all pages separated by blank lines.
func (d *Document) Text() string {
	pages := make([]string, len(d.Pages))
	for i, p := range d.Pages {
		pages[i] = p.Text()
	}
	return strings.Join(pages, "\n\n")
}

// textLines returns the lines of p that carry text, with empty words dropped.
func (p Page) textLines() []Line {
	var out []Line
	for _, line := range p.Lines {
		var words []Word
		for _, w := range line.Words {
			if w.Text != "" {
				words = append(words, w)
			}
		}
		if len(words) > 0 {
			line.Words = words
			out = append(out, line)
		}
	}
	return out
}
