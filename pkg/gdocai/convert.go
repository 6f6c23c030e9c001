package gdocai

import (
	"fmt"
	"math"
	"strings"

	"cloud.google.com/go/documentai/apiv1/documentaipb"

	"github.com/gardar/ocrlens/pkg/coordmap"
	"github.com/gardar/ocrlens/pkg/hocr"
)

// NewSource converts doc and serves it as glyph geometry.
func NewSource(doc *documentaipb.Document) *hocr.Source {
	return hocr.NewSource(ToHOCR(doc))
}

// ToHOCR converts a Document AI response to the hOCR model. Lines keep the
// processor's order and tokens are assigned to the line whose text anchor
// contains theirs.
func ToHOCR(doc *documentaipb.Document) *hocr.Document {
	lang := documentLanguage(doc)
	out := &hocr.Document{
		Title:    "Document OCR",
		Language: lang,
		Metadata: map[string]string{
			"ocr-system":          "Document AI OCR",
			"ocr-number-of-pages": fmt.Sprintf("%d", len(doc.GetPages())),
			"ocr-capabilities":    "ocr_page ocr_line ocrx_word",
		},
	}
	if lang != "" {
		out.Metadata["ocr-langs"] = lang
	}

	text := []rune(doc.GetText())
	for i, page := range doc.GetPages() {
		number := int(page.GetPageNumber())
		if number == 0 {
			number = i + 1
		}
		out.Pages = append(out.Pages, convertPage(page, text, number))
	}
	return out
}

func convertPage(page *documentaipb.Document_Page, text []rune, number int) hocr.Page {
	dim := page.GetDimension()
	p := hocr.Page{
		ID:     fmt.Sprintf("page_%d", number),
		Number: number,
	}
	if dim != nil {
		p.BBox = coordmap.NewRect(0, 0, float64(dim.GetWidth()), float64(dim.GetHeight()))
	}

	tokens := page.GetTokens()
	if len(page.GetLines()) == 0 {
		// Without line layout every token goes on one line.
		line := hocr.Line{ID: fmt.Sprintf("line_%d_0", number)}
		for ti, tok := range tokens {
			line.Words = append(line.Words, convertToken(tok, dim, text, number, 0, ti))
		}
		p.Lines = append(p.Lines, withLineBox(line))
		return p
	}

	for li, l := range page.GetLines() {
		line := hocr.Line{ID: fmt.Sprintf("line_%d_%d", number, li)}
		line.BBox, _ = layoutRect(l.GetLayout(), dim)
		for ti, tok := range tokens {
			if !isElementInParent(tok.GetLayout(), l.GetLayout()) {
				continue
			}
			line.Words = append(line.Words, convertToken(tok, dim, text, number, li, ti))
		}
		p.Lines = append(p.Lines, withLineBox(line))
	}
	return p
}

func convertToken(tok *documentaipb.Document_Page_Token, dim *documentaipb.Document_Page_Dimension, text []rune, page, line, idx int) hocr.Word {
	w := hocr.Word{
		ID:         fmt.Sprintf("word_%d_%d_%d", page, line, idx),
		Text:       strings.Join(strings.Fields(textFromLayout(tok.GetLayout(), text)), " "),
		Confidence: float64(tok.GetLayout().GetConfidence()) * 100,
	}
	w.BBox, _ = layoutRect(tok.GetLayout(), dim)
	if langs := tok.GetDetectedLanguages(); len(langs) > 0 {
		w.Lang = langs[0].GetLanguageCode()
	}
	return w
}

// withLineBox fills in a missing line box from its words.
func withLineBox(line hocr.Line) hocr.Line {
	if line.BBox.Valid() {
		return line
	}
	for i, w := range line.Words {
		if i == 0 {
			line.BBox = w.BBox
			continue
		}
		line.BBox = line.BBox.Union(w.BBox)
	}
	return line
}

// layoutRect converts a layout's bounding polygon to page pixels. Normalized
// vertices are scaled by the page dimension; absolute vertices are used as
// they are.
func layoutRect(layout *documentaipb.Document_Page_Layout, dim *documentaipb.Document_Page_Dimension) (coordmap.Rect, bool) {
	poly := layout.GetBoundingPoly()
	if poly == nil {
		return coordmap.Rect{}, false
	}

	var xs, ys []float64
	if nv := poly.GetNormalizedVertices(); len(nv) > 0 && dim != nil {
		for _, v := range nv {
			xs = append(xs, float64(v.GetX())*float64(dim.GetWidth()))
			ys = append(ys, float64(v.GetY())*float64(dim.GetHeight()))
		}
	} else {
		for _, v := range poly.GetVertices() {
			xs = append(xs, float64(v.GetX()))
			ys = append(ys, float64(v.GetY()))
		}
	}
	if len(xs) == 0 {
		return coordmap.Rect{}, false
	}

	r := coordmap.Rect{X0: math.Inf(1), Y0: math.Inf(1), X1: math.Inf(-1), Y1: math.Inf(-1)}
	for i := range xs {
		r.X0, r.X1 = math.Min(r.X0, xs[i]), math.Max(r.X1, xs[i])
		r.Y0, r.Y1 = math.Min(r.Y0, ys[i]), math.Max(r.Y1, ys[i])
	}
	return r, r.Valid()
}

// textFromLayout extracts text from a layout's text anchor segments.
func textFromLayout(layout *documentaipb.Document_Page_Layout, text []rune) string {
	var b strings.Builder
	for _, seg := range layout.GetTextAnchor().GetTextSegments() {
		start := clampIndex(seg.GetStartIndex(), len(text))
		end := clampIndex(seg.GetEndIndex(), len(text))
		if start < end {
			b.WriteString(string(text[start:end]))
		}
	}
	return b.String()
}

func clampIndex(i int64, n int) int {
	if i < 0 {
		return 0
	}
	if i > int64(n) {
		return n
	}
	return int(i)
}

// isElementInParent checks whether an element's text lies inside its parent's.
func isElementInParent(element, parent *documentaipb.Document_Page_Layout) bool {
	es := element.GetTextAnchor().GetTextSegments()
	ps := parent.GetTextAnchor().GetTextSegments()
	if len(es) == 0 || len(ps) == 0 {
		return false
	}
	return es[0].GetStartIndex() >= ps[0].GetStartIndex() && es[0].GetEndIndex() <= ps[0].GetEndIndex()
}

// documentLanguage returns the most common detected language, preferring
// the lexically smaller code on ties.
func documentLanguage(doc *documentaipb.Document) string {
	count := make(map[string]int)
	for _, page := range doc.GetPages() {
		for _, l := range page.GetDetectedLanguages() {
			count[l.GetLanguageCode()]++
		}
		for _, tok := range page.GetTokens() {
			for _, l := range tok.GetDetectedLanguages() {
				count[l.GetLanguageCode()]++
			}
		}
	}

	var best string
	for lang, n := range count {
		if lang == "" {
			continue
		}
		if n > count[best] || (n == count[best] && lang < best) {
			best = lang
		}
	}
	return best
}
