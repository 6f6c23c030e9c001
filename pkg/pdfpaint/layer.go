package pdfpaint

import (
	"fmt"

	"codeberg.org/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"

	"github.com/gardar/ocrlens/pkg/hocr"
)

// drawHighlightLayer fills every plan item of the page on its own optional
// content layer and returns the number of rects drawn. Pages without plans
// get no layer.
func drawHighlightLayer(pdf *fpdf.Fpdf, page Page, cfg Config) int {
	if len(page.Plans) == 0 {
		return 0
	}

	layer := pdf.AddLayer(layerTitle(cfg.LayerName, page.Number), true)
	pdf.BeginLayer(layer)

	drawn := 0
	for _, plan := range page.Plans {
		for _, it := range plan.Items {
			x0, y0 := page.transform(it.Rect.X, it.Rect.Y)
			x1, y1 := page.transform(it.Rect.X+it.Rect.Width, it.Rect.Y+it.Rect.Height)
			if x1 <= x0 || y1 <= y0 {
				continue
			}

			pdf.SetFillColor(int(it.Fill.R), int(it.Fill.G), int(it.Fill.B))
			pdf.SetAlpha(it.Opacity, cfg.BlendMode)
			pdf.Rect(x0, y0, x1-x0, y1-y0, "F")

			if cfg.Debug {
				pdf.SetAlpha(1, "Normal")
				pdf.SetDrawColor(255, 0, 0)
				pdf.Rect(x0, y0, x1-x0, y1-y0, "D")
			}
			drawn++
		}
	}

	pdf.SetAlpha(1, "Normal")
	pdf.EndLayer()
	return drawn
}

// drawTextLayer draws the OCR words of the page as invisible text so the
// output stays searchable and selectable.
func drawTextLayer(pdf *fpdf.Fpdf, page Page, cfg Config) error {
	if page.Text == nil {
		return nil
	}

	layer := pdf.AddLayer(layerTitle(cfg.LayerName+" Text", page.Number), true)
	pdf.BeginLayer(layer)
	pdf.SetFont(cfg.Font.Name, cfg.Font.Style, cfg.Font.Size)
	if cfg.Debug {
		pdf.SetTextColor(255, 0, 0)
	} else {
		pdf.SetAlpha(0.0, "Normal")
	}

	encodingErrors := 0
	wordCount := 0
	for _, line := range page.Text.Lines {
		for _, word := range line.Words {
			if word.Text == "" || !word.BBox.Valid() {
				continue
			}
			if !drawWord(pdf, page, word, cfg.Font) {
				encodingErrors++
			}
			wordCount++
		}
	}

	pdf.SetAlpha(1, "Normal")
	pdf.EndLayer()

	if wordCount > 0 && encodingErrors > wordCount/10 {
		return fmt.Errorf("character encoding issues in %d of %d words", encodingErrors, wordCount)
	}
	return nil
}

// drawWord stretches one word over its box and reports whether it encoded
// cleanly to Latin-1.
func drawWord(pdf *fpdf.Fpdf, page Page, word hocr.Word, font FontConfig) bool {
	x, y := page.transform(word.BBox.X0, word.BBox.Y0)
	x2, _ := page.transform(word.BBox.X1, word.BBox.Y0)
	wordWidth := x2 - x

	ok := true
	latin1, err := charmap.ISO8859_1.NewEncoder().String(word.Text)
	if err != nil {
		ok = false
		latin1 = word.Text
	}

	if strWidth := pdf.GetStringWidth(latin1); strWidth > 0 {
		pdf.SetFontSize(font.Size * wordWidth / strWidth)
	}
	fontSize, _ := pdf.GetFontSize()
	pdf.Text(x, y+fontSize*font.AscentRatio, latin1)
	pdf.SetFontSize(font.Size)
	return ok
}
