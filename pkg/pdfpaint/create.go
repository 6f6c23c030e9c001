package pdfpaint

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"codeberg.org/go-pdf/fpdf"
)

// createPDFFromImages builds a new PDF with one page image per page and the
// page's layers on top. Inputs are validated by the caller.
func createPDFFromImages(pages []Page, images [][]byte, cfg Config) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "A4", "")
	log := cfg.logger()

	for i, page := range pages {
		w, h := page.media()
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})

		imageType, err := detectImageType(images[i])
		if err != nil {
			return nil, fmt.Errorf("failed to detect image type for page %d: %w", page.Number, err)
		}
		name := fmt.Sprintf("img%d", i)
		opts := fpdf.ImageOptions{ReadDpi: false, ImageType: imageType}
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(images[i]))
		pdf.ImageOptions(name, 0, 0, w, h, false, opts, 0, "")

		if err := drawLayers(pdf, page, cfg); err != nil {
			return nil, err
		}
		log.Debug().Int("page", page.Number).Str("image", imageType).Msg("page assembled")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// drawLayers draws the optional text layer and then the highlight layer.
func drawLayers(pdf *fpdf.Fpdf, page Page, cfg Config) error {
	if cfg.TextLayer {
		if err := drawTextLayer(pdf, page, cfg); err != nil {
			return fmt.Errorf("failed to draw text layer for page %d: %w", page.Number, err)
		}
	}
	n := drawHighlightLayer(pdf, page, cfg)
	log := cfg.logger()
	log.Debug().Int("page", page.Number).Int("rects", n).Msg("highlights drawn")
	return nil
}

// detectImageType tries to figure out whether the data is PNG, JPEG, etc.
func detectImageType(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode image config: %w", err)
	}
	return strings.ToUpper(format), nil
}
