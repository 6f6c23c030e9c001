package pdfpaint

import (
	"bytes"
	"fmt"
	"io"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"
)

// modifyExistingPDF imports the pages of an existing PDF and draws each
// page's layers over the imported template.
func modifyExistingPDF(input []byte, pages []Page, cfg Config) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "", "")
	importer := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(input))

	for _, page := range pages {
		target := page.Number + cfg.StartPage - 1
		w, h := page.media()
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})

		tpl := importer.ImportPageFromStream(pdf, &rs, target, "/MediaBox")
		importer.UseImportedTemplate(pdf, tpl, 0, 0, w, 0)

		if err := drawLayers(pdf, page, cfg); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}
