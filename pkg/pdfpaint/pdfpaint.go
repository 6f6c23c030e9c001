// Package pdfpaint writes highlight paint plans into PDF documents.
//
// Each page's plans are drawn as translucent filled rectangles on an optional
// content layer named "<LayerName> (Page N)", so readers can toggle the
// highlights on and off. Plans can be painted over an existing PDF (Apply) or
// over page images assembled into a new PDF (Assemble). An invisible text
// layer built from hOCR pages can be added to keep the output searchable.
//
// Plans are collected from a highlight tracker through a Sink and are given
// in source units (image pixels for OCR sources, points for PDF text); each
// Page maps them onto its PDF media size.
package pdfpaint

import (
	"errors"
	"fmt"
)

// Assemble creates a PDF from page images with the pages' layers on top.
func Assemble(pages []Page, images [][]byte, cfg Config) ([]byte, error) {
	cfg = cfg.withDefaults()
	if err := validatePages(pages); err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, errors.New("no image data provided")
	}
	if len(images) < len(pages) {
		return nil, fmt.Errorf("not enough images (%d) for pages (%d)", len(images), len(pages))
	}
	for i, img := range images[:len(pages)] {
		if len(img) == 0 {
			return nil, fmt.Errorf("image %d is empty", i+1)
		}
		if _, err := detectImageType(img); err != nil {
			return nil, fmt.Errorf("image %d has invalid format: %w", i+1, err)
		}
	}

	out, err := createPDFFromImages(pages, images, cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating PDF from images: %w", err)
	}
	return out, nil
}

// Apply paints the pages' layers over an existing PDF. It refuses to paint a
// PDF that already carries a highlight layer of the same name unless
// cfg.Force is set.
func Apply(input []byte, pages []Page, cfg Config) ([]byte, error) {
	cfg = cfg.withDefaults()
	log := cfg.logger()

	if len(input) == 0 {
		return nil, errors.New("input PDF data is empty")
	}
	if err := validatePages(pages); err != nil {
		return nil, err
	}
	if cfg.StartPage < 1 {
		return nil, fmt.Errorf("start page must be at least 1, got %d", cfg.StartPage)
	}
	if cfg.DumpPDF {
		dumpPDFStructure(input, 2000, log)
	}

	layers, err := CheckLayers(input, cfg.LayerName)
	if err != nil {
		return nil, fmt.Errorf("layer detection failed: %w", err)
	}
	if len(layers.Layers) > 0 {
		log.Info().Strs("layers", layers.Layers).Msg("existing layers detected in PDF")
	}
	for _, w := range layers.Warnings {
		log.Warn().Msg(w)
	}
	if layers.HasLayer {
		if !cfg.Force {
			return nil, fmt.Errorf("file already has highlights (layer '%s'), use --force to repaint", layers.LayerName)
		}
		log.Warn().Str("layer", layers.LayerName).Msg("file already has highlights; repainting adds a second layer")
	}

	out, err := modifyExistingPDF(input, pages, cfg)
	if err != nil {
		return nil, fmt.Errorf("error modifying existing PDF: %w", err)
	}
	return out, nil
}

func validatePages(pages []Page) error {
	if len(pages) == 0 {
		return errors.New("no pages to paint")
	}
	for _, p := range pages {
		if p.Number < 1 {
			return fmt.Errorf("invalid page number %d", p.Number)
		}
		if w, h := p.media(); w <= 0 || h <= 0 {
			return fmt.Errorf("page %d has no size", p.Number)
		}
	}
	return nil
}
