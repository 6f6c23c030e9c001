package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/gardar/ocrlens/pkg/coordmap"
	"github.com/gardar/ocrlens/pkg/gdocai"
	"github.com/gardar/ocrlens/pkg/hocr"
	"github.com/gardar/ocrlens/pkg/paint"
	"github.com/gardar/ocrlens/pkg/pdftext"
)

// pageSource is a glyph geometry source that knows its page sizes.
type pageSource interface {
	coordmap.GeometrySource
	PageSize(page int) (w, h float64, ok bool)
}

// geometry is an opened input document with its coordinate maps built.
type geometry struct {
	source pageSource
	doc    *coordmap.Document

	hocr  *hocr.Document         // set for hOCR and Document AI input
	docai *documentaipb.Document // set for Document AI input
}

var sourceFlags = []cli.Flag{
	&cli.StringFlag{Name: "hocr", Usage: "read glyph geometry from an hOCR file"},
	&cli.StringFlag{Name: "pdf-text", Usage: "read glyph geometry from the text layer of a PDF"},
	&cli.StringFlag{Name: "docai", Usage: "read glyph geometry from a saved Document AI JSON response"},
}

// openGeometry opens the single geometry input named on the command line
// and builds every page it can.
func openGeometry(ctx context.Context, cmd *cli.Command, cfg fileConfig) (*geometry, error) {
	var (
		g   = &geometry{}
		set []string
	)
	for _, name := range []string{"hocr", "pdf-text", "docai"} {
		if cmd.String(name) != "" {
			set = append(set, "--"+name)
		}
	}
	if len(set) != 1 {
		return nil, errors.New("exactly one of --hocr, --pdf-text or --docai is required")
	}

	switch {
	case cmd.String("hocr") != "":
		src, err := hocr.Open(cmd.String("hocr"))
		if err != nil {
			return nil, err
		}
		g.source, g.hocr = src, src.Document()
	case cmd.String("pdf-text") != "":
		src, err := pdftext.Open(cmd.String("pdf-text"), cfg.PDFText)
		if err != nil {
			return nil, err
		}
		g.source = src
	default:
		doc, err := gdocai.ReadFile(cmd.String("docai"))
		if err != nil {
			return nil, err
		}
		src := gdocai.NewSource(doc)
		g.source, g.hocr, g.docai = src, src.Document(), doc
	}

	g.doc = coordmap.NewDocument(g.source)
	unavailable, err := g.doc.BuildAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build coordinate maps: %w", err)
	}
	if len(unavailable) > 0 {
		log.Warn().Ints("pages", unavailable).Msg("pages without glyph geometry")
	}
	return g, nil
}

// rangeSpec is one --range value: start:end[@style].
type rangeSpec struct {
	Start int
	End   int
	Style paint.Style
}

func parseRange(s string, def paint.Style) (rangeSpec, error) {
	r := rangeSpec{Style: def}
	body, style, hasStyle := strings.Cut(s, "@")
	if hasStyle {
		st, err := paint.ParseStyle(style)
		if err != nil {
			return r, err
		}
		r.Style = st
	}
	a, b, ok := strings.Cut(body, ":")
	if !ok {
		return r, fmt.Errorf("range %q: want start:end", s)
	}
	var err error
	if r.Start, err = strconv.Atoi(strings.TrimSpace(a)); err != nil {
		return r, fmt.Errorf("range %q: bad start: %w", s, err)
	}
	if r.End, err = strconv.Atoi(strings.TrimSpace(b)); err != nil {
		return r, fmt.Errorf("range %q: bad end: %w", s, err)
	}
	return r, nil
}

func parseRanges(values []string, def paint.Style) ([]rangeSpec, error) {
	out := make([]rangeSpec, 0, len(values))
	for _, v := range values {
		r, err := parseRange(v, def)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// pageFor returns the page of a range: explicit when page > 0, otherwise the
// page holding its first character.
func (g *geometry) pageFor(r rangeSpec, page int) (int, error) {
	if page > 0 {
		return page, nil
	}
	start := min(r.Start, r.End)
	if p, ok := g.doc.PageOf(start); ok {
		return p, nil
	}
	return 0, fmt.Errorf("offset %d is not on any page, pass --page", start)
}
