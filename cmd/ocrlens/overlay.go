package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/gardar/ocrlens/pkg/gdocai"
	"github.com/gardar/ocrlens/pkg/paint"
	"github.com/gardar/ocrlens/pkg/pdfpaint"
	"github.com/gardar/ocrlens/pkg/pdftext"
	"github.com/gardar/ocrlens/pkg/textview"
	"github.com/gardar/ocrlens/pkg/tracker"
)

func overlayCmd(cfg *fileConfig) *cli.Command {
	return &cli.Command{
		Name:  "overlay",
		Usage: "Paint highlights into a PDF",
		Description: `Creates a highlight per --range and paints every page's highlights
as a translucent layer named "<layer> (Page N)".

The highlights are painted over an existing PDF (--pdf), over page images
(--images), or, for Document AI input, over the page images stored in the
response. The range at --active is painted active; the rest inactive unless
a style is given with @style.

Examples:
  ocrlens overlay --hocr scan.hocr --pdf scan.pdf --range 10:42 --output out.pdf
  ocrlens overlay --hocr scan.hocr --images ./pages --range 10:42 --range 80:95@error --output out.pdf
  ocrlens overlay --docai scan.json --range 0:25 --text-layer --output out.pdf`,
		Flags: withSourceFlags(
			&cli.StringFlag{Name: "pdf", Usage: "existing PDF to paint over"},
			&cli.StringFlag{Name: "images", Usage: "directory of page images to build a new PDF from"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Required: true, Usage: "output PDF path"},
			&cli.StringSliceFlag{Name: "range", Required: true, Usage: "highlight start:end[@style]"},
			&cli.IntFlag{Name: "active", Usage: "index of the active range, -1 for none"},
			&cli.IntFlag{Name: "page", Usage: "page of the ranges (default: page of each range start)"},
			&cli.IntFlag{Name: "cursor", Value: -1, Usage: "draw a caret at this offset"},
			&cli.BoolFlag{Name: "text-layer", Usage: "add an invisible text layer (hOCR and Document AI input)"},
			&cli.BoolFlag{Name: "force", Usage: "paint even if the PDF already has a highlight layer"},
			&cli.BoolFlag{Name: "debug", Usage: "outline highlight rects"},
			&cli.BoolFlag{Name: "overwrite", Usage: "overwrite the output PDF if it exists"},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			output := cmd.String("output")
			if _, err := os.Stat(output); err == nil && !cmd.Bool("overwrite") {
				return fmt.Errorf("output file %s already exists, use --overwrite", output)
			}
			if cmd.String("pdf") != "" && cmd.String("images") != "" {
				return errors.New("--pdf and --images are mutually exclusive")
			}

			g, err := openGeometry(ctx, cmd, *cfg)
			if err != nil {
				return err
			}
			ranges, err := parseRanges(cmd.StringSlice("range"), paint.StyleInactive)
			if err != nil {
				return err
			}

			sink := pdfpaint.NewSink()
			tcfg := cfg.Tracker
			tcfg.OnStale = func(e tracker.StaleRangeError) {
				log.Warn().Err(e).Msg("highlight dropped")
			}
			t, err := tracker.New(g.doc, sink, textview.New(documentText(g.doc)), nil, tcfg)
			if err != nil {
				return err
			}
			if err := createAll(t, g, ranges, cmd.Int("page"), cmd.Int("active")); err != nil {
				return err
			}
			if c := cmd.Int("cursor"); c >= 0 {
				t.TrackCursor(c)
				t.Flush()
			}

			pages, err := sink.Pages(g.source)
			if err != nil {
				return err
			}

			ocfg := cfg.Overlay
			ocfg.Force = ocfg.Force || cmd.Bool("force")
			ocfg.Debug = ocfg.Debug || cmd.Bool("debug")
			ocfg.TextLayer = ocfg.TextLayer || cmd.Bool("text-layer")
			if ocfg.TextLayer && g.hocr != nil {
				for i := range pages {
					if i < len(g.hocr.Pages) {
						pages[i].Text = &g.hocr.Pages[i]
					}
				}
			}

			var pdf []byte
			switch {
			case cmd.String("pdf") != "":
				pdf, err = overlayPDF(cmd.String("pdf"), pages, ocfg, *cfg)
			default:
				var images [][]byte
				images, err = pageImages(cmd.String("images"), g)
				if err == nil {
					pdf, err = pdfpaint.Assemble(pages, images, ocfg)
				}
			}
			if err != nil {
				return err
			}

			if err := os.WriteFile(output, pdf, 0o644); err != nil {
				return fmt.Errorf("failed to write output PDF: %w", err)
			}
			log.Info().Str("output", output).Int("highlights", len(t.Highlights(0))).Msg("highlighted PDF created")
			return nil
		},
	}
}

// overlayPDF paints pages over the PDF at path. Page media sizes come from
// the PDF itself so OCR pixel geometry is scaled onto points.
func overlayPDF(path string, pages []pdfpaint.Page, ocfg pdfpaint.Config, cfg fileConfig) ([]byte, error) {
	input, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input PDF: %w", err)
	}
	media, err := pdftext.Open(path, cfg.PDFText)
	if err != nil {
		return nil, err
	}

	start := max(ocfg.StartPage, 1)
	for i := range pages {
		w, h, ok := media.PageSize(pages[i].Number + start - 1)
		if !ok {
			return nil, fmt.Errorf("input PDF has no page %d", pages[i].Number+start-1)
		}
		pages[i].MediaWidth, pages[i].MediaHeight = w, h
	}
	return pdfpaint.Apply(input, pages, ocfg)
}

// pageImages reads the images in dir in name order, or takes the page
// images of a Document AI response when dir is empty.
func pageImages(dir string, g *geometry) ([][]byte, error) {
	if dir == "" {
		if g.docai == nil {
			return nil, errors.New("one of --pdf or --images is required")
		}
		var images [][]byte
		for i, page := range g.docai.GetPages() {
			img, _, err := gdocai.PageImage(page)
			if err != nil {
				return nil, fmt.Errorf("page %d: %w", i+1, err)
			}
			images = append(images, img)
		}
		return images, nil
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*"))
	if err != nil {
		return nil, fmt.Errorf("error accessing image directory: %w", err)
	}
	sort.Strings(paths)
	log.Debug().Int("count", len(paths)).Str("dir", dir).Msg("found image files")

	images := make([][]byte, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read image %s: %w", p, err)
		}
		images = append(images, data)
	}
	return images, nil
}
