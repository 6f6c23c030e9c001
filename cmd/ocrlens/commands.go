package main

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/gardar/ocrlens/pkg/coordmap"
	"github.com/gardar/ocrlens/pkg/paint"
	"github.com/gardar/ocrlens/pkg/resolve"
	"github.com/gardar/ocrlens/pkg/textview"
	"github.com/gardar/ocrlens/pkg/tracker"
)

func withSourceFlags(fl ...cli.Flag) []cli.Flag {
	return append(append([]cli.Flag{}, sourceFlags...), fl...)
}

func textCmd(cfg *fileConfig) *cli.Command {
	return &cli.Command{
		Name:  "text",
		Usage: "Print the document text",
		Description: `Prints the text the coordinate maps were built from, page by page.

With --range the text is rendered with highlights and a caret for the
terminal; the first range is active.

Examples:
  ocrlens text --hocr scan.hocr
  ocrlens text --hocr scan.hocr --range 10:42 --range 60:75@error --cursor 12`,
		Flags: withSourceFlags(
			&cli.IntFlag{Name: "page", Usage: "print only this page"},
			&cli.StringSliceFlag{Name: "range", Usage: "highlight start:end[@style]"},
			&cli.IntFlag{Name: "cursor", Usage: "caret offset", Value: -1},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			g, err := openGeometry(ctx, cmd, *cfg)
			if err != nil {
				return err
			}
			out := cmd.Root().Writer

			if len(cmd.StringSlice("range")) == 0 && cmd.Int("cursor") < 0 {
				return printText(out, g.doc, cmd.Int("page"))
			}

			ranges, err := parseRanges(cmd.StringSlice("range"), paint.StyleInactive)
			if err != nil {
				return err
			}
			buf := textview.New(documentText(g.doc))
			t, err := tracker.New(g.doc, discardPages{}, buf, nil, cfg.Tracker)
			if err != nil {
				return err
			}
			if err := createAll(t, g, ranges, 0, 0); err != nil {
				return err
			}
			if c := cmd.Int("cursor"); c >= 0 {
				t.TrackCursor(c)
				t.Flush()
			}
			_, err = fmt.Fprintln(out, buf.Render())
			return err
		},
	}
}

func boxesCmd(cfg *fileConfig) *cli.Command {
	return &cli.Command{
		Name:  "boxes",
		Usage: "Print the line boxes covering a text range",
		Description: `Resolves each range to one box per visual line and prints
"page x y width height" per box, in page units.

Examples:
  ocrlens boxes --pdf-text paper.pdf --range 120:180
  ocrlens boxes --hocr scan.hocr --page 2 --range 400:460`,
		Flags: withSourceFlags(
			&cli.IntFlag{Name: "page", Usage: "page of the ranges (default: page of each range start)"},
			&cli.StringSliceFlag{Name: "range", Usage: "start:end", Required: true},
			&cli.BoolFlag{Name: "caret", Usage: "also print the caret box at each range start"},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			g, err := openGeometry(ctx, cmd, *cfg)
			if err != nil {
				return err
			}
			ranges, err := parseRanges(cmd.StringSlice("range"), paint.StyleInactive)
			if err != nil {
				return err
			}

			r := resolve.New(g.doc, resolve.Options{ToleranceFactor: cfg.Tracker.LineClusteringToleranceFactor})
			out := cmd.Root().Writer
			for _, rg := range ranges {
				page, err := g.pageFor(rg, cmd.Int("page"))
				if err != nil {
					return err
				}
				for _, b := range r.Boxes(rg.Start, rg.End, page) {
					fmt.Fprintf(out, "%d %.2f %.2f %.2f %.2f\n", page, b.X, b.Y, b.Width, b.Height)
				}
				if cmd.Bool("caret") {
					if b, ok := r.Caret(rg.Start, page); ok {
						fmt.Fprintf(out, "%d %.2f %.2f %.2f %.2f caret\n", page, b.X, b.Y, b.Width, b.Height)
					}
				}
			}
			return nil
		},
	}
}

func locateCmd(cfg *fileConfig) *cli.Command {
	return &cli.Command{
		Name:  "locate",
		Usage: "Print the text offset at a page coordinate",
		Description: `Finds the character nearest to (x, y) on a page and prints the
caret offset, the offset of the character and the character itself.

Example:
  ocrlens locate --hocr scan.hocr --page 1 --x 310 --y 122`,
		Flags: withSourceFlags(
			&cli.IntFlag{Name: "page", Value: 1, Usage: "page number"},
			&cli.FloatFlag{Name: "x", Required: true, Usage: "x in page units"},
			&cli.FloatFlag{Name: "y", Required: true, Usage: "y in page units"},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			g, err := openGeometry(ctx, cmd, *cfg)
			if err != nil {
				return err
			}
			page := cmd.Int("page")
			r := resolve.New(g.doc, resolve.Options{ToleranceFactor: cfg.Tracker.LineClusteringToleranceFactor})

			offset, ok := r.Offset(cmd.Float("x"), cmd.Float("y"), page)
			if !ok {
				return fmt.Errorf("page %d has no glyph geometry", page)
			}
			out := cmd.Root().Writer
			fmt.Fprintf(out, "offset %d\n", offset)
			if glyph, ok := r.Glyph(cmd.Float("x"), cmd.Float("y"), page); ok {
				m, _ := g.doc.Map(page)
				e, _ := m.Entry(glyph)
				fmt.Fprintf(out, "glyph %d %q\n", glyph, e.Glyph)
			}
			return nil
		},
	}
}

func printText(w io.Writer, doc *coordmap.Document, only int) error {
	for page := 1; page <= doc.PageCount(); page++ {
		if only > 0 && page != only {
			continue
		}
		m, ok := doc.Map(page)
		if !ok {
			fmt.Fprintf(w, "--- page %d (no geometry)\n", page)
			continue
		}
		if _, err := fmt.Fprintf(w, "--- page %d [%d, %d)\n%s\n", page, m.Base(), m.End(), m.Text()); err != nil {
			return err
		}
	}
	return nil
}

// documentText joins the page texts so that rune offsets equal global
// offsets. Pages without geometry contribute nothing.
func documentText(doc *coordmap.Document) string {
	var text []rune
	for page := 1; page <= doc.PageCount(); page++ {
		if m, ok := doc.Map(page); ok {
			text = append(text, []rune(m.Text())...)
		}
	}
	return string(text)
}

// createAll registers the ranges with t. The first range becomes active
// unless active says otherwise; a negative active leaves all inactive.
func createAll(t *tracker.Tracker, g *geometry, ranges []rangeSpec, page, active int) error {
	for i, rg := range ranges {
		p, err := g.pageFor(rg, page)
		if err != nil {
			return err
		}
		style := rg.Style
		if i == active && style == paint.StyleInactive {
			style = paint.StyleActive
		}
		if _, err := t.Create(rg.Start, rg.End, p, style); err != nil {
			return err
		}
	}
	return nil
}

// discardPages is a page view for commands that only show text.
type discardPages struct{}

func (discardPages) Apply(int, string, *paint.Plan)  {}
func (discardPages) Remove(int, string, *paint.Plan) {}
