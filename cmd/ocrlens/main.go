// ocrlens maps text offsets of OCR'd and born-digital documents to page
// geometry and paints highlights onto the pages.
//
// Geometry is read from one of:
//
//	--hocr file.hocr      hOCR produced by Tesseract and similar engines
//	--pdf-text file.pdf   the text layer of a born-digital PDF
//	--docai file.json     a saved Google Document AI response
//
// Commands:
//
//	text     print the document text, optionally with highlights
//	boxes    print the visual line boxes covering a text range
//	locate   print the text offset at a page coordinate
//	overlay  paint highlights into a PDF
//	gdocai   run a document through Document AI and save the response
//
// Settings are read from a YAML file (--config); see fileConfig.
//
// Examples:
//
//	ocrlens text --hocr scan.hocr --range 10:42
//	ocrlens boxes --pdf-text paper.pdf --range 120:180
//	ocrlens locate --hocr scan.hocr --page 1 --x 310 --y 122
//	ocrlens overlay --hocr scan.hocr --pdf scan.pdf --range 10:42 --range 60:75@warning --active 0 --output out.pdf
//	ocrlens gdocai --config ocrlens.yml --input scan.pdf --json scan.json
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/gardar/ocrlens/internal/logging"
)

var version = "dev"

type flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
}

func main() {
	app, closeLogs := newApp()
	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Error().Err(err).Msg("ocrlens failed")
		closeLogs()
		os.Exit(1)
	}
}

// newApp builds the root command. The returned func closes the log file.
func newApp() (*cli.Command, func()) {
	var (
		f         = &flags{}
		logCloser = func() {}
		cfg       = defaultFileConfig()
	)

	app := &cli.Command{
		Name:    "ocrlens",
		Usage:   "Map text offsets to page geometry and paint highlights",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("OCRLENS_LOG_LEVEL"),
				Value:       "warn",
				Destination: &f.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "write JSON logs to this file instead of the console",
				Sources:     cli.EnvVars("OCRLENS_LOG_FILE"),
				Destination: &f.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to the YAML config file",
				Sources:     cli.EnvVars("OCRLENS_CONFIG"),
				Value:       "ocrlens.yml",
				Destination: &f.ConfigPath,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logger, closer, err := logging.New(f.LogLevel, f.LogFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			loaded, err := loadConfig(f.ConfigPath, c.IsSet("config"))
			if err != nil {
				return ctx, err
			}
			cfg = loaded
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			logCloser()
			return nil
		},
		Commands: []*cli.Command{
			textCmd(&cfg),
			boxesCmd(&cfg),
			locateCmd(&cfg),
			overlayCmd(&cfg),
			gdocaiCmd(&cfg),
		},
	}
	return app, func() { logCloser() }
}
