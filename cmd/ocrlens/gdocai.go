package main

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/gardar/ocrlens/pkg/gdocai"
)

func gdocaiCmd(cfg *fileConfig) *cli.Command {
	return &cli.Command{
		Name:  "gdocai",
		Usage: "Run a document through Document AI OCR",
		Description: `Sends a PDF or image to the Document AI processor from the config file
and saves the response as JSON, which the other commands read with --docai.

Authentication uses credentials_file from the config or
GOOGLE_APPLICATION_CREDENTIALS.

Example:
  export GOOGLE_APPLICATION_CREDENTIALS=/path/to/credentials.json
  ocrlens -c ocrlens.yml gdocai --input scan.pdf --json scan.json --text scan.txt`,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Required: true, Usage: "PDF or image to process"},
			&cli.StringFlag{Name: "mime-type", Usage: "MIME type of the input (default: from the file extension)"},
			&cli.StringFlag{Name: "json", Usage: "path to save the Document AI response"},
			&cli.StringFlag{Name: "text", Usage: "path to save the OCR text"},
			&cli.StringFlag{Name: "images", Usage: "directory to save the page images returned by Document AI"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.String("json") == "" && cmd.String("text") == "" && cmd.String("images") == "" {
				return errors.New("at least one of --json, --text or --images is required")
			}

			input := cmd.String("input")
			content, err := os.ReadFile(input)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", input, err)
			}
			mimeType := cmd.String("mime-type")
			if mimeType == "" {
				mimeType = mime.TypeByExtension(strings.ToLower(filepath.Ext(input)))
			}
			if mimeType == "" {
				return fmt.Errorf("cannot tell the MIME type of %s, pass --mime-type", input)
			}

			log.Info().Str("input", input).Str("processor", cfg.DocumentAI.ProcessorName()).Msg("processing document")
			doc, err := gdocai.Process(ctx, content, mimeType, cfg.DocumentAI)
			if err != nil {
				return err
			}

			if path := cmd.String("json"); path != "" {
				data, err := gdocai.ToJSON(doc)
				if err != nil {
					return err
				}
				if err := os.WriteFile(path, data, 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", path, err)
				}
			}
			if path := cmd.String("text"); path != "" {
				if err := os.WriteFile(path, []byte(gdocai.ToHOCR(doc).Text()), 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", path, err)
				}
			}
			if dir := cmd.String("images"); dir != "" {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("failed to create %s: %w", dir, err)
				}
				for i, page := range doc.GetPages() {
					img, mimeType, err := gdocai.PageImage(page)
					if err != nil {
						log.Warn().Err(err).Int("page", i+1).Msg("no page image")
						continue
					}
					name := filepath.Join(dir, fmt.Sprintf("page_%03d%s", i+1, imageExt(mimeType)))
					if err := os.WriteFile(name, img, 0o644); err != nil {
						return fmt.Errorf("failed to write %s: %w", name, err)
					}
				}
			}
			return nil
		},
	}
}

func imageExt(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/tiff":
		return ".tif"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}
