package pdfpaint

import (
	"bytes"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/gardar/ocrlens/internal/logging"
)

// normalizeCoords rescales source coordinates to PDF coordinates.
func normalizeCoords(x, y, srcW, srcH, pdfW, pdfH float64) (float64, float64) {
	if srcW <= 0 || srcH <= 0 {
		return x, y
	}
	return (x / srcW) * pdfW, (y / srcH) * pdfH
}

func layerTitle(base string, page int) string {
	if page > 0 {
		return fmt.Sprintf("%s (Page %d)", base, page)
	}
	return base
}

func decodeUTF16BE(b []byte) (string, error) {
	if len(b) < 2 || b[0] != 0xFE || b[1] != 0xFF {
		return "", fmt.Errorf("no BOM detected, cannot confirm UTF-16BE")
	}
	b = b[2:]
	runes := make([]rune, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		runes = append(runes, rune(uint16(b[i])<<8|uint16(b[i+1])))
	}
	return string(runes), nil
}

func (c Config) logger() zerolog.Logger {
	if c.Logger != nil {
		return *c.Logger
	}
	return logging.Component("pdfpaint")
}

// dumpPDFStructure logs the first bytes of the PDF plus the context of the
// first /OCG reference.
func dumpPDFStructure(pdfData []byte, byteCount int, logger zerolog.Logger) {
	if byteCount > len(pdfData) {
		byteCount = len(pdfData)
	}
	logger.Debug().Int("bytes", byteCount).Str("head", string(pdfData[:byteCount])).Msg("PDF structure dump")

	if i := bytes.Index(pdfData, []byte("/OCG")); i >= 0 {
		start := max(i-20, 0)
		end := min(i+100, len(pdfData))
		logger.Debug().Str("context", string(pdfData[start:end])).Msg("OCG context")
	}
}
