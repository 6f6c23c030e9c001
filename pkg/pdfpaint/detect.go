package pdfpaint

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ocgNameFirst matches "<</Type /OCG /Name (" up to the string.
	ocgNameFirst = regexp.MustCompile(`/Type\s*/OCG\s*/Name\s*\(`)
	// nameThenOCG matches a /Name string that may be followed by /Type /OCG.
	nameThenOCG = regexp.MustCompile(`/Name\s*\(`)
	typeOCG     = regexp.MustCompile(`^\s*/Type\s*/OCG`)
)

// detectPDFLayers finds optional content group names in raw PDF data.
func detectPDFLayers(pdfData []byte) ([]string, error) {
	if len(pdfData) == 0 {
		return nil, errors.New("empty PDF data")
	}

	var layers []string
	for _, m := range ocgNameFirst.FindAllIndex(pdfData, -1) {
		if name, _, ok := readLiteral(pdfData, m[1]); ok {
			layers = append(layers, name)
		}
	}
	for _, m := range nameThenOCG.FindAllIndex(pdfData, -1) {
		name, end, ok := readLiteral(pdfData, m[1])
		if ok && typeOCG.Match(pdfData[end:min(end+50, len(pdfData))]) {
			layers = append(layers, name)
		}
	}

	for i, l := range layers {
		if decoded, err := decodeUTF16BE([]byte(l)); err == nil {
			layers[i] = decoded
		}
	}

	unique := make([]string, 0, len(layers))
	seen := make(map[string]bool)
	for _, l := range layers {
		if !seen[l] {
			seen[l] = true
			unique = append(unique, l)
		}
	}
	return unique, nil
}

// readLiteral reads a PDF literal string whose opening parenthesis ends just
// before pos. It returns the unescaped bytes and the offset after the
// closing parenthesis.
func readLiteral(data []byte, pos int) (string, int, bool) {
	var b strings.Builder
	depth := 1
	for i := pos; i < len(data); i++ {
		c := data[i]
		switch c {
		case '\\':
			i++
			if i >= len(data) {
				return "", 0, false
			}
			switch e := data[i]; e {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case 'b':
				b.WriteByte('\b')
			case 'f':
				b.WriteByte('\f')
			case '\r', '\n':
				// line continuation
			default:
				if e >= '0' && e <= '7' {
					v, n := 0, 0
					for ; n < 3 && i+n < len(data) && data[i+n] >= '0' && data[i+n] <= '7'; n++ {
						v = v*8 + int(data[i+n]-'0')
					}
					b.WriteByte(byte(v))
					i += n - 1
					continue
				}
				b.WriteByte(e)
			}
		case '(':
			depth++
			b.WriteByte(c)
		case ')':
			depth--
			if depth == 0 {
				return b.String(), i + 1, true
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return "", 0, false
}

// LayerCheckResult contains the results of checking for highlight layers.
type LayerCheckResult struct {
	Layers    []string // All detected layers
	HasLayer  bool     // True if the named highlight layer exists
	LayerName string   // Name of the detected highlight layer (if any)
	Warnings  []string // Layers that look like highlights under another name
}

// CheckLayers checks a PDF for an existing highlight layer named layerName,
// either exactly or with a page suffix.
func CheckLayers(pdfData []byte, layerName string) (LayerCheckResult, error) {
	result := LayerCheckResult{}

	layers, err := detectPDFLayers(pdfData)
	if err != nil {
		return result, fmt.Errorf("cannot analyze layers: %w", err)
	}
	result.Layers = layers

	pageLayer := regexp.MustCompile(fmt.Sprintf(`^%s\s*\(Page\s*\d+`, regexp.QuoteMeta(layerName)))
	for _, layer := range layers {
		if layer == layerName || pageLayer.MatchString(layer) {
			result.HasLayer = true
			result.LayerName = layer
			break
		}
		if strings.Contains(strings.ToLower(layer), "highlight") && !strings.HasPrefix(layer, layerName) {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Existing layer detected that might contain highlights: %s", layer))
		}
	}
	return result, nil
}
