package hocr

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/gardar/ocrlens/pkg/coordmap"
)

// ErrNoPages is returned when the input has no ocr_page element.
var ErrNoPages = errors.New("no ocr_page elements found in hOCR data")

// Classes of elements that hold one line of words.
var lineClasses = []string{"ocr_line", "ocr_header", "ocr_caption", "ocr_textfloat"}

// Classes of block elements whose loose words form a line of their own.
var blockClasses = []string{"ocr_carea", "ocr_par", "ocrx_block"}

// Parse converts raw hOCR data into a Document.
func Parse(data []byte) (*Document, error) {
	decoded, err := decode(data)
	if err != nil {
		return nil, err
	}

	root, err := html.Parse(bytes.NewReader(decoded))
	if err != nil {
		return nil, fmt.Errorf("failed to parse hOCR html: %w", err)
	}

	doc := &Document{Metadata: make(map[string]string)}
	readHead(doc, root)

	var findPages func(*html.Node)
	findPages = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(getAttrVal(n, "class"), "ocr_page") {
			doc.Pages = append(doc.Pages, parsePage(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			findPages(c)
		}
	}
	findPages(root)

	if len(doc.Pages) == 0 {
		return nil, ErrNoPages
	}
	return doc, nil
}

// decode converts latin-1 and windows-1252 input to UTF-8 based on the
// charset declared in the document head.
func decode(data []byte) ([]byte, error) {
	var enc encoding.Encoding
	switch declaredCharset(data) {
	case "iso-8859-1", "latin1", "latin-1":
		enc = charmap.ISO8859_1
	case "windows-1252", "cp1252":
		enc = charmap.Windows1252
	default:
		return data, nil
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", declaredCharset(data), err)
	}
	return out, nil
}

func declaredCharset(data []byte) string {
	const key = "charset="
	lower := bytes.ToLower(data)
	i := bytes.Index(lower, []byte(key))
	if i < 0 {
		return "utf-8"
	}
	rest := lower[i+len(key):]
	rest = bytes.TrimLeft(rest, `"'`)
	end := bytes.IndexAny(rest, "\"'; />\n")
	if end < 0 {
		end = len(rest)
	}
	if end == 0 {
		return "utf-8"
	}
	return string(rest[:end])
}

// ParseTitle breaks down an hOCR title attribute into its properties.
// Example input: "bbox 100 200 300 400; x_wconf 95"
func ParseTitle(title string) map[string][]string {
	props := make(map[string][]string)
	for _, part := range strings.Split(title, ";") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		props[fields[0]] = fields[1:]
	}
	return props
}

// ParseBBox extracts the bbox property of a title attribute.
func ParseBBox(props map[string][]string) (coordmap.Rect, bool) {
	v, ok := props["bbox"]
	if !ok || len(v) < 4 {
		return coordmap.Rect{}, false
	}
	var c [4]float64
	for i := range c {
		f, err := strconv.ParseFloat(v[i], 64)
		if err != nil {
			return coordmap.Rect{}, false
		}
		c[i] = f
	}
	return coordmap.NewRect(c[0], c[1], c[2], c[3]), true
}

func firstFloat(props map[string][]string, key string) float64 {
	v, ok := props[key]
	if !ok || len(v) == 0 {
		return 0
	}
	f, _ := strconv.ParseFloat(v[0], 64)
	return f
}

// readHead extracts document metadata from <html> and <head>.
func readHead(doc *Document, root *html.Node) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "html":
				if lang := getAttrVal(n, "lang"); lang != "" {
					doc.Language = lang
				}
			case "title":
				if n.FirstChild != nil {
					doc.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "meta":
				name, content := getAttrVal(n, "name"), getAttrVal(n, "content")
				switch {
				case name == "" || content == "":
				case strings.HasPrefix(name, "ocr-"):
					doc.Metadata[name] = content
				case name == "dc.language" && doc.Language == "":
					doc.Language = content
				}
			case "body":
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
}

func parsePage(n *html.Node) Page {
	props := ParseTitle(getAttrVal(n, "title"))
	page := Page{ID: getAttrVal(n, "id")}
	page.BBox, _ = ParseBBox(props)
	if image, ok := props["image"]; ok && len(image) > 0 {
		page.ImageName = strings.Trim(strings.Join(image, " "), `"`)
	}
	page.Number = int(firstFloat(props, "ppageno"))

	var loose *Line
	flush := func() {
		if loose != nil && len(loose.Words) > 0 {
			page.Lines = append(page.Lines, *loose)
		}
		loose = nil
	}

	var walk func(*html.Node)
	walk = func(node *html.Node) {
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			class := getAttrVal(c, "class")
			switch {
			case hasClass(class, lineClasses...):
				flush()
				page.Lines = append(page.Lines, parseLine(c))
			case hasClass(class, "ocrx_word"):
				w := parseWord(c)
				if loose == nil {
					loose = &Line{BBox: w.BBox}
				}
				loose.BBox = loose.BBox.Union(w.BBox)
				loose.Words = append(loose.Words, w)
			default:
				walk(c)
				if hasClass(class, blockClasses...) {
					flush()
				}
			}
		}
	}
	walk(n)
	flush()
	return page
}

func parseLine(n *html.Node) Line {
	props := ParseTitle(getAttrVal(n, "title"))
	line := Line{
		ID:   getAttrVal(n, "id"),
		Size: firstFloat(props, "x_size"),
	}
	line.BBox, _ = ParseBBox(props)
	if baseline, ok := props["baseline"]; ok {
		line.Baseline = strings.Join(baseline, " ")
	}

	var walk func(*html.Node)
	walk = func(node *html.Node) {
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			if hasClass(getAttrVal(c, "class"), "ocrx_word") {
				line.Words = append(line.Words, parseWord(c))
				continue
			}
			walk(c)
		}
	}
	walk(n)
	return line
}

func parseWord(n *html.Node) Word {
	props := ParseTitle(getAttrVal(n, "title"))
	word := Word{
		ID:         getAttrVal(n, "id"),
		Text:       strings.Join(strings.Fields(textContent(n)), " "),
		Confidence: firstFloat(props, "x_wconf"),
		FontSize:   firstFloat(props, "x_fsize"),
		Lang:       getAttrVal(n, "lang"),
	}
	word.BBox, _ = ParseBBox(props)
	return word
}

// textContent gets all text below a node.
func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}

// hasClass reports whether a class attribute lists any of names.
func hasClass(attr string, names ...string) bool {
	for _, c := range strings.Fields(attr) {
		for _, name := range names {
			if c == name {
				return true
			}
		}
	}
	return false
}

// getAttrVal returns the value of an attribute of a node.
func getAttrVal(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
