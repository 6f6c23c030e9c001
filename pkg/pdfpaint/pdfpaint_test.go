package pdfpaint

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardar/ocrlens/pkg/coordmap"
	"github.com/gardar/ocrlens/pkg/hocr"
	"github.com/gardar/ocrlens/pkg/paint"
	"github.com/gardar/ocrlens/pkg/resolve"
)

func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type sizes map[int][2]float64

func (s sizes) PageCount() int { return len(s) }

func (s sizes) PageSize(page int) (float64, float64, bool) {
	v, ok := s[page]
	return v[0], v[1], ok
}

func TestSink(t *testing.T) {
	r := paint.NewRenderer()
	s := NewSink()
	a := r.Plan(1, []resolve.Box{{X: 10, Y: 10, Width: 50, Height: 12}}, paint.StyleInactive)
	b := r.Plan(1, []resolve.Box{{X: 10, Y: 30, Width: 50, Height: 12}}, paint.StyleActive)
	c := r.Plan(2, []resolve.Box{{X: 0, Y: 0, Width: 5, Height: 5}}, paint.StyleCursor)

	s.Apply(1, "hl-1", a)
	s.Apply(1, "hl-2", b)
	s.Apply(2, "cursor", c)
	s.Apply(1, "hl-1", a)
	assert.Equal(t, []*paint.Plan{b, a}, s.Plans(1), "re-applied plan moves to the top")
	assert.Equal(t, 3, s.Len())

	s.Remove(1, "hl-2", b)
	s.Remove(1, "hl-2", b)
	s.Remove(3, "nope", nil)
	assert.Equal(t, []*paint.Plan{a}, s.Plans(1))
	assert.Equal(t, []int{1, 2}, s.PageNumbers())

	s.Apply(1, "nil", nil)
	assert.Equal(t, 2, s.Len())
}

func TestSink_Pages(t *testing.T) {
	r := paint.NewRenderer()
	s := NewSink()
	s.Apply(2, "hl-1", r.Plan(2, []resolve.Box{{X: 1, Y: 1, Width: 2, Height: 2}}, paint.StyleActive))

	pages, err := s.Pages(sizes{1: {100, 200}, 2: {300, 400}})
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Empty(t, pages[0].Plans)
	assert.Len(t, pages[1].Plans, 1)
	assert.Equal(t, 300.0, pages[1].Width)

	_, err = s.Pages(sizes{2: {1, 1}})
	assert.Error(t, err)
}

func TestPageTransform(t *testing.T) {
	p := Page{Number: 1, Width: 1000, Height: 2000}
	x, y := p.transform(500, 1000)
	assert.Equal(t, 500.0, x)
	assert.Equal(t, 1000.0, y)

	p.MediaWidth, p.MediaHeight = 500, 1000
	x, y = p.transform(500, 1000)
	assert.Equal(t, 250.0, x)
	assert.Equal(t, 500.0, y)
}

func TestReadLiteral(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		end  int
	}{
		{"plain", "abc) rest", "abc", 4},
		{"nested", "a(b)c)", "a(b)c", 6},
		{"escaped parens", `a\(b\)c)`, "a(b)c", 8},
		{"octal", `\101\102)`, "AB", 9},
		{"escapes", `\n\\x)`, "\n\\x", 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, end, ok := readLiteral([]byte(tt.in), 0)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.end, end)
		})
	}

	_, _, ok := readLiteral([]byte("unterminated"), 0)
	assert.False(t, ok)
}

func TestCheckLayers(t *testing.T) {
	raw := []byte("1 0 obj\n<</Type /OCG /Name (Highlights \\(Page 3\\))>>\nendobj\n" +
		"2 0 obj\n<</Name (My highlights) /Type /OCG>>\nendobj\n" +
		"3 0 obj\n<</Type /OCG /Name (\xfe\xff\x00O\x00C\x00R)>>\nendobj\n")

	res, err := CheckLayers(raw, "Highlights")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Highlights (Page 3)", "My highlights", "OCR"}, res.Layers)
	assert.True(t, res.HasLayer)
	assert.Equal(t, "Highlights (Page 3)", res.LayerName)

	res, err = CheckLayers(raw, "Marks")
	require.NoError(t, err)
	assert.False(t, res.HasLayer)
	assert.Len(t, res.Warnings, 2)

	_, err = CheckLayers(nil, "Highlights")
	assert.Error(t, err)
}

func testPages() []Page {
	r := paint.NewRenderer()
	text := &hocr.Page{Lines: []hocr.Line{{Words: []hocr.Word{
		{Text: "Hello", BBox: coordmap.NewRect(10, 10, 60, 22)},
		{Text: "Wörld", BBox: coordmap.NewRect(70, 10, 120, 22)},
	}}}}
	return []Page{{
		Number: 1,
		Width:  200,
		Height: 100,
		Plans: []*paint.Plan{
			r.Plan(1, []resolve.Box{{X: 10, Y: 10, Width: 110, Height: 12}}, paint.StyleActive),
		},
		Text: text,
	}}
}

func TestAssemble(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TextLayer = true

	out, err := Assemble(testPages(), [][]byte{pngImage(t, 20, 10)}, cfg)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))

	res, err := CheckLayers(out, cfg.LayerName)
	require.NoError(t, err)
	assert.True(t, res.HasLayer)
	assert.Contains(t, res.Layers, "Highlights (Page 1)")
	assert.Contains(t, res.Layers, "Highlights Text (Page 1)")

	_, err = Apply(out, testPages(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already has highlights")
}

func TestAssemble_Invalid(t *testing.T) {
	img := pngImage(t, 2, 2)

	_, err := Assemble(nil, [][]byte{img}, Config{})
	assert.Error(t, err)

	_, err = Assemble(testPages(), nil, Config{})
	assert.Error(t, err)

	_, err = Assemble(testPages(), [][]byte{[]byte("not an image")}, Config{})
	assert.Error(t, err)

	_, err = Assemble([]Page{{Number: 1}}, [][]byte{img}, Config{})
	assert.Error(t, err, "page without size")
}

func TestApply_Invalid(t *testing.T) {
	_, err := Apply(nil, testPages(), Config{})
	assert.Error(t, err)

	_, err = Apply([]byte("%PDF-1.4"), testPages(), Config{StartPage: -1})
	assert.Error(t, err)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, "Highlights", cfg.LayerName)
	assert.Equal(t, 1, cfg.StartPage)
	assert.Equal(t, "Multiply", cfg.BlendMode)
	assert.Equal(t, DefaultFont, cfg.Font)
}
