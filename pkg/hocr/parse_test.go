package hocr

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardar/ocrlens/pkg/coordmap"
)

const sample = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml" xml:lang="en" lang="en">
 <head>
  <title>scan</title>
  <meta http-equiv="Content-Type" content="text/html;charset=utf-8"/>
  <meta name="ocr-system" content="tesseract 5.3.0"/>
  <meta name="ocr-capabilities" content="ocr_page ocr_carea ocr_par ocr_line ocrx_word"/>
 </head>
 <body>
  <div class="ocr_page" id="page_1" title='image "scan.png"; bbox 0 0 1000 1400; ppageno 0'>
   <div class="ocr_carea" id="block_1_1" title="bbox 100 100 400 160">
    <p class="ocr_par" id="par_1_1" title="bbox 100 100 400 160">
     <span class="ocr_line" id="line_1_1" title="bbox 100 100 400 120; baseline 0 -4; x_size 20">
      <span class="ocrx_word" id="word_1_1" title="bbox 100 100 200 120; x_wconf 96">Hello</span>
      <span class="ocrx_word" id="word_1_2" title="bbox 210 100 300 120; x_wconf 91"><strong>World</strong></span>
     </span>
     <span class="ocr_line" id="line_1_2" title="bbox 100 140 400 160; x_size 18">
      <span class="ocrx_word" id="word_1_3" title="bbox 100 140 160 160; x_wconf 88; x_fsize 11">again</span>
      <span class="ocrx_word" id="word_1_4" title="bbox 170 140 200 160"> </span>
     </span>
    </p>
   </div>
   <div class="ocr_carea" id="block_1_2">
    <span class="ocrx_word" id="word_1_5" title="bbox 500 500 560 520">loose</span>
    <span class="ocrx_word" id="word_1_6" title="bbox 570 500 600 520">words</span>
   </div>
  </div>
  <div class="ocr_page" id="page_2" title="bbox 0 0 1000 1400; ppageno 1">
  </div>
 </body>
</html>`

func TestParse(t *testing.T) {
	doc, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "scan", doc.Title)
	assert.Equal(t, "en", doc.Language)
	assert.Equal(t, "tesseract 5.3.0", doc.Metadata["ocr-system"])
	require.Len(t, doc.Pages, 2)

	p := doc.Pages[0]
	assert.Equal(t, "page_1", p.ID)
	assert.Equal(t, "scan.png", p.ImageName)
	assert.Equal(t, coordmap.NewRect(0, 0, 1000, 1400), p.BBox)
	require.Len(t, p.Lines, 3)

	l := p.Lines[0]
	assert.Equal(t, "line_1_1", l.ID)
	assert.Equal(t, "0 -4", l.Baseline)
	assert.Equal(t, 20.0, l.Size)
	require.Len(t, l.Words, 2)
	assert.Equal(t, "World", l.Words[1].Text)
	assert.Equal(t, 91.0, l.Words[1].Confidence)
	assert.Equal(t, coordmap.NewRect(210, 100, 300, 120), l.Words[1].BBox)

	assert.Equal(t, 11.0, p.Lines[1].Words[0].FontSize)

	loose := p.Lines[2]
	assert.Equal(t, coordmap.NewRect(500, 500, 600, 520), loose.BBox)
	assert.Len(t, loose.Words, 2)

	assert.Equal(t, "Hello World\nagain\nloose words", p.Text())
	assert.Equal(t, "Hello World\nagain\nloose words\n\n", doc.Text())
}

func TestParse_NoPages(t *testing.T) {
	_, err := Parse([]byte("<html><body><p>nothing</p></body></html>"))
	assert.ErrorIs(t, err, ErrNoPages)
}

func TestParse_Latin1(t *testing.T) {
	data := []byte("<html><head><meta http-equiv=\"Content-Type\" content=\"text/html; charset=iso-8859-1\"></head><body>" +
		"<div class='ocr_page' title='bbox 0 0 10 10'><span class='ocr_line'>" +
		"<span class='ocrx_word' title='bbox 0 0 5 5'>caf\xe9</span></span></div></body></html>")

	doc, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "café", doc.Pages[0].Lines[0].Words[0].Text)
}

func TestParseTitle(t *testing.T) {
	props := ParseTitle("bbox 100 200 300 400; x_wconf 95;; baseline 0.01 -3")
	assert.Equal(t, []string{"100", "200", "300", "400"}, props["bbox"])
	assert.Equal(t, []string{"95"}, props["x_wconf"])
	assert.Len(t, props, 3)

	box, ok := ParseBBox(props)
	require.True(t, ok)
	assert.Equal(t, coordmap.NewRect(100, 200, 300, 400), box)

	_, ok = ParseBBox(ParseTitle("bbox 1 2 x 4"))
	assert.False(t, ok)
}

func TestSource_PageRuns(t *testing.T) {
	doc, err := Parse([]byte(sample))
	require.NoError(t, err)
	src := NewSource(doc)
	assert.Equal(t, 2, src.PageCount())

	runs, err := src.PageRuns(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 5)

	assert.Equal(t, coordmap.BreakSpace, runs[0].Break)
	assert.Equal(t, coordmap.BreakLine, runs[1].Break)
	assert.Equal(t, coordmap.BreakLine, runs[2].Break)
	assert.Equal(t, coordmap.BreakNone, runs[4].Break)
	assert.Equal(t, 20.0, runs[0].FontSize)
	assert.Equal(t, 11.0, runs[2].FontSize)
	assert.Equal(t, 20.0, runs[3].FontSize, "box height without size hints")

	m, err := coordmap.Build(1, 0, runs)
	require.NoError(t, err)
	assert.Equal(t, doc.Pages[0].Text(), m.Text())
	assert.Len(t, m.Lines(), 3)

	_, err = src.PageRuns(context.Background(), 2)
	assert.ErrorIs(t, err, coordmap.ErrGeometryUnavailable)

	_, err = src.PageRuns(context.Background(), 3)
	assert.Error(t, err)

	w, h, ok := src.PageSize(1)
	require.True(t, ok)
	assert.Equal(t, 1000.0, w)
	assert.Equal(t, 1400.0, h)
}

func TestSource_Document(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.hocr")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	src, err := Open(path)
	require.NoError(t, err)

	doc := coordmap.NewDocument(src)
	unavailable, err := doc.BuildAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{2}, unavailable)
	assert.Equal(t, 29, doc.Len())

	_, err = Open(filepath.Join(t.TempDir(), "missing.hocr"))
	assert.Error(t, err)
}
