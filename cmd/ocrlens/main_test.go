package main

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardar/ocrlens/pkg/paint"
	"github.com/gardar/ocrlens/pkg/pdfpaint"
)

const page = `<html><body>
<div class="ocr_page" id="page_1" title="bbox 0 0 1000 1400">
 <span class="ocr_line" id="line_1_1" title="bbox 100 100 300 120">
  <span class="ocrx_word" id="word_1_1" title="bbox 100 100 200 120">Hello</span>
  <span class="ocrx_word" id="word_1_2" title="bbox 210 100 300 120">World</span>
 </span>
</div>
</body></html>`

func writeHOCR(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scan.hocr")
	require.NoError(t, os.WriteFile(path, []byte(page), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app, closeLogs := newApp()
	t.Cleanup(closeLogs)
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &bytes.Buffer{}
	err := app.Run(context.Background(), append([]string{"ocrlens", "--config", ""}, args...))
	return out.String(), err
}

func TestText(t *testing.T) {
	out, err := run(t, "text", "--hocr", writeHOCR(t))
	require.NoError(t, err)
	assert.Equal(t, "--- page 1 [0, 11)\nHello World\n", out)
}

func TestBoxes(t *testing.T) {
	out, err := run(t, "boxes", "--hocr", writeHOCR(t), "--range", "0:5")
	require.NoError(t, err)
	assert.Equal(t, "1 100.00 100.00 100.00 20.00\n", out)
}

func TestLocate(t *testing.T) {
	out, err := run(t, "locate", "--hocr", writeHOCR(t), "--x", "115", "--y", "110")
	require.NoError(t, err)
	assert.Equal(t, "offset 1\nglyph 0 'H'\n", out)
}

func TestSourceRequired(t *testing.T) {
	_, err := run(t, "text")
	assert.ErrorContains(t, err, "exactly one of")
}

func TestOverlay_Images(t *testing.T) {
	dir := t.TempDir()
	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewGray(image.Rect(0, 0, 10, 14))))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "page_001.png"), img.Bytes(), 0o644))
	output := filepath.Join(t.TempDir(), "out.pdf")

	_, err := run(t, "overlay", "--hocr", writeHOCR(t), "--images", dir,
		"--range", "0:5", "--range", "6:11@error", "--text-layer", "--output", output)
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	res, err := pdfpaint.CheckLayers(data, "Highlights")
	require.NoError(t, err)
	assert.True(t, res.HasLayer)

	_, err = run(t, "overlay", "--hocr", writeHOCR(t), "--images", dir, "--range", "0:5", "--output", output)
	assert.ErrorContains(t, err, "already exists")
}

func TestParseRange(t *testing.T) {
	r, err := parseRange("3:9", paint.StyleInactive)
	require.NoError(t, err)
	assert.Equal(t, rangeSpec{Start: 3, End: 9, Style: paint.StyleInactive}, r)

	r, err = parseRange("9:3@warning", paint.StyleInactive)
	require.NoError(t, err)
	assert.Equal(t, rangeSpec{Start: 9, End: 3, Style: paint.StyleWarning}, r)

	for _, bad := range []string{"3", "a:4", "1:b", "1:2@sparkly"} {
		_, err := parseRange(bad, paint.StyleInactive)
		assert.Error(t, err, bad)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ocrlens.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
tracker:
  debounce_window_ms: 10
  cursor_sync: false
overlay:
  layer_name: Marks
document_ai:
  project_id: p
  location: eu
  processor_id: x
`), 0o644))

	cfg, err := loadConfig(path, true)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Tracker.DebounceWindowMS)
	assert.True(t, cfg.Tracker.SyncSelection())
	assert.False(t, cfg.Tracker.SyncCursor())
	assert.Equal(t, 0.5, cfg.Tracker.LineClusteringToleranceFactor)
	assert.Equal(t, "Marks", cfg.Overlay.LayerName)
	assert.Equal(t, "Multiply", cfg.Overlay.BlendMode)
	assert.NoError(t, cfg.DocumentAI.Validate())

	missing := filepath.Join(t.TempDir(), "none.yml")
	cfg, err = loadConfig(missing, false)
	require.NoError(t, err)
	assert.Equal(t, defaultFileConfig().Tracker.DebounceWindowMS, cfg.Tracker.DebounceWindowMS)
	_, err = loadConfig(missing, true)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("tracker: [1, 2"), 0o644))
	_, err = loadConfig(path, true)
	assert.Error(t, err)
}
