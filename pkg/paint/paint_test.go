package paint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardar/ocrlens/pkg/resolve"
)

func TestPlan(t *testing.T) {
	r := NewRenderer()
	boxes := []resolve.Box{
		{X: 0, Y: 0, Width: 110, Height: 10},
		{X: 0, Y: 20, Width: 40, Height: 10},
	}

	p := r.Plan(2, boxes, StyleActive)
	require.NotNil(t, p)
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, StyleActive, p.Style)
	require.Len(t, p.Items, 2)
	for i, it := range p.Items {
		assert.Equal(t, boxes[i], it.Rect)
		assert.Equal(t, 0.7, it.Opacity)
	}
	assert.Equal(t, boxes, p.Boxes())
	assert.Equal(t, 1, r.Live())
}

func TestPlan_Empty(t *testing.T) {
	r := NewRenderer()
	assert.Nil(t, r.Plan(1, nil, StyleActive))
	assert.Nil(t, r.Plan(1, []resolve.Box{{X: 1, Y: 1}}, StyleActive))
	assert.Nil(t, r.TextPlan(4, 4, StyleActive))
	assert.Equal(t, 0, r.Live())
}

func TestActiveAndInactiveDiffer(t *testing.T) {
	active, inactive := StyleActive.Fill(), StyleInactive.Fill()
	assert.Equal(t, active.Color, inactive.Color)
	assert.Greater(t, active.Opacity, inactive.Opacity)
	assert.InDelta(t, 0.3, active.Opacity-inactive.Opacity, 1e-9)
}

func TestErase_IsInverse(t *testing.T) {
	r := NewRenderer()
	boxes := []resolve.Box{{X: 5, Y: 5, Width: 10, Height: 10}, {X: 5, Y: 30, Width: 20, Height: 10}}

	p := r.Plan(3, boxes, StyleWarning)
	tp := r.TextPlan(10, 25, StyleWarning)
	require.Equal(t, 2, r.Live())

	d := r.Erase(p)
	assert.Equal(t, 3, d.Page)
	assert.Equal(t, boxes, d.Rects)
	bounds, ok := d.Bounds()
	require.True(t, ok)
	assert.Equal(t, resolve.Box{X: 5, Y: 5, Width: 20, Height: 35}, bounds)

	td := r.EraseText(tp)
	assert.Equal(t, TextDamage{Start: 10, End: 25}, td)
	assert.Equal(t, 0, r.Live())

	assert.True(t, r.Erase(nil).Empty())
	assert.True(t, r.EraseText(nil).Empty())
	assert.Equal(t, 0, r.Live())
}

func TestTextPlan(t *testing.T) {
	r := NewRenderer()
	tp := r.TextPlan(3, 9, StyleError)
	require.NotNil(t, tp)
	assert.Equal(t, 3, tp.Start)
	assert.Equal(t, 9, tp.End)
	assert.Equal(t, StyleError.Fill().Color, tp.Fill)
	assert.Equal(t, 0.4, tp.Opacity)
}

func TestParseStyle(t *testing.T) {
	for _, s := range []Style{StyleActive, StyleInactive, StyleCursor, StyleError, StyleSuccess, StyleWarning} {
		got, err := ParseStyle(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	got, err := ParseStyle(" Warning ")
	require.NoError(t, err)
	assert.Equal(t, StyleWarning, got)

	_, err = ParseStyle("glow")
	assert.Error(t, err)

	var s Style
	require.NoError(t, s.UnmarshalText([]byte("success")))
	assert.Equal(t, StyleSuccess, s)
	assert.Equal(t, "Style(42)", Style(42).String())
	assert.Equal(t, StyleInactive.Fill(), Style(42).Fill())
}

func TestColorHex(t *testing.T) {
	assert.Equal(t, "#ffd400", highlightYellow.Hex())
	assert.Equal(t, "#000a0f", Color{R: 0, G: 10, B: 15}.Hex())
}
