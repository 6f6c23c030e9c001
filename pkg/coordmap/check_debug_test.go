//go:build ocrlens_debug

package coordmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuild_PanicsOnMalformedBoxInDebug(t *testing.T) {
	assert.Panics(t, func() {
		_, _ = Build(1, 0, []GlyphRun{{Text: "ab", Box: NewRect(20, 0, 0, 10)}})
	})
}
