package paint

import (
	"fmt"
	"strings"
)

// Style is the token that selects a highlight's fill.
type Style int

const (
	StyleActive Style = iota
	StyleInactive
	StyleCursor
	StyleError
	StyleSuccess
	StyleWarning
)

var styleNames = [...]string{
	StyleActive:   "active",
	StyleInactive: "inactive",
	StyleCursor:   "cursor",
	StyleError:    "error",
	StyleSuccess:  "success",
	StyleWarning:  "warning",
}

func (s Style) String() string {
	if s < 0 || int(s) >= len(styleNames) {
		return fmt.Sprintf("Style(%d)", int(s))
	}
	return styleNames[s]
}

// ParseStyle parses a style name as written in config files and flags.
func ParseStyle(name string) (Style, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range styleNames {
		if n == name {
			return Style(i), nil
		}
	}
	return 0, fmt.Errorf("unknown highlight style %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Style) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Style) UnmarshalText(text []byte) error {
	v, err := ParseStyle(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Color is an opaque RGB color.
type Color struct {
	R, G, B uint8
}

// Hex returns the color as #rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Fill is the flat fill used for every rectangle of a style. Highlights have
// no outline.
type Fill struct {
	Color   Color
	Opacity float64
}

// Active and inactive highlights share a hue and differ in opacity only.
var (
	highlightYellow = Color{R: 255, G: 212, B: 0}

	palette = [...]Fill{
		StyleActive:   {Color: highlightYellow, Opacity: 0.7},
		StyleInactive: {Color: highlightYellow, Opacity: 0.4},
		StyleCursor:   {Color: Color{R: 30, G: 110, B: 255}, Opacity: 0.9},
		StyleError:    {Color: Color{R: 220, G: 50, B: 47}, Opacity: 0.4},
		StyleSuccess:  {Color: Color{R: 40, G: 167, B: 69}, Opacity: 0.4},
		StyleWarning:  {Color: Color{R: 255, G: 140, B: 0}, Opacity: 0.4},
	}
)

// Fill returns the fixed fill of s. Unknown styles fall back to inactive.
func (s Style) Fill() Fill {
	if s < 0 || int(s) >= len(palette) {
		return palette[StyleInactive]
	}
	return palette[s]
}
