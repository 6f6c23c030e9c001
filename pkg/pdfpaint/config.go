package pdfpaint

import (
	"github.com/rs/zerolog"
)

// Config holds user options for painting highlights into a PDF.
type Config struct {
	Debug     bool   `yaml:"debug"`      // Outline every highlight rect in red
	Force     bool   `yaml:"force"`      // Paint even if a highlight layer already exists
	LayerName string `yaml:"layer_name"` // Base name of the highlight layer (page number is appended)
	StartPage int    `yaml:"start_page"` // PDF page that source page 1 lands on
	BlendMode string `yaml:"blend_mode"` // PDF blend mode of the fills
	TextLayer bool   `yaml:"text_layer"` // Also draw an invisible text layer from hOCR pages
	DumpPDF   bool   `yaml:"dump_pdf"`   // Log the head of the input PDF for debugging

	Font FontConfig `yaml:"font"`

	// Logger receives warnings and debug output. Nil uses the package
	// component logger.
	Logger *zerolog.Logger `yaml:"-"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LayerName: "Highlights", // Will be formatted as "Highlights (Page X)" in the final PDF
		StartPage: 1,
		BlendMode: "Multiply",
		Font:      DefaultFont,
	}
}

// FontConfig contains font settings for the invisible text layer.
type FontConfig struct {
	Name        string  `yaml:"name"`         // Font name (e.g., "Helvetica")
	Style       string  `yaml:"style"`        // Font style ("", "B", "I", "BI")
	Size        float64 `yaml:"size"`         // Default font size
	AscentRatio float64 `yaml:"ascent_ratio"` // Vertical positioning ratio
}

// DefaultFont is Helvetica, which needs no embedding.
var DefaultFont = FontConfig{
	Name:        "Helvetica",
	Style:       "",
	Size:        10,
	AscentRatio: 0.718,
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.LayerName == "" {
		c.LayerName = d.LayerName
	}
	if c.StartPage == 0 {
		c.StartPage = d.StartPage
	}
	if c.BlendMode == "" {
		c.BlendMode = d.BlendMode
	}
	if c.Font.Name == "" {
		c.Font = d.Font
	}
	return c
}
