package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gardar/ocrlens/pkg/gdocai"
	"github.com/gardar/ocrlens/pkg/pdfpaint"
	"github.com/gardar/ocrlens/pkg/pdftext"
	"github.com/gardar/ocrlens/pkg/tracker"
)

// fileConfig is the YAML configuration file:
//
//	tracker:
//	  selection_sync: true
//	  cursor_sync: true
//	  debounce_window_ms: 40
//	  line_clustering_tolerance_factor: 0.5
//	overlay:
//	  layer_name: Highlights
//	  text_layer: true
//	pdf_text:
//	  word_gap: 0.2
//	document_ai:
//	  project_id: "your-gcp-project-id"
//	  location: "us"
//	  processor_id: "your-processor-id"
type fileConfig struct {
	Tracker    tracker.Config  `yaml:"tracker"`
	Overlay    pdfpaint.Config `yaml:"overlay"`
	PDFText    pdftext.Options `yaml:"pdf_text"`
	DocumentAI gdocai.Config   `yaml:"document_ai"`
}

func defaultFileConfig() fileConfig {
	return fileConfig{
		Tracker: tracker.DefaultConfig(),
		Overlay: pdfpaint.DefaultConfig(),
		PDFText: pdftext.DefaultOptions(),
	}
}

// loadConfig reads a YAML file over the defaults. A missing file is not an
// error unless required is set.
func loadConfig(path string, required bool) (fileConfig, error) {
	cfg := defaultFileConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}
