package tracker

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/gardar/ocrlens/pkg/resolve"
)

// Config holds the tracker settings.
type Config struct {
	// SelectionSync promotes the first highlight overlapping a text
	// selection or a page click to active. Nil means on.
	SelectionSync *bool `yaml:"selection_sync"`

	// CursorSync mirrors the text cursor onto the page view as a caret.
	// Nil means on.
	CursorSync *bool `yaml:"cursor_sync"`

	// DebounceWindowMS is the idle time before queued cursor and selection
	// events are flushed. Zero selects the default window and a negative
	// value flushes as soon as the scheduler runs.
	DebounceWindowMS int `yaml:"debounce_window_ms"`

	// LineClusteringToleranceFactor scales the visual line tolerance used
	// when resolving highlight boxes.
	LineClusteringToleranceFactor float64 `yaml:"line_clustering_tolerance_factor"`

	// MaxQueuedEvents bounds the debounce queue. Older events are dropped.
	MaxQueuedEvents int `yaml:"max_queued_events"`

	// OnStale is called once for every highlight removed by Refresh.
	OnStale func(StaleRangeError) `yaml:"-"`

	// Logger overrides the component logger.
	Logger *zerolog.Logger `yaml:"-"`
}

// DefaultConfig returns a default configuration. The zero Config behaves
// the same once passed to New.
func DefaultConfig() Config {
	return Config{
		DebounceWindowMS:              40,
		LineClusteringToleranceFactor: resolve.DefaultToleranceFactor,
		MaxQueuedEvents:               64,
	}
}

// DebounceWindow returns the debounce window as a duration.
func (c Config) DebounceWindow() time.Duration {
	return time.Duration(c.DebounceWindowMS) * time.Millisecond
}

// SyncSelection reports whether selection sync is on.
func (c Config) SyncSelection() bool { return c.SelectionSync == nil || *c.SelectionSync }

// SyncCursor reports whether cursor sync is on.
func (c Config) SyncCursor() bool { return c.CursorSync == nil || *c.CursorSync }

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.DebounceWindowMS == 0 {
		c.DebounceWindowMS = def.DebounceWindowMS
	}
	if c.DebounceWindowMS < 0 {
		c.DebounceWindowMS = 0
	}
	if c.LineClusteringToleranceFactor <= 0 {
		c.LineClusteringToleranceFactor = def.LineClusteringToleranceFactor
	}
	if c.MaxQueuedEvents <= 0 {
		c.MaxQueuedEvents = def.MaxQueuedEvents
	}
	return c
}
