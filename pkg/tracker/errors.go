package tracker

import (
	"errors"
	"fmt"
)

var (
	// ErrNoPageView is returned by New when no page view is given.
	ErrNoPageView = errors.New("tracker: page view is required")

	// ErrNoTextView is returned by New when no text view is given.
	ErrNoTextView = errors.New("tracker: text view is required")

	// ErrInvalidRange is returned when a range cannot be clamped into the
	// document, which only happens with a negative document length or an
	// invalid page number.
	ErrInvalidRange = errors.New("tracker: invalid range")

	// ErrUnknownHighlight is returned by SetActive for ids not in the registry.
	ErrUnknownHighlight = errors.New("tracker: unknown highlight")
)

// StaleRangeError reports a highlight that was removed because its range no
// longer fits the rebuilt page. It is delivered through Config.OnStale and
// the result of Refresh, never returned as a failure.
type StaleRangeError struct {
	Highlight Highlight
	PageStart int // first offset of the rebuilt page
	PageEnd   int // one past the last offset of the rebuilt page
}

func (e StaleRangeError) Error() string {
	return fmt.Sprintf("highlight %s range [%d, %d) is outside page %d range [%d, %d)",
		e.Highlight.ID, e.Highlight.Start, e.Highlight.End, e.Highlight.Page, e.PageStart, e.PageEnd)
}
