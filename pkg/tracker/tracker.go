// Package tracker keeps the registry of live highlights, drives their paint
// plans into the page and text views, and keeps cursor and selection state
// of the two views in sync.
//
// A Tracker is not safe for concurrent use. It is meant to be called from
// the host's event loop, and its Scheduler must deliver callbacks on that
// same loop.
package tracker

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/gardar/ocrlens/internal/logging"
	"github.com/gardar/ocrlens/pkg/coordmap"
	"github.com/gardar/ocrlens/pkg/paint"
	"github.com/gardar/ocrlens/pkg/resolve"
)

// CursorID is the plan id under which the mirrored text cursor is applied
// to the page view.
const CursorID = "cursor"

// Geometry is the document geometry the tracker resolves against.
// *coordmap.Document implements it.
type Geometry interface {
	resolve.Maps
	Len() int
	PageOf(offset int) (int, bool)
}

// PageView is the page rendering surface. It receives paint plans keyed by
// page and highlight id; Remove is always called with the plan previously
// applied under that id.
type PageView interface {
	Apply(page int, id string, plan *paint.Plan)
	Remove(page int, id string, plan *paint.Plan)
}

// TextView is the text editing surface.
type TextView interface {
	Apply(id string, plan *paint.TextPlan)
	Remove(id string, plan *paint.TextPlan)
	SetCursor(offset int)
}

type eventKind int

const (
	cursorEvent eventKind = iota
	selectionEvent
)

type event struct {
	kind       eventKind
	start, end int
}

// Tracker owns the highlights of one document.
type Tracker struct {
	cfg      Config
	geo      Geometry
	resolver *resolve.Resolver
	renderer *paint.Renderer
	pages    PageView
	text     TextView
	sched    Scheduler
	log      zerolog.Logger
	now      func() time.Time

	highlights map[string]*entry
	nextID     int

	queue []event
	timer Timer
	gen   int

	cursor     int
	cursorSet  bool
	selection  coordmap.Span
	cursorPlan *paint.Plan
	cursorPage int
}

// New creates a tracker. A nil scheduler leaves queued cursor and selection
// events in place until Flush is called.
func New(geo Geometry, pages PageView, text TextView, sched Scheduler, cfg Config) (*Tracker, error) {
	if pages == nil {
		return nil, ErrNoPageView
	}
	if text == nil {
		return nil, ErrNoTextView
	}
	cfg = cfg.withDefaults()

	log := logging.Component("tracker")
	if cfg.Logger != nil {
		log = *cfg.Logger
	}

	return &Tracker{
		cfg:        cfg,
		geo:        geo,
		resolver:   resolve.New(geo, resolve.Options{ToleranceFactor: cfg.LineClusteringToleranceFactor}),
		renderer:   paint.NewRenderer(),
		pages:      pages,
		text:       text,
		sched:      sched,
		log:        log,
		now:        time.Now,
		highlights: make(map[string]*entry),
	}, nil
}

// Resolver returns the resolver the tracker uses.
func (t *Tracker) Resolver() *resolve.Resolver { return t.resolver }

// Renderer returns the renderer the tracker uses.
func (t *Tracker) Renderer() *paint.Renderer { return t.renderer }

// Create registers a highlight for [start, end) on page and paints it.
// Offsets are clamped to the page and a reversed range is swapped.
// A range without geometry yields a pending highlight that materializes on Refresh.
// Creating an active highlight demotes the page's current active highlight
// first.
func (t *Tracker) Create(start, end, page int, style paint.Style) (string, error) {
	docLen := t.geo.Len()
	if docLen < 0 || page < 1 {
		return "", fmt.Errorf("%w: page %d, document length %d", ErrInvalidRange, page, docLen)
	}
	if start > end {
		start, end = end, start
	}
	// Pages without a map have no known length yet, so their ranges are
	// only clamped at the page base.
	base := t.geo.Base(page)
	if m, ok := t.geo.Map(page); ok {
		start, end = m.Clamp(start, end)
	} else {
		start, end = max(start, base), max(end, base)
	}

	t.nextID++
	e := &entry{
		base: base,
		Highlight: Highlight{
			ID:        fmt.Sprintf("hl-%d", t.nextID),
			Start:     start,
			End:       end,
			Page:      page,
			Style:     style,
			Boxes:     t.resolver.Boxes(start, end, page),
			CreatedAt: t.now(),
		},
		seq: t.nextID,
	}

	if style == paint.StyleActive {
		t.demote(page, e.ID)
	}
	t.highlights[e.ID] = e
	t.paint(e)

	t.log.Debug().
		Str("id", e.ID).
		Int("page", page).
		Int("start", start).
		Int("end", end).
		Stringer("style", style).
		Stringer("state", e.state()).
		Int("boxes", len(e.Boxes)).
		Msg("highlight created")
	return e.ID, nil
}

// Refresh re-resolves every highlight on page against the page's current
// map. Highlights follow the page when its base moved because an earlier
// page changed length, so callers refresh every page Document.Rebuild
// reports. Highlights whose range no longer fits the page are removed and
// reported. Without a map the page's highlights fall back to pending.
func (t *Tracker) Refresh(page int) []StaleRangeError {
	m, hasMap := t.geo.Map(page)
	base := t.geo.Base(page)

	var stale []StaleRangeError
	for _, e := range t.onPage(page) {
		if shift := base - e.base; shift != 0 {
			t.erase(e)
			e.Start += shift
			e.End += shift
			e.base = base
		}

		switch {
		case !hasMap:
			t.erase(e)
			e.Boxes = nil
		case e.Start < m.Base() || e.End > m.End():
			t.erase(e)
			delete(t.highlights, e.ID)

			h := e.snapshot()
			h.State = StateRemoved
			err := StaleRangeError{Highlight: h, PageStart: m.Base(), PageEnd: m.End()}
			stale = append(stale, err)
			t.log.Warn().Err(err).Str("id", e.ID).Msg("stale highlight removed")
			if t.cfg.OnStale != nil {
				t.cfg.OnStale(err)
			}
		default:
			t.erase(e)
			e.Boxes = t.resolver.Boxes(e.Start, e.End, page)
			t.paint(e)
		}
	}

	if t.cfg.SyncCursor() && t.cursorSet {
		t.mirrorCursor()
	}

	t.log.Debug().Int("page", page).Bool("map", hasMap).Int("stale", len(stale)).Msg("page refreshed")
	return stale
}

// SetActive makes id the active highlight of its page. The previous active
// highlight is demoted to inactive before id is promoted.
func (t *Tracker) SetActive(id string) error {
	e, ok := t.highlights[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHighlight, id)
	}
	t.activate(e)
	return nil
}

// Remove erases a highlight from both views and drops it from the registry.
// Unknown ids are ignored.
func (t *Tracker) Remove(id string) {
	e, ok := t.highlights[id]
	if !ok {
		return
	}
	t.erase(e)
	delete(t.highlights, id)
	t.log.Debug().Str("id", id).Msg("highlight removed")
}

// TrackCursor queues a text cursor move.
func (t *Tracker) TrackCursor(offset int) {
	t.enqueue(event{kind: cursorEvent, start: offset, end: offset})
}

// TrackSelection queues a text selection change.
func (t *Tracker) TrackSelection(start, end int) {
	t.enqueue(event{kind: selectionEvent, start: start, end: end})
}

// Pending returns the number of queued cursor and selection events.
func (t *Tracker) Pending() int { return len(t.queue) }

// Flush applies the latest queued cursor position and then the latest
// queued selection. Intermediate events are discarded.
func (t *Tracker) Flush() {
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	if len(t.queue) == 0 {
		return
	}

	var cursor, selection *event
	for i := range t.queue {
		ev := &t.queue[i]
		switch ev.kind {
		case cursorEvent:
			cursor = ev
		case selectionEvent:
			selection = ev
		}
	}
	dropped := len(t.queue)
	t.queue = nil

	if cursor != nil {
		t.setCursor(cursor.start)
	}
	if selection != nil {
		t.setSelection(selection.start, selection.end)
	}
	t.log.Debug().Int("events", dropped).Msg("flushed view events")
}

// Click handles a click on the page view: the cursor moves to the resolved
// offset and the text view is told about it. With selection sync the
// highlight under the clicked glyph becomes active. It returns the offset.
func (t *Tracker) Click(x, y float64, page int) int {
	offset, ok := t.resolver.Offset(x, y, page)
	t.setCursor(offset)
	t.text.SetCursor(t.cursor)

	if !ok || !t.cfg.SyncSelection() {
		return t.cursor
	}
	glyph, ok := t.resolver.Glyph(x, y, page)
	if !ok {
		return t.cursor
	}
	for _, e := range t.onPage(page) {
		if e.Contains(glyph) {
			t.activate(e)
			break
		}
	}
	return t.cursor
}

// Cursor returns the last flushed cursor offset.
func (t *Tracker) Cursor() int { return t.cursor }

// Selection returns the last flushed selection.
func (t *Tracker) Selection() (int, int) { return t.selection.Start, t.selection.End }

// Get returns a snapshot of a highlight.
func (t *Tracker) Get(id string) (Highlight, bool) {
	e, ok := t.highlights[id]
	if !ok {
		return Highlight{}, false
	}
	return e.snapshot(), true
}

// Highlights returns the highlights of page ordered by start offset and
// creation order. A page of 0 returns the highlights of all pages ordered by
// page first.
func (t *Tracker) Highlights(page int) []Highlight {
	var entries []*entry
	if page == 0 {
		entries = t.sorted(func(*entry) bool { return true })
	} else {
		entries = t.onPage(page)
	}
	out := make([]Highlight, len(entries))
	for i, e := range entries {
		out[i] = e.snapshot()
	}
	return out
}

// Active returns the active highlight of page.
func (t *Tracker) Active(page int) (Highlight, bool) {
	for _, e := range t.onPage(page) {
		if e.Style == paint.StyleActive {
			return e.snapshot(), true
		}
	}
	return Highlight{}, false
}

func (t *Tracker) enqueue(ev event) {
	t.queue = append(t.queue, ev)
	if over := len(t.queue) - t.cfg.MaxQueuedEvents; over > 0 {
		t.queue = append(t.queue[:0], t.queue[over:]...)
	}
	if t.sched == nil {
		return
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	// A timer that already fired may have posted its callback anyway. Only
	// the callback of the latest window flushes.
	t.gen++
	gen := t.gen
	t.timer = t.sched.AfterIdle(t.cfg.DebounceWindow(), func() {
		if gen == t.gen {
			t.Flush()
		}
	})
}

func (t *Tracker) setCursor(offset int) {
	t.cursor = clamp(offset, 0, max(t.geo.Len(), 0))
	t.cursorSet = true
	if t.cfg.SyncCursor() {
		t.mirrorCursor()
	}
}

func (t *Tracker) setSelection(start, end int) {
	if start > end {
		start, end = end, start
	}
	docLen := max(t.geo.Len(), 0)
	t.selection = coordmap.Span{Start: clamp(start, 0, docLen), End: clamp(end, 0, docLen)}
	if !t.cfg.SyncSelection() {
		return
	}
	for _, e := range t.sorted(func(*entry) bool { return true }) {
		if e.Overlaps(t.selection.Start, t.selection.End) {
			t.activate(e)
			return
		}
	}
}

// mirrorCursor replaces the caret plan on the page view.
func (t *Tracker) mirrorCursor() {
	if t.cursorPlan != nil {
		t.pages.Remove(t.cursorPage, CursorID, t.cursorPlan)
		t.renderer.Erase(t.cursorPlan)
		t.cursorPlan = nil
	}

	page, ok := t.geo.PageOf(t.cursor)
	if !ok && t.cursor > 0 {
		page, ok = t.geo.PageOf(t.cursor - 1)
	}
	if !ok {
		return
	}
	caret, ok := t.resolver.Caret(t.cursor, page)
	if !ok {
		return
	}
	t.cursorPage = page
	t.cursorPlan = t.renderer.Plan(page, []resolve.Box{caret}, paint.StyleCursor)
	if t.cursorPlan != nil {
		t.pages.Apply(page, CursorID, t.cursorPlan)
	}
}

// activate demotes the current active highlight of e's page and promotes e.
func (t *Tracker) activate(e *entry) {
	if e.Style == paint.StyleActive {
		return
	}
	t.demote(e.Page, e.ID)
	t.restyle(e, paint.StyleActive)
}

// demote turns every active highlight on page other than keep inactive.
func (t *Tracker) demote(page int, keep string) {
	for _, e := range t.onPage(page) {
		if e.ID != keep && e.Style == paint.StyleActive {
			t.restyle(e, paint.StyleInactive)
		}
	}
}

func (t *Tracker) restyle(e *entry, style paint.Style) {
	from := e.state()
	t.erase(e)
	e.Style = style
	t.paint(e)
	t.log.Debug().Str("id", e.ID).Stringer("from", from).Stringer("to", e.state()).Msg("highlight restyled")
}

// paint builds plans for e's cached boxes and hands them to the views.
// Pending highlights paint nothing.
func (t *Tracker) paint(e *entry) {
	if len(e.Boxes) == 0 {
		return
	}
	e.plan = t.renderer.Plan(e.Page, e.Boxes, e.Style)
	if e.plan != nil {
		t.pages.Apply(e.Page, e.ID, e.plan)
	}
	e.text = t.renderer.TextPlan(e.Start, e.End, e.Style)
	if e.text != nil {
		t.text.Apply(e.ID, e.text)
	}
}

// erase takes e's plans back from the views.
func (t *Tracker) erase(e *entry) {
	if e.plan != nil {
		t.pages.Remove(e.Page, e.ID, e.plan)
		t.renderer.Erase(e.plan)
		e.plan = nil
	}
	if e.text != nil {
		t.text.Remove(e.ID, e.text)
		t.renderer.EraseText(e.text)
		e.text = nil
	}
}

func (t *Tracker) onPage(page int) []*entry {
	return t.sorted(func(e *entry) bool { return e.Page == page })
}

func (t *Tracker) sorted(keep func(*entry) bool) []*entry {
	var out []*entry
	for _, e := range t.highlights {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Page != b.Page {
			return a.Page < b.Page
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.seq < b.seq
	})
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
