// Package highlighter paints highlight overlays over text in a container
// without touching the text itself.
//
// A Highlighter keeps the authoritative list of ranges in insertion order,
// which is also the stacking order: later ranges paint on top. Geometry is
// never stored; it is derived from each range's anchors whenever the range
// is painted and again after every container resize.
package highlighter

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dshills/highlighter/internal/config"
	"github.com/dshills/highlighter/internal/debounce"
	"github.com/dshills/highlighter/internal/dom"
	"github.com/dshills/highlighter/internal/geom"
	"github.com/dshills/highlighter/internal/logging"
	"github.com/dshills/highlighter/internal/notify"
	"github.com/dshills/highlighter/internal/ranges"
	"github.com/dshills/highlighter/internal/stage"
)

// Errors returned by New.
var (
	// ErrNilContainer indicates New was called without a container.
	ErrNilContainer = errors.New("highlighter: nil container")

	// ErrNilSurface indicates New was called without a surface.
	ErrNilSurface = errors.New("highlighter: nil surface")
)

// Container is the element highlights are drawn over.
type Container interface {
	ranges.Root

	// SetPosition applies a CSS position mode so the overlay can be placed
	// over the container.
	SetPosition(mode string)
	// ObserveResize registers fn for size changes and returns a function
	// that unregisters it.
	ObserveResize(fn func(geom.Size)) (stop func())
	// Selection returns the current user selection, or nil.
	Selection() *dom.Selection
}

// Option configures a Highlighter.
type Option func(*options)

type options struct {
	cfg         config.Config
	logger      *logging.Logger
	factoryOpts []ranges.FactoryOption
}

// WithConfig replaces the default configuration.
func WithConfig(cfg config.Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *logging.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithIDGenerator replaces the random ids given to ranges created from
// selections.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) {
		o.factoryOpts = append(o.factoryOpts, ranges.WithIDGenerator(fn))
	}
}

// Highlighter coordinates a range factory and a stage over one container.
//
// All methods are safe for concurrent use. The debounced resize handler
// takes the same lock as the public methods and runs to completion.
type Highlighter struct {
	mu sync.Mutex

	container Container
	cfg       config.Config
	logger    *logging.Logger

	factory *ranges.Factory
	stage   *stage.Stage
	ranges  []ranges.Range

	resize      *debounce.Debouncer
	stopObserve func()
	notifier    *notify.Notifier
	closed      bool
}

// New creates a highlighter painting onto surface over container. It
// applies the configured position mode to the container, sizes the surface
// to the container content and starts observing resizes.
func New(container Container, surface stage.Surface, opts ...Option) (*Highlighter, error) {
	if container == nil {
		return nil, ErrNilContainer
	}
	if surface == nil {
		return nil, ErrNilSurface
	}

	o := options{
		cfg:    config.Default(),
		logger: logging.Null(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("highlighter: invalid config: %w", err)
	}

	container.SetPosition(o.cfg.Position)

	h := &Highlighter{
		container: container,
		cfg:       o.cfg,
		logger:    o.logger.WithComponent("highlighter"),
		factory:   ranges.NewFactory(container, o.factoryOpts...),
		stage:     stage.New(container, surface, o.cfg.PixelRatio),
		notifier:  notify.New(),
	}
	h.resize = debounce.New(o.cfg.Delay, h.handleResize)
	h.stopObserve = container.ObserveResize(func(geom.Size) {
		h.resize.Trigger()
	})

	h.logger.Debug("attached (pixel ratio %g, delay %v)", o.cfg.PixelRatio, o.cfg.Delay)
	return h, nil
}

// Config returns the effective configuration.
func (h *Highlighter) Config() config.Config {
	return h.cfg
}

// SelectionRange turns a selection into a new range without adding it.
// A nil sel means the container's current selection. It returns false when
// there is no selection or it is collapsed.
func (h *Highlighter) SelectionRange(sel *dom.Selection) (*ranges.Range, bool) {
	if sel == nil {
		sel = h.container.Selection()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.factory.CreateRange(sel)
}

// SelectionPosition returns the geometry of a selection without creating a
// range. A nil sel means the container's current selection.
func (h *Highlighter) SelectionPosition(sel *dom.Selection) (*ranges.Position, bool) {
	if sel == nil {
		sel = h.container.Selection()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.factory.SelectionPosition(sel)
}

// AddRange paints r on top of the existing ranges and starts tracking it.
// It returns false, leaving the highlighter unchanged, if r has no id or
// reuses the id of a tracked range. The same holds for an invalid style
// override and for a range that resolves to no visible rectangles.
func (h *Highlighter) AddRange(r ranges.Range) bool {
	h.mu.Lock()
	change, ok := h.addLocked(r)
	h.mu.Unlock()

	if ok {
		h.notifier.Notify(change)
	}
	return ok
}

// Range returns a copy of the tracked range with the given id.
func (h *Highlighter) Range(id string) (ranges.Range, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if i := h.indexOf(id); i >= 0 {
		return h.ranges[i].Clone(), true
	}
	return ranges.Range{}, false
}

// DeleteRange stops tracking the range with the given id and erases it.
// It returns false if no such range exists.
func (h *Highlighter) DeleteRange(id string) bool {
	h.mu.Lock()
	change, ok := h.deleteLocked(id)
	h.mu.Unlock()

	if ok {
		h.notifier.Notify(change)
	}
	return ok
}

// UpdateRange replaces the range with r's id: it is deleted and r is added
// on top. If r resolves to no rectangles the range is simply removed.
func (h *Highlighter) UpdateRange(r ranges.Range) {
	h.mu.Lock()
	var changes []notify.Change
	if c, ok := h.deleteLocked(r.ID); ok {
		changes = append(changes, c)
	}
	if c, ok := h.addLocked(r); ok {
		changes = append(changes, c)
	}
	h.mu.Unlock()

	h.emit(changes)
}

// RangeRect returns the bounding box of r's rectangles, or the zero rect if
// r resolves to none. r need not be tracked.
func (h *Highlighter) RangeRect(r ranges.Range) geom.Rect {
	h.mu.Lock()
	defer h.mu.Unlock()
	return geom.Bounds(h.factory.CreateRects(r))
}

// Ranges returns a deep copy of the tracked ranges in stacking order.
func (h *Highlighter) Ranges() []ranges.Range {
	h.mu.Lock()
	defer h.mu.Unlock()
	return ranges.CloneAll(h.ranges)
}

// RenderRanges replaces every tracked range with rs, adding them in order.
// Ranges that resolve to no rectangles, or repeat an earlier id, are
// dropped.
func (h *Highlighter) RenderRanges(rs []ranges.Range) {
	rs = ranges.CloneAll(rs)

	h.mu.Lock()
	changes := []notify.Change{h.clearLocked()}
	changes = append(changes, h.renderLocked(rs)...)
	h.mu.Unlock()

	h.emit(changes)
}

// Clear removes every range and erases the surface.
func (h *Highlighter) Clear() {
	h.mu.Lock()
	change := h.clearLocked()
	h.mu.Unlock()

	h.notifier.Notify(change)
}

// Refresh re-derives all geometry now: the surface is resized to the
// container and every range is painted again. Use it after the document
// changes in ways the container does not report as a resize.
func (h *Highlighter) Refresh() {
	h.resize.Cancel()
	h.handleResize()
}

// RangeIDAt returns the id of the topmost range covering (x, y), in
// container content coordinates.
func (h *Highlighter) RangeIDAt(x, y float64) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stage.GroupIDAt(x, y)
}

// RangeIDsAt returns the ids of every range covering (x, y), bottom first.
func (h *Highlighter) RangeIDsAt(x, y float64) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stage.GroupIDsAt(x, y)
}

// Subscribe registers an observer for every change.
func (h *Highlighter) Subscribe(observer notify.Observer) *notify.Subscription {
	return h.notifier.Subscribe(observer)
}

// SubscribeRange registers an observer for changes to one range.
func (h *Highlighter) SubscribeRange(id string, observer notify.Observer) *notify.Subscription {
	return h.notifier.SubscribeRange(id, observer)
}

// Close stops observing the container and drops any pending resize. The
// highlighter keeps answering queries. Close is idempotent.
func (h *Highlighter) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	h.stopObserve()
	h.resize.Stop()
	h.notifier.Close()
	h.logger.Debug("detached")
	return nil
}

func (h *Highlighter) handleResize() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	current := h.ranges
	h.ranges = nil
	h.stage.UpdateStageSize()
	h.renderLocked(current)
	kept := len(h.ranges)
	size := h.container.ContentSize()
	h.mu.Unlock()

	h.logger.Debug("re-rendered %d of %d ranges at %gx%g", kept, len(current), size.Width, size.Height)
	h.notifier.Notify(notify.Change{Type: notify.ChangeResized, Size: size})
}

// renderLocked adds rs in order over the current state.
func (h *Highlighter) renderLocked(rs []ranges.Range) []notify.Change {
	var changes []notify.Change
	for _, r := range rs {
		if c, ok := h.addLocked(r); ok {
			changes = append(changes, c)
		}
	}
	return changes
}

func (h *Highlighter) addLocked(r ranges.Range) (notify.Change, bool) {
	if r.ID == "" {
		h.logger.Debug("rejected range without id")
		return notify.Change{}, false
	}
	if h.indexOf(r.ID) >= 0 {
		h.logger.WithField("id", r.ID).Debug("rejected duplicate id")
		return notify.Change{}, false
	}
	if err := r.Config.Validate(); err != nil {
		h.logger.WithField("id", r.ID).Debug("rejected style override: %v", err)
		return notify.Change{}, false
	}
	rects := h.factory.CreateRects(r)
	if len(rects) == 0 {
		h.logger.WithField("id", r.ID).Debug("rejected range with no visible rects")
		return notify.Change{}, false
	}

	h.ranges = append(h.ranges, r.Clone())
	h.stage.RenderRange(rects, r.ID, r.Config.Apply(h.cfg.Style))
	return notify.Change{Type: notify.ChangeAdded, ID: r.ID, Bounds: geom.Bounds(rects)}, true
}

func (h *Highlighter) deleteLocked(id string) (notify.Change, bool) {
	i := h.indexOf(id)
	if i < 0 {
		return notify.Change{}, false
	}
	h.ranges = append(h.ranges[:i], h.ranges[i+1:]...)
	h.stage.DeleteRange(id)
	return notify.Change{Type: notify.ChangeDeleted, ID: id}, true
}

func (h *Highlighter) clearLocked() notify.Change {
	h.ranges = nil
	h.stage.Clear()
	return notify.Change{Type: notify.ChangeCleared}
}

func (h *Highlighter) indexOf(id string) int {
	for i := range h.ranges {
		if h.ranges[i].ID == id {
			return i
		}
	}
	return -1
}

func (h *Highlighter) emit(changes []notify.Change) {
	for _, c := range changes {
		h.notifier.Notify(c)
	}
}
