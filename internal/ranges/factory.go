package ranges

import (
	"github.com/google/uuid"

	"github.com/dshills/highlighter/internal/dom"
	"github.com/dshills/highlighter/internal/geom"
)

// Root is the container element the factory measures against.
type Root interface {
	// BoundingClientRect returns the container's border box in viewport
	// coordinates.
	BoundingClientRect() geom.Rect
	// BorderOffset returns the left and top border widths.
	BorderOffset() geom.Point
	// ScrollOffset returns the container's scroll position.
	ScrollOffset() geom.Point
	// ContentSize returns the scrollable content size.
	ContentSize() geom.Size
	// Resolve returns the text node at path.
	Resolve(path dom.NodePath) (*dom.Text, bool)
	// PathOf returns the path of a node inside the container.
	PathOf(t *dom.Text) (dom.NodePath, bool)
	// ClientRects returns the viewport rectangles covering a text span.
	ClientRects(start, end dom.Boundary) []geom.Rect
	// TextBetween returns the text of a span.
	TextBetween(start, end dom.Boundary) string
	// HasText reports whether a span covers at least one character.
	HasText(start, end dom.Boundary) bool
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithIDGenerator replaces the random UUID id generator.
func WithIDGenerator(fn func() string) FactoryOption {
	return func(f *Factory) {
		if fn != nil {
			f.newID = fn
		}
	}
}

// Factory is the only place that translates between selections, anchors
// and rectangles.
//
// Rectangles are returned in root coordinates: CSS pixels relative to the
// top-left of the container's padding box, with the scroll offset added, so
// they stay fixed relative to the content while it scrolls.
type Factory struct {
	root  Root
	newID func() string
}

// NewFactory creates a factory measuring against root.
func NewFactory(root Root, opts ...FactoryOption) *Factory {
	f := &Factory{
		root:  root,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateRange turns a selection into a range with a fresh id. It returns
// false for a missing or collapsed selection, one that covers no
// characters, or one whose ends are not inside the root.
func (f *Factory) CreateRange(sel *dom.Selection) (*Range, bool) {
	start, end, ok := f.bounds(sel)
	if !ok {
		return nil, false
	}
	sp, ok := f.root.PathOf(start.Node)
	if !ok {
		return nil, false
	}
	ep, ok := f.root.PathOf(end.Node)
	if !ok {
		return nil, false
	}
	return &Range{
		ID:    f.newID(),
		Text:  f.root.TextBetween(start, end),
		Start: Anchor{Path: sp, Offset: start.Offset},
		End:   Anchor{Path: ep, Offset: end.Offset},
	}, true
}

// CreateRects returns the rectangles covering r, one per line segment, in
// reading order. Anchors that no longer resolve, and text entirely outside
// the container's content box, produce an empty result.
func (f *Factory) CreateRects(r Range) []geom.Rect {
	start, ok := f.resolve(r.Start)
	if !ok {
		return nil
	}
	end, ok := f.resolve(r.End)
	if !ok {
		return nil
	}
	return f.toRoot(f.root.ClientRects(start, end))
}

// SelectionPosition returns the geometry of a live selection without
// creating a range. It returns false when there is no selection or none of
// it is visible.
func (f *Factory) SelectionPosition(sel *dom.Selection) (*Position, bool) {
	start, end, ok := f.bounds(sel)
	if !ok {
		return nil, false
	}
	rects := f.toRoot(f.root.ClientRects(start, end))
	if len(rects) == 0 {
		return nil, false
	}
	return &Position{
		Bounds:   geom.Bounds(rects),
		Rects:    rects,
		Backward: sel.Backward(),
	}, true
}

func (f *Factory) bounds(sel *dom.Selection) (start, end dom.Boundary, ok bool) {
	if sel == nil || sel.IsCollapsed() || !sel.Valid() {
		return dom.Boundary{}, dom.Boundary{}, false
	}
	start, end = sel.Ordered()
	if !f.root.HasText(start, end) {
		return dom.Boundary{}, dom.Boundary{}, false
	}
	return start, end, true
}

func (f *Factory) resolve(a Anchor) (dom.Boundary, bool) {
	node, ok := f.root.Resolve(a.Path)
	if !ok {
		return dom.Boundary{}, false
	}
	if a.Offset < 0 || a.Offset > node.Len() {
		return dom.Boundary{}, false
	}
	return dom.At(node, a.Offset), true
}

// toRoot converts viewport rects into root coordinates, drops empty ones,
// clips to the content box and stitches fragments sharing a line.
func (f *Factory) toRoot(client []geom.Rect) []geom.Rect {
	if len(client) == 0 {
		return nil
	}
	box := f.root.BoundingClientRect()
	border := f.root.BorderOffset()
	scroll := f.root.ScrollOffset()
	shift := geom.Pt(scroll.X-box.Left-border.X, scroll.Y-box.Top-border.Y)

	size := f.root.ContentSize()
	content := geom.RectFromSize(0, 0, size.Width, size.Height)

	rects := make([]geom.Rect, 0, len(client))
	for _, r := range client {
		r = r.Translate(shift)
		if r.IsEmpty() {
			continue
		}
		r = r.Intersection(content)
		if r.IsEmpty() {
			continue
		}
		rects = append(rects, r)
	}
	return Stitch(rects)
}

// Stitch merges rectangles that share a visual line and touch or overlap
// horizontally, so each line segment is covered by one rectangle. The
// result is in reading order.
func Stitch(rects []geom.Rect) []geom.Rect {
	if len(rects) == 0 {
		return nil
	}
	sorted := make([]geom.Rect, len(rects))
	copy(sorted, rects)
	geom.SortReadingOrder(sorted)

	result := make([]geom.Rect, 0, len(sorted))
	current := sorted[0]
	for _, r := range sorted[1:] {
		if current.SameLine(r) && r.Left <= current.Right+stitchTolerance {
			current = current.Union(r)
			continue
		}
		result = append(result, current)
		current = r
	}
	return append(result, current)
}

// stitchTolerance absorbs sub-pixel gaps between adjacent fragments.
const stitchTolerance = 0.5
