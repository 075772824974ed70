package dom

import (
	"fmt"
	"strings"
	"sync"

	"github.com/dshills/highlighter/internal/geom"
)

// Insets are per-side distances, used for borders and padding.
type Insets struct {
	Top, Right, Bottom, Left float64
}

// Uniform returns insets that are v on every side.
func Uniform(v float64) Insets {
	return Insets{Top: v, Right: v, Bottom: v, Left: v}
}

// Document is a scrollable container holding laid-out text. It plays the
// part of the root element a highlighter is attached to: it reports its
// bounding box, border and scroll offsets, resolves node paths, answers
// client-rect queries for text spans and notifies observers when resized.
//
// Client rects are in viewport coordinates: the container's border box
// starts at Origin, content is inset by the border and padding and shifted
// up/left by the scroll offset.
type Document struct {
	mu sync.RWMutex

	blocks   []*Block
	measurer Measurer

	origin  geom.Point
	width   float64 // client (padding box) width
	height  float64 // client (padding box) height
	border  Insets
	padding Insets
	gap     float64
	scroll  geom.Point

	position  string
	selection *Selection

	layout *docLayout

	observers    map[uint64]func(geom.Size)
	nextObserver uint64
}

// Option configures a Document.
type Option func(*Document)

// WithMeasurer sets the text measurer. The default is a 1x1 cell grid.
func WithMeasurer(m Measurer) Option {
	return func(d *Document) {
		if m != nil {
			d.measurer = m
		}
	}
}

// WithOrigin places the container's border box in the viewport.
func WithOrigin(x, y float64) Option {
	return func(d *Document) {
		d.origin = geom.Pt(x, y)
	}
}

// WithBorder sets the container border widths.
func WithBorder(b Insets) Option {
	return func(d *Document) {
		d.border = b
	}
}

// WithPadding sets the container padding.
func WithPadding(p Insets) Option {
	return func(d *Document) {
		d.padding = p
	}
}

// WithBlockGap sets the vertical space between blocks.
func WithBlockGap(gap float64) Option {
	return func(d *Document) {
		d.gap = max(gap, 0)
	}
}

// NewDocument creates an empty document whose client box is width x height.
func NewDocument(width, height float64, opts ...Option) *Document {
	d := &Document{
		measurer:  NewCellMeasurer(1, 1),
		width:     max(width, 0),
		height:    max(height, 0),
		position:  "static",
		observers: make(map[uint64]func(geom.Size)),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// FromText creates a document from plain text. Paragraphs are separated by
// blank lines; single newlines stay inside a paragraph as hard breaks.
func FromText(text string, width, height float64, opts ...Option) *Document {
	d := NewDocument(width, height, opts...)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.Trim(para, "\n")
		if para == "" {
			continue
		}
		d.AppendBlock(para)
	}
	return d
}

// AppendBlock adds a paragraph made of the given text runs.
func (d *Document) AppendBlock(runs ...string) *Block {
	d.mu.Lock()
	defer d.mu.Unlock()

	b := &Block{doc: d}
	for _, r := range runs {
		b.children = append(b.children, &Text{block: b, data: r})
	}
	d.blocks = append(d.blocks, b)
	d.layout = nil
	return b
}

// RemoveBlock detaches the block at index i. Nodes inside it stop resolving.
func (d *Document) RemoveBlock(i int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if i < 0 || i >= len(d.blocks) {
		return fmt.Errorf("block %d: %w", i, ErrOutOfRange)
	}
	d.blocks[i].doc = nil
	d.blocks = append(d.blocks[:i], d.blocks[i+1:]...)
	d.layout = nil
	return nil
}

// SetText replaces the content of the node at path.
func (d *Document) SetText(path NodePath, data string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, ok := d.resolve(path)
	if !ok {
		return fmt.Errorf("node %s: %w", path, ErrOutOfRange)
	}
	t.data = data
	d.layout = nil
	return nil
}

// Blocks returns the document's blocks.
func (d *Document) Blocks() []*Block {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*Block, len(d.blocks))
	copy(out, d.blocks)
	return out
}

// Node returns the text node at block bi, run ti.
func (d *Document) Node(bi, ti int) *Text {
	t, _ := d.Resolve(NodePath{bi, ti})
	return t
}

// Resolve returns the text node at path.
func (d *Document) Resolve(path NodePath) (*Text, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.resolve(path)
}

func (d *Document) resolve(path NodePath) (*Text, bool) {
	if len(path) != 2 {
		return nil, false
	}
	bi, ti := path[0], path[1]
	if bi < 0 || bi >= len(d.blocks) {
		return nil, false
	}
	b := d.blocks[bi]
	if ti < 0 || ti >= len(b.children) {
		return nil, false
	}
	return b.children[ti], true
}

// PathOf returns the path of t if it belongs to this document.
func (d *Document) PathOf(t *Text) (NodePath, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if t == nil || t.block == nil || t.block.doc != d {
		return nil, false
	}
	return t.Path()
}

// BoundingClientRect returns the container's border box in viewport
// coordinates.
func (d *Document) BoundingClientRect() geom.Rect {
	d.mu.RLock()
	defer d.mu.RUnlock()

	w := d.border.Left + d.width + d.border.Right
	h := d.border.Top + d.height + d.border.Bottom
	return geom.RectFromSize(d.origin.Y, d.origin.X, w, h)
}

// BorderOffset returns the left and top border widths.
func (d *Document) BorderOffset() geom.Point {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return geom.Pt(d.border.Left, d.border.Top)
}

// ScrollOffset returns the current scroll position.
func (d *Document) ScrollOffset() geom.Point {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.scroll
}

// ClientSize returns the size of the padding box.
func (d *Document) ClientSize() geom.Size {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return geom.Size{Width: d.width, Height: d.height}
}

// ContentSize returns the scrollable size: the client size, grown to fit
// the laid-out text plus padding.
func (d *Document) ContentSize() geom.Size {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.contentSize()
}

func (d *Document) contentSize() geom.Size {
	dl := d.ensureLayout()
	return geom.Size{
		Width:  max(d.width, d.padding.Left+dl.width+d.padding.Right),
		Height: max(d.height, d.padding.Top+dl.height+d.padding.Bottom),
	}
}

// SetPosition records the CSS position mode applied to the container.
func (d *Document) SetPosition(mode string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.position = mode
}

// Position returns the container's CSS position mode.
func (d *Document) Position() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.position
}

// MoveTo places the container's border box at (x, y) in the viewport.
func (d *Document) MoveTo(x, y float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.origin = geom.Pt(x, y)
}

// ScrollTo scrolls the content, clamped to the scrollable range.
func (d *Document) ScrollTo(x, y float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	content := d.contentSize()
	d.scroll = geom.Pt(
		clamp(x, 0, content.Width-d.width),
		clamp(y, 0, content.Height-d.height),
	)
}

// Resize changes the client box and notifies resize observers.
func (d *Document) Resize(width, height float64) {
	d.mu.Lock()
	width, height = max(width, 0), max(height, 0)
	if width == d.width && height == d.height {
		d.mu.Unlock()
		return
	}
	d.width = width
	d.height = height
	d.layout = nil
	content := d.contentSize()
	d.scroll = geom.Pt(
		clamp(d.scroll.X, 0, content.Width-d.width),
		clamp(d.scroll.Y, 0, content.Height-d.height),
	)
	size := geom.Size{Width: width, Height: height}
	observers := make([]func(geom.Size), 0, len(d.observers))
	for _, fn := range d.observers {
		observers = append(observers, fn)
	}
	d.mu.Unlock()

	for _, fn := range observers {
		fn(size)
	}
}

// ObserveResize registers fn to be called after every size change. The
// returned function removes the observer.
func (d *Document) ObserveResize(fn func(geom.Size)) (stop func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.nextObserver
	d.nextObserver++
	d.observers[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			delete(d.observers, id)
		})
	}
}

// Select sets the document's current selection.
func (d *Document) Select(anchor, focus Boundary) *Selection {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.selection = NewSelection(anchor, focus)
	return d.selection
}

// ClearSelection removes the current selection.
func (d *Document) ClearSelection() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.selection = nil
}

// Selection returns the current selection, or nil if there is none.
func (d *Document) Selection() *Selection {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.selection
}

// ClientRects returns one rectangle per text node fragment per visual line
// between start and end, in viewport coordinates. Boundaries that do not
// belong to this document yield no rects.
func (d *Document) ClientRects(start, end Boundary) []geom.Rect {
	d.mu.Lock()
	defer d.mu.Unlock()

	spans, ok := d.spans(start, end)
	if !ok {
		return nil
	}
	dl := d.ensureLayout()
	offset := d.contentOrigin()

	var rects []geom.Rect
	for _, s := range spans {
		bl := &dl.blocks[s.block]
		base := bl.starts[s.node]
		for _, r := range bl.spanRects(base+s.from, base+s.to) {
			rects = append(rects, r.Translate(offset))
		}
	}
	return rects
}

// TextBetween returns the text between two boundaries. Every block
// boundary crossed contributes a newline, even when no text of the block
// before or after it is covered.
func (d *Document) TextBetween(start, end Boundary) string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	spans, ok := d.spans(start, end)
	if !ok {
		return ""
	}
	first, last := d.blockRange(start, end)
	var sb strings.Builder
	i := 0
	for bi := first; bi <= last; bi++ {
		if bi > first {
			sb.WriteByte('\n')
		}
		for ; i < len(spans) && spans[i].block == bi; i++ {
			s := spans[i]
			runes := []rune(d.blocks[s.block].children[s.node].data)
			sb.WriteString(string(runes[s.from:s.to]))
		}
	}
	return sb.String()
}

// HasText reports whether at least one character lies between two
// boundaries. Paragraph breaks alone do not count.
func (d *Document) HasText(start, end Boundary) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	spans, ok := d.spans(start, end)
	return ok && len(spans) > 0
}

// BoundaryAt returns the caret position closest to the viewport point p.
func (d *Document) BoundaryAt(p geom.Point) (Boundary, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.blocks) == 0 {
		return Boundary{}, false
	}
	dl := d.ensureLayout()
	local := p.Sub(d.contentOrigin())

	bi := len(dl.blocks) - 1
	for i := range dl.blocks {
		if local.Y < dl.blocks[i].bottom {
			bi = i
			break
		}
	}
	b := d.blocks[bi]
	if len(b.children) == 0 {
		return Boundary{}, false
	}
	bl := &dl.blocks[bi]
	lengths := make([]int, len(b.children))
	for i, c := range b.children {
		lengths[i] = c.Len()
	}
	ni, off := bl.nodeAt(bl.offsetAt(local), lengths)
	return At(b.children[ni], off), true
}

// BoundaryAtOffset maps a rune offset into the document's text, as returned
// by TextBetween over the whole document, to a boundary. Each block
// boundary counts as one rune.
func (d *Document) BoundaryAtOffset(offset int) (Boundary, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if offset < 0 {
		return Boundary{}, false
	}
	for bi, b := range d.blocks {
		if bi > 0 {
			offset--
		}
		for _, t := range b.children {
			if offset <= t.Len() {
				return At(t, offset), offset >= 0
			}
			offset -= t.Len()
		}
	}
	return Boundary{}, false
}

// Glyph is a laid-out grapheme cluster, positioned in content coordinates
// (relative to the top-left of the scrollable content, scroll not applied).
type Glyph struct {
	Cluster string
	Rect    geom.Rect
}

// Glyphs calls fn for every visible grapheme cluster in document order.
func (d *Document) Glyphs(fn func(Glyph)) {
	d.mu.Lock()
	dl := d.ensureLayout()
	pad := geom.Pt(d.padding.Left, d.padding.Top)
	var glyphs []Glyph
	for _, bl := range dl.blocks {
		for _, g := range bl.glyphs {
			if g.cluster == "" || g.brk {
				continue
			}
			lb := bl.lines[g.line]
			r := geom.Rect{Top: lb.top, Bottom: lb.bottom, Left: g.x0, Right: g.x1}
			glyphs = append(glyphs, Glyph{Cluster: g.cluster, Rect: r.Translate(pad)})
		}
	}
	d.mu.Unlock()

	for _, g := range glyphs {
		fn(g)
	}
}

// span is the part of one text node covered by a range.
type span struct {
	block, node int
	from, to    int
}

// spans splits [start, end) into per-node spans in document order.
// Caller must hold the lock.
func (d *Document) spans(start, end Boundary) ([]span, bool) {
	sp, ok := d.pathOf(start.Node)
	if !ok {
		return nil, false
	}
	ep, ok := d.pathOf(end.Node)
	if !ok {
		return nil, false
	}
	if start.Offset < 0 || start.Offset > start.Node.Len() ||
		end.Offset < 0 || end.Offset > end.Node.Len() {
		return nil, false
	}
	if c := sp.Compare(ep); c > 0 || (c == 0 && start.Offset > end.Offset) {
		start, end = end, start
		sp, ep = ep, sp
	}

	var spans []span
	for bi := sp[0]; bi <= ep[0]; bi++ {
		b := d.blocks[bi]
		for ti, t := range b.children {
			p := NodePath{bi, ti}
			if p.Compare(sp) < 0 || p.Compare(ep) > 0 {
				continue
			}
			s := span{block: bi, node: ti, from: 0, to: t.Len()}
			if p.Equal(sp) {
				s.from = start.Offset
			}
			if p.Equal(ep) {
				s.to = end.Offset
			}
			if s.to > s.from {
				spans = append(spans, s)
			}
		}
	}
	return spans, true
}

// blockRange returns the first and last block indices spanned by two
// attached boundaries, in document order. Caller must hold the lock.
func (d *Document) blockRange(start, end Boundary) (first, last int) {
	sp, _ := d.pathOf(start.Node)
	ep, _ := d.pathOf(end.Node)
	return min(sp[0], ep[0]), max(sp[0], ep[0])
}

func (d *Document) pathOf(t *Text) (NodePath, bool) {
	if t == nil || t.block == nil || t.block.doc != d {
		return nil, false
	}
	return t.Path()
}

// contentOrigin is the viewport position of layout coordinate (0, 0).
func (d *Document) contentOrigin() geom.Point {
	return geom.Pt(
		d.origin.X+d.border.Left+d.padding.Left-d.scroll.X,
		d.origin.Y+d.border.Top+d.padding.Top-d.scroll.Y,
	)
}

// ensureLayout lays out the document if needed. Caller must hold the write
// lock.
func (d *Document) ensureLayout() *docLayout {
	if d.layout == nil {
		avail := max(d.width-d.padding.Left-d.padding.Right, 0)
		d.layout = layoutDocument(d.blocks, d.measurer, avail, d.gap)
	}
	return d.layout
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	return max(lo, min(v, hi))
}
