// Package ranges converts between live selections, persisted highlight
// ranges and the screen rectangles that cover them.
package ranges

import (
	"github.com/dshills/highlighter/internal/dom"
	"github.com/dshills/highlighter/internal/geom"
	"github.com/dshills/highlighter/internal/style"
)

// Anchor is a re-resolvable position in the document: the path to a text
// node and a rune offset inside it.
type Anchor struct {
	Path   dom.NodePath
	Offset int
}

// Equal returns true if both anchors point at the same position.
func (a Anchor) Equal(other Anchor) bool {
	return a.Offset == other.Offset && a.Path.Equal(other.Path)
}

// Range is a highlight: an id, the anchored extent of text it covers and
// optional style overrides.
type Range struct {
	// ID identifies the range within one highlighter.
	ID string
	// Text is the covered text at the time the range was created.
	Text string
	// Start and End delimit the range in document order.
	Start Anchor
	End   Anchor
	// Config overrides the highlighter's default style for this range.
	Config style.Override
}

// Equal returns true if two ranges are deeply equal.
func (r Range) Equal(other Range) bool {
	return r.ID == other.ID &&
		r.Text == other.Text &&
		r.Start.Equal(other.Start) &&
		r.End.Equal(other.End) &&
		r.Config.Equal(other.Config)
}

// Clone returns a deep copy of the range.
func (r Range) Clone() Range {
	return Range{
		ID:     r.ID,
		Text:   r.Text,
		Start:  Anchor{Path: r.Start.Path.Clone(), Offset: r.Start.Offset},
		End:    Anchor{Path: r.End.Path.Clone(), Offset: r.End.Offset},
		Config: r.Config.Clone(),
	}
}

// CloneAll deep-copies a slice of ranges.
func CloneAll(rs []Range) []Range {
	out := make([]Range, len(rs))
	for i, r := range rs {
		out[i] = r.Clone()
	}
	return out
}

// Position is the geometry of a live selection, without an id.
type Position struct {
	// Bounds is the union of Rects.
	Bounds geom.Rect
	// Rects are the per-line rectangles, in root coordinates.
	Rects []geom.Rect
	// Backward is true when the selection was made from end to start.
	Backward bool
}
