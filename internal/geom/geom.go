// Package geom provides the rectangle and point types shared by the
// highlighter subsystem.
//
// All coordinates are float64 CSS pixels unless stated otherwise. A Rect is
// half-open: it contains points with Left <= X < Right and Top <= Y < Bottom.
package geom

import (
	"fmt"
	"math"
	"sort"
)

// Point is a position in a 2D coordinate space.
type Point struct {
	X float64
	Y float64
}

// Pt creates a point.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns p offset by other.
func (p Point) Add(other Point) Point {
	return Point{X: p.X + other.X, Y: p.Y + other.Y}
}

// Sub returns p minus other.
func (p Point) Sub(other Point) Point {
	return Point{X: p.X - other.X, Y: p.Y - other.Y}
}

// Size is a width and height pair.
type Size struct {
	Width  float64
	Height float64
}

// IsEmpty returns true if either dimension is not positive.
func (s Size) IsEmpty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Scale returns the size multiplied by factor.
func (s Size) Scale(factor float64) Size {
	return Size{Width: s.Width * factor, Height: s.Height * factor}
}

// Pixels returns the size rounded up to whole device pixels.
func (s Size) Pixels() (width, height int) {
	return int(math.Ceil(s.Width)), int(math.Ceil(s.Height))
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	Top    float64
	Left   float64
	Right  float64 // exclusive
	Bottom float64 // exclusive
}

// NewRect creates a rectangle from its edges.
func NewRect(top, left, right, bottom float64) Rect {
	return Rect{Top: top, Left: left, Right: right, Bottom: bottom}
}

// RectFromSize creates a rectangle from its top-left corner and size.
func RectFromSize(top, left, width, height float64) Rect {
	return Rect{Top: top, Left: left, Right: left + width, Bottom: top + height}
}

// Width returns the width of the rectangle.
func (r Rect) Width() float64 {
	if r.Right <= r.Left {
		return 0
	}
	return r.Right - r.Left
}

// Height returns the height of the rectangle.
func (r Rect) Height() float64 {
	if r.Bottom <= r.Top {
		return 0
	}
	return r.Bottom - r.Top
}

// Size returns the rectangle dimensions.
func (r Rect) Size() Size {
	return Size{Width: r.Width(), Height: r.Height()}
}

// TopLeft returns the top-left corner.
func (r Rect) TopLeft() Point {
	return Point{X: r.Left, Y: r.Top}
}

// IsZero returns true if every edge is zero.
func (r Rect) IsZero() bool {
	return r == Rect{}
}

// IsEmpty returns true if the rectangle has no area.
func (r Rect) IsEmpty() bool {
	return r.Width() <= 0 || r.Height() <= 0
}

// Contains returns true if p is within the rectangle.
// Left and top edges are inside, right and bottom edges are outside.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left && p.X < r.Right &&
		p.Y >= r.Top && p.Y < r.Bottom
}

// Intersects returns true if two rectangles overlap.
func (r Rect) Intersects(other Rect) bool {
	return r.Left < other.Right && r.Right > other.Left &&
		r.Top < other.Bottom && r.Bottom > other.Top
}

// Intersection returns the overlapping region of two rectangles.
func (r Rect) Intersection(other Rect) Rect {
	if !r.Intersects(other) {
		return Rect{}
	}
	return Rect{
		Top:    max(r.Top, other.Top),
		Left:   max(r.Left, other.Left),
		Right:  min(r.Right, other.Right),
		Bottom: min(r.Bottom, other.Bottom),
	}
}

// Union returns the smallest rectangle containing both rectangles.
func (r Rect) Union(other Rect) Rect {
	if r.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return r
	}
	return Rect{
		Top:    min(r.Top, other.Top),
		Left:   min(r.Left, other.Left),
		Right:  max(r.Right, other.Right),
		Bottom: max(r.Bottom, other.Bottom),
	}
}

// Translate returns the rectangle moved by d.
func (r Rect) Translate(d Point) Rect {
	return Rect{
		Top:    r.Top + d.Y,
		Left:   r.Left + d.X,
		Right:  r.Right + d.X,
		Bottom: r.Bottom + d.Y,
	}
}

// Scale returns the rectangle with every edge multiplied by factor.
func (r Rect) Scale(factor float64) Rect {
	return Rect{
		Top:    r.Top * factor,
		Left:   r.Left * factor,
		Right:  r.Right * factor,
		Bottom: r.Bottom * factor,
	}
}

// Expand returns the rectangle grown by d on every side.
func (r Rect) Expand(d float64) Rect {
	return Rect{
		Top:    r.Top - d,
		Left:   r.Left - d,
		Right:  r.Right + d,
		Bottom: r.Bottom + d,
	}
}

// SameLine returns true if two rectangles share a visual line: their
// vertical extents overlap by at least half of the shorter one.
func (r Rect) SameLine(other Rect) bool {
	overlap := min(r.Bottom, other.Bottom) - max(r.Top, other.Top)
	shorter := min(r.Height(), other.Height())
	if shorter <= 0 {
		return false
	}
	return overlap >= shorter/2
}

// String returns a compact representation of the rectangle.
func (r Rect) String() string {
	return fmt.Sprintf("{top:%g left:%g right:%g bottom:%g}", r.Top, r.Left, r.Right, r.Bottom)
}

// Bounds returns the union bounding box of rects, computed as min(top),
// min(left), max(right), max(bottom). It returns the zero Rect when rects is
// empty.
func Bounds(rects []Rect) Rect {
	if len(rects) == 0 {
		return Rect{}
	}
	result := rects[0]
	for _, r := range rects[1:] {
		result.Top = min(result.Top, r.Top)
		result.Left = min(result.Left, r.Left)
		result.Right = max(result.Right, r.Right)
		result.Bottom = max(result.Bottom, r.Bottom)
	}
	return result
}

// SortReadingOrder sorts rects top-to-bottom, then left-to-right.
func SortReadingOrder(rects []Rect) {
	sort.SliceStable(rects, func(i, j int) bool {
		if rects[i].Top != rects[j].Top {
			return rects[i].Top < rects[j].Top
		}
		return rects[i].Left < rects[j].Left
	})
}
