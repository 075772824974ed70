// Package raster implements an in-memory RGBA stage surface with
// anti-aliased edges.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"sync"

	"golang.org/x/image/vector"

	"github.com/dshills/highlighter/internal/geom"
)

// Surface is a transparent RGBA bitmap. Paint operations composite with
// source-over.
//
// All methods are safe for concurrent use, so the owner can read the bitmap
// while a debounced re-render paints it.
type Surface struct {
	mu  sync.Mutex
	img *image.RGBA
	z   *vector.Rasterizer
}

// New creates a transparent surface of the given size.
func New(width, height int) *Surface {
	s := &Surface{z: vector.NewRasterizer(0, 0)}
	s.Resize(width, height)
	return s
}

// Resize reallocates the bitmap, discarding its content.
func (s *Surface) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.img = image.NewRGBA(image.Rect(0, 0, max(width, 0), max(height, 0)))
}

// Clear makes every pixel transparent.
func (s *Surface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.img.Pix)
}

// Size returns the bitmap dimensions.
func (s *Surface) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

// Image returns a copy of the bitmap.
func (s *Surface) Image() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()

	img := image.NewRGBA(s.img.Bounds())
	copy(img.Pix, s.img.Pix)
	return img
}

// FillRect composites c over r.
func (s *Surface) FillRect(r geom.Rect, c color.Color) {
	s.draw(c, r, geom.Rect{})
}

// StrokeRect composites a border of the given width centred on r's edges.
func (s *Surface) StrokeRect(r geom.Rect, c color.Color, width float64) {
	if width <= 0 {
		return
	}
	half := width / 2
	inner := r.Expand(-half)
	if inner.IsEmpty() {
		inner = geom.Rect{}
	}
	s.draw(c, r.Expand(half), inner)
}

// WritePNG encodes the bitmap as PNG.
func (s *Surface) WritePNG(w io.Writer) error {
	if err := png.Encode(w, s.Image()); err != nil {
		return fmt.Errorf("encoding png: %w", err)
	}
	return nil
}

// draw rasterizes outer minus hole and composites c through the coverage
// mask. The hole is traced in the opposite direction so its winding cancels
// the outer path.
func (s *Surface) draw(c color.Color, outer, hole geom.Rect) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.img.Bounds()
	canvas := geom.RectFromSize(0, 0, float64(b.Dx()), float64(b.Dy()))
	outer = outer.Intersection(canvas)
	if outer.IsEmpty() {
		return
	}
	hole = hole.Intersection(outer)

	// Rasterize only the pixels the shape can touch.
	area := image.Rect(
		int(math.Floor(outer.Left)), int(math.Floor(outer.Top)),
		int(math.Ceil(outer.Right)), int(math.Ceil(outer.Bottom)),
	).Intersect(b)
	if area.Empty() {
		return
	}
	off := geom.Pt(float64(area.Min.X), float64(area.Min.Y))

	s.z.Reset(area.Dx(), area.Dy())
	s.z.DrawOp = draw.Over
	trace(s.z, outer.Translate(geom.Pt(-off.X, -off.Y)), false)
	if !hole.IsEmpty() {
		trace(s.z, hole.Translate(geom.Pt(-off.X, -off.Y)), true)
	}
	s.z.Draw(s.img, area, image.NewUniform(c), image.Point{})
}

// trace adds a closed rectangle path, clockwise on screen unless reverse.
func trace(z *vector.Rasterizer, r geom.Rect, reverse bool) {
	l, t := float32(r.Left), float32(r.Top)
	rt, bm := float32(r.Right), float32(r.Bottom)
	z.MoveTo(l, t)
	if reverse {
		z.LineTo(l, bm)
		z.LineTo(rt, bm)
		z.LineTo(rt, t)
	} else {
		z.LineTo(rt, t)
		z.LineTo(rt, bm)
		z.LineTo(l, bm)
	}
	z.ClosePath()
}
