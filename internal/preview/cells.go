package preview

import (
	"image/color"
	"math"
	"sync"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/dshills/highlighter/internal/geom"
)

// Cells is a stage surface with one pixel per terminal cell. A cell is
// painted when its centre falls inside the shape; colors are composited
// over the base color with source-over blending.
type Cells struct {
	mu     sync.Mutex
	width  int
	height int
	bg     []colorful.Color
	set    []bool
	base   colorful.Color
}

// NewCells creates an empty surface blending over base.
func NewCells(base colorful.Color) *Cells {
	return &Cells{base: base}
}

// Resize reallocates the grid, discarding its content.
func (c *Cells) Resize(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.width, c.height = max(width, 0), max(height, 0)
	c.bg = make([]colorful.Color, c.width*c.height)
	c.set = make([]bool, c.width*c.height)
}

// Clear unpaints every cell.
func (c *Cells) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.set)
}

// Size returns the grid dimensions.
func (c *Cells) Size() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

// At returns the composited color of a cell and whether anything was
// painted there.
func (c *Cells) At(x, y int) (colorful.Color, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return colorful.Color{}, false
	}
	i := y*c.width + x
	return c.bg[i], c.set[i]
}

// FillRect paints the cells whose centres lie in r.
func (c *Cells) FillRect(r geom.Rect, col color.Color) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.each(r, func(i int, _ geom.Point) {
		c.composite(i, col)
	})
}

// StrokeRect paints the cells within width/2 of r's edges. Strokes thinner
// than a cell still cover one cell.
func (c *Cells) StrokeRect(r geom.Rect, col color.Color, width float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	half := max(width/2, 0.5)
	hole := r.Expand(-half)
	c.each(r.Expand(half), func(i int, centre geom.Point) {
		if centre.X > hole.Left && centre.X < hole.Right &&
			centre.Y > hole.Top && centre.Y < hole.Bottom {
			return
		}
		c.composite(i, col)
	})
}

func (c *Cells) each(r geom.Rect, fn func(i int, centre geom.Point)) {
	x0 := max(int(math.Floor(r.Left)), 0)
	x1 := min(int(math.Ceil(r.Right)), c.width)
	y0 := max(int(math.Floor(r.Top)), 0)
	y1 := min(int(math.Ceil(r.Bottom)), c.height)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			centre := geom.Pt(float64(x)+0.5, float64(y)+0.5)
			if r.Contains(centre) {
				fn(y*c.width+x, centre)
			}
		}
	}
}

func (c *Cells) composite(i int, col color.Color) {
	r, g, b, a := col.RGBA()
	if a == 0 {
		return
	}
	alpha := float64(a) / 0xffff
	src := colorful.Color{
		R: float64(r) / float64(a),
		G: float64(g) / float64(a),
		B: float64(b) / float64(a),
	}
	dst := c.base
	if c.set[i] {
		dst = c.bg[i]
	}
	c.bg[i] = dst.BlendRgb(src, alpha).Clamped()
	c.set[i] = true
}
