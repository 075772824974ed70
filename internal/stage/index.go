package stage

import (
	"math"
	"slices"

	"github.com/dshills/highlighter/internal/geom"
)

// bucketSize is the grid cell edge in CSS pixels.
const bucketSize = 64.0

type bucket struct {
	col, row int
}

// gridIndex maps grid cells to the ids whose rectangles overlap them.
// Queries return candidates only; callers check the rectangles.
type gridIndex struct {
	buckets map[bucket][]string
}

func newGridIndex() *gridIndex {
	return &gridIndex{buckets: make(map[bucket][]string)}
}

func (g *gridIndex) insert(id string, rects []geom.Rect) {
	for _, r := range rects {
		g.each(r, func(b bucket) {
			ids := g.buckets[b]
			if !slices.Contains(ids, id) {
				g.buckets[b] = append(ids, id)
			}
		})
	}
}

func (g *gridIndex) remove(id string, rects []geom.Rect) {
	for _, r := range rects {
		g.each(r, func(b bucket) {
			ids := slices.DeleteFunc(g.buckets[b], func(s string) bool { return s == id })
			if len(ids) == 0 {
				delete(g.buckets, b)
				return
			}
			g.buckets[b] = ids
		})
	}
}

func (g *gridIndex) query(p geom.Point) []string {
	return g.buckets[bucketOf(p.X, p.Y)]
}

func (g *gridIndex) reset() {
	clear(g.buckets)
}

// each calls fn for every cell r overlaps. Right and bottom edges are
// exclusive, matching Rect.Contains.
func (g *gridIndex) each(r geom.Rect, fn func(bucket)) {
	if r.IsEmpty() {
		return
	}
	c0, r0 := cellOf(r.Left), cellOf(r.Top)
	c1 := max(int(math.Ceil(r.Right/bucketSize))-1, c0)
	r1 := max(int(math.Ceil(r.Bottom/bucketSize))-1, r0)
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			fn(bucket{col: col, row: row})
		}
	}
}

func bucketOf(x, y float64) bucket {
	return bucket{col: cellOf(x), row: cellOf(y)}
}

func cellOf(v float64) int {
	return int(math.Floor(v / bucketSize))
}
