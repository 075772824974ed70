// Package stage owns the surface highlights are painted on and answers
// pointer hit-tests against what was painted.
//
// The stage keeps a retained paint list: one layer per range id, in paint
// order. The surface itself is append-only, so removing a layer repaints the
// survivors from scratch.
package stage

import (
	"image/color"
	"sort"

	"github.com/dshills/highlighter/internal/geom"
	"github.com/dshills/highlighter/internal/style"
)

// Container is the element the stage covers.
type Container interface {
	// ContentSize returns the container's scrollable content size in CSS
	// pixels.
	ContentSize() geom.Size
}

// Surface is a paintable bitmap in device pixels.
type Surface interface {
	// Resize reallocates the surface. Existing content is discarded.
	Resize(width, height int)
	// Clear makes the whole surface transparent.
	Clear()
	// FillRect composites c over r.
	FillRect(r geom.Rect, c color.Color)
	// StrokeRect composites an outline of the given width centred on r's
	// edges.
	StrokeRect(r geom.Rect, c color.Color, width float64)
	// Size returns the surface dimensions.
	Size() (width, height int)
}

// layer is one painted range.
type layer struct {
	id    string
	rects []geom.Rect
	style style.Style
	seq   uint64
}

// Stage paints rectangle groups onto a surface and indexes them for
// hit-testing. Rectangles are given in CSS pixels relative to the container
// content; the stage scales them by the pixel ratio when painting.
//
// A Stage is not safe for concurrent use.
type Stage struct {
	container Container
	surface   Surface
	ratio     float64

	layers map[string]*layer
	order  []string
	index  *gridIndex
	seq    uint64
}

// New creates a stage sized to the container's content.
func New(container Container, surface Surface, pixelRatio float64) *Stage {
	if pixelRatio <= 0 {
		pixelRatio = 1
	}
	s := &Stage{
		container: container,
		surface:   surface,
		ratio:     pixelRatio,
		layers:    make(map[string]*layer),
		index:     newGridIndex(),
	}
	s.UpdateStageSize()
	return s
}

// PixelRatio returns the device pixel ratio used when painting.
func (s *Stage) PixelRatio() float64 {
	return s.ratio
}

// Surface returns the surface the stage paints on.
func (s *Stage) Surface() Surface {
	return s.surface
}

// RenderRange paints rects tagged with id on top of everything else. A layer
// already painted under id is removed first, so the group moves to the top.
// An empty rects slice only removes the existing layer.
func (s *Stage) RenderRange(rects []geom.Rect, id string, st style.Style) {
	if s.removeLayer(id) {
		s.redraw()
	}
	if len(rects) == 0 {
		return
	}

	s.seq++
	l := &layer{
		id:    id,
		rects: append([]geom.Rect(nil), rects...),
		style: st,
		seq:   s.seq,
	}
	s.layers[id] = l
	s.order = append(s.order, id)
	s.index.insert(id, l.rects)
	s.paint(l)
}

// DeleteRange removes the layer painted under id and repaints the remaining
// layers in their original order. It returns false if id is not painted.
func (s *Stage) DeleteRange(id string) bool {
	if !s.removeLayer(id) {
		return false
	}
	s.redraw()
	return true
}

// Clear wipes the surface and the index.
func (s *Stage) Clear() {
	s.reset()
	s.surface.Clear()
}

// UpdateStageSize resizes the surface to the container's current content
// size times the pixel ratio. Painted layers are dropped; the caller
// re-renders them.
func (s *Stage) UpdateStageSize() {
	w, h := s.container.ContentSize().Scale(s.ratio).Pixels()
	s.reset()
	s.surface.Resize(w, h)
}

// IDs returns the painted ids in paint order, bottom first.
func (s *Stage) IDs() []string {
	return append([]string(nil), s.order...)
}

// Rects returns the rectangles painted under id.
func (s *Stage) Rects(id string) ([]geom.Rect, bool) {
	l, ok := s.layers[id]
	if !ok {
		return nil, false
	}
	return append([]geom.Rect(nil), l.rects...), true
}

// GroupIDAt returns the topmost id with a rectangle containing (x, y).
//
// Containment is half-open: a rectangle covers left <= x < right and
// top <= y < bottom, so two rectangles sharing an edge never both match.
func (s *Stage) GroupIDAt(x, y float64) (string, bool) {
	hits := s.hits(geom.Pt(x, y))
	if len(hits) == 0 {
		return "", false
	}
	return hits[len(hits)-1].id, true
}

// GroupIDsAt returns every id with a rectangle containing (x, y), bottom to
// top.
func (s *Stage) GroupIDsAt(x, y float64) []string {
	hits := s.hits(geom.Pt(x, y))
	if len(hits) == 0 {
		return nil
	}
	ids := make([]string, len(hits))
	for i, l := range hits {
		ids[i] = l.id
	}
	return ids
}

// hits returns the layers containing p, sorted by paint order.
func (s *Stage) hits(p geom.Point) []*layer {
	var hits []*layer
	for _, id := range s.index.query(p) {
		l := s.layers[id]
		if l == nil {
			continue
		}
		for _, r := range l.rects {
			if r.Contains(p) {
				hits = append(hits, l)
				break
			}
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		return hits[i].seq < hits[j].seq
	})
	return hits
}

func (s *Stage) removeLayer(id string) bool {
	l, ok := s.layers[id]
	if !ok {
		return false
	}
	delete(s.layers, id)
	s.index.remove(id, l.rects)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *Stage) reset() {
	s.layers = make(map[string]*layer)
	s.order = nil
	s.index.reset()
}

func (s *Stage) redraw() {
	s.surface.Clear()
	for _, id := range s.order {
		s.paint(s.layers[id])
	}
}

func (s *Stage) paint(l *layer) {
	fill := l.style.HasFill()
	stroke := l.style.HasStroke()
	for _, r := range l.rects {
		r = r.Scale(s.ratio)
		if fill {
			s.surface.FillRect(r, l.style.FillPaint())
		}
		if stroke {
			s.surface.StrokeRect(r, l.style.StrokePaint(), l.style.StrokeWidth*s.ratio)
		}
	}
}
