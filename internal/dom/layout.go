package dom

import (
	"strings"
	"unicode"

	"github.com/rivo/uniseg"

	"github.com/dshills/highlighter/internal/geom"
)

// glyph is the laid-out position of one rune of a block.
// Only the first rune of a grapheme cluster carries the cluster and its
// advance; the remaining runes are zero-width at the cluster's right edge.
type glyph struct {
	cluster string
	x0, x1  float64
	line    int
	brk     bool // hard line break
}

// lineBox is the vertical extent of one visual line, in layout coordinates.
type lineBox struct {
	top    float64
	bottom float64
}

// blockLayout is the result of flowing one block into the available width.
type blockLayout struct {
	glyphs []glyph
	lines  []lineBox
	starts []int // block rune offset at which each text node begins
	top    float64
	bottom float64
	width  float64 // widest line
}

// docLayout caches the layout of every block. Layout coordinates are
// relative to the top-left of the content box (inside the padding).
type docLayout struct {
	blocks []blockLayout
	width  float64
	height float64
}

func layoutDocument(blocks []*Block, m Measurer, avail, gap float64) *docLayout {
	dl := &docLayout{blocks: make([]blockLayout, 0, len(blocks))}
	top := 0.0
	for i, b := range blocks {
		if i > 0 {
			top += gap
		}
		bl := layoutBlock(b, m, avail, top)
		dl.blocks = append(dl.blocks, bl)
		dl.width = max(dl.width, bl.width)
		top = bl.bottom
	}
	dl.height = top
	return dl
}

// layoutBlock flows a block's text at line-break opportunities. A segment
// that does not fit moves to the next line; a segment wider than the whole
// line is broken between grapheme clusters.
func layoutBlock(b *Block, m Measurer, avail, top float64) blockLayout {
	bl := blockLayout{top: top}

	var sb strings.Builder
	offset := 0
	for _, t := range b.children {
		bl.starts = append(bl.starts, offset)
		offset += t.Len()
		sb.WriteString(t.data)
	}

	line := 0
	x := 0.0
	newLine := func() {
		bl.width = max(bl.width, x)
		line++
		x = 0
	}

	rest := sb.String()
	state := -1
	for len(rest) > 0 {
		var segment string
		var mustBreak bool
		segment, rest, mustBreak, state = uniseg.FirstLineSegmentInString(rest, state)

		fit := measure(m, strings.TrimRightFunc(segment, unicode.IsSpace))
		if x > 0 && x+fit > avail {
			newLine()
		}

		gr := uniseg.NewGraphemes(segment)
		for gr.Next() {
			cluster := gr.Str()
			runes := gr.Runes()
			if isHardBreak(cluster) {
				for range runes {
					bl.glyphs = append(bl.glyphs, glyph{x0: x, x1: x, line: line, brk: true})
				}
				continue
			}
			w := m.Advance(cluster)
			if x > 0 && x+w > avail && !isSpace(cluster) {
				newLine()
			}
			for i := range runes {
				g := glyph{x0: x + w, x1: x + w, line: line}
				if i == 0 {
					g.cluster = cluster
					g.x0 = x
				}
				bl.glyphs = append(bl.glyphs, g)
			}
			x += w
		}

		if mustBreak && len(rest) > 0 {
			newLine()
		}
	}
	bl.width = max(bl.width, x)

	lh := m.LineHeight()
	for i := 0; i <= line; i++ {
		bl.lines = append(bl.lines, lineBox{
			top:    top + float64(i)*lh,
			bottom: top + float64(i+1)*lh,
		})
	}
	bl.bottom = top + float64(line+1)*lh
	return bl
}

// spanRects returns one rectangle per visual line covered by the block
// runes [from, to), in layout coordinates.
func (bl *blockLayout) spanRects(from, to int) []geom.Rect {
	from = max(from, 0)
	to = min(to, len(bl.glyphs))

	var rects []geom.Rect
	current := -1
	var r geom.Rect
	flush := func() {
		if current >= 0 && r.Right > r.Left {
			rects = append(rects, r)
		}
	}
	for i := from; i < to; i++ {
		g := bl.glyphs[i]
		if g.brk || g.x1 <= g.x0 {
			continue
		}
		if g.line != current {
			flush()
			current = g.line
			lb := bl.lines[g.line]
			r = geom.Rect{Top: lb.top, Bottom: lb.bottom, Left: g.x0, Right: g.x1}
			continue
		}
		r.Left = min(r.Left, g.x0)
		r.Right = max(r.Right, g.x1)
	}
	flush()
	return rects
}

// offsetAt returns the block rune offset closest to p (layout coordinates).
func (bl *blockLayout) offsetAt(p geom.Point) int {
	line := len(bl.lines) - 1
	for i, lb := range bl.lines {
		if p.Y < lb.bottom {
			line = i
			break
		}
	}

	last := -1
	for i, g := range bl.glyphs {
		if g.line != line {
			if g.line > line {
				break
			}
			continue
		}
		if g.brk {
			return i
		}
		last = i
		if g.x1 <= g.x0 {
			continue
		}
		if p.X < (g.x0+g.x1)/2 {
			return i
		}
	}
	if last < 0 {
		// Empty line: place the caret where the line starts.
		for i, g := range bl.glyphs {
			if g.line >= line {
				return i
			}
		}
		return len(bl.glyphs)
	}
	return last + 1
}

// nodeAt maps a block rune offset to a text node index and an offset in it.
// Offsets on a boundary between two nodes resolve to the end of the earlier
// node.
func (bl *blockLayout) nodeAt(offset int, lengths []int) (node, nodeOffset int) {
	for i := len(bl.starts) - 1; i >= 0; i-- {
		if offset > bl.starts[i] || (offset == bl.starts[i] && (i == 0 || lengths[i-1] == 0)) {
			return i, min(offset-bl.starts[i], lengths[i])
		}
	}
	return 0, 0
}

func measure(m Measurer, s string) float64 {
	w := 0.0
	gr := uniseg.NewGraphemes(s)
	for gr.Next() {
		cluster := gr.Str()
		if isHardBreak(cluster) {
			continue
		}
		w += m.Advance(cluster)
	}
	return w
}

func isHardBreak(cluster string) bool {
	switch cluster {
	case "\n", "\r", "\r\n", "\u0085", "\u2028", "\u2029", "\v", "\f":
		return true
	}
	return false
}

func isSpace(cluster string) bool {
	return strings.TrimFunc(cluster, unicode.IsSpace) == ""
}
