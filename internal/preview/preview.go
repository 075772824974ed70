// Package preview shows a document and its highlights in a terminal.
//
// The document is laid out one CSS pixel per cell, so the highlight stage
// paints straight into a cell grid. Dragging with the left button selects
// text; the keys are:
//
//	a  highlight the selection
//	d  delete the highlight under the mouse
//	c  clear every highlight
//	q  quit (also Esc and Ctrl-C)
package preview

import (
	"context"
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rivo/uniseg"

	"github.com/dshills/highlighter/internal/dom"
	"github.com/dshills/highlighter/internal/geom"
	"github.com/dshills/highlighter/internal/highlighter"
	"github.com/dshills/highlighter/internal/notify"
)

// Preview is an interactive terminal view over one document.
type Preview struct {
	screen tcell.Screen
	doc    *dom.Document
	hl     *highlighter.Highlighter
	cells  *Cells
	sub    *notify.Subscription

	anchor *dom.Boundary
	mouse  geom.Point
	status string
}

// New attaches a highlighter to doc and sizes doc to the screen, keeping
// the bottom row for the status line. The screen must be initialised.
func New(screen tcell.Screen, doc *dom.Document, opts ...highlighter.Option) (*Preview, error) {
	w, h := screen.Size()
	doc.Resize(float64(w), float64(max(h-1, 0)))

	cells := NewCells(colorful.Color{})
	hl, err := highlighter.New(doc, cells, opts...)
	if err != nil {
		return nil, err
	}

	p := &Preview{
		screen: screen,
		doc:    doc,
		hl:     hl,
		cells:  cells,
		mouse:  geom.Pt(-1, -1),
	}
	// Debounced re-renders finish off the event loop; wake it to redraw.
	p.sub = hl.Subscribe(func(c notify.Change) {
		if c.Type == notify.ChangeResized {
			_ = screen.PostEvent(tcell.NewEventInterrupt(c))
		}
	})
	return p, nil
}

// Highlighter returns the highlighter painting the preview.
func (p *Preview) Highlighter() *highlighter.Highlighter {
	return p.hl
}

// Close detaches the highlighter. The screen is left to the caller.
func (p *Preview) Close() error {
	p.sub.Unsubscribe()
	return p.hl.Close()
}

// Run draws and handles events until the user quits or ctx is done.
func (p *Preview) Run(ctx context.Context) error {
	p.screen.EnableMouse()
	defer p.screen.DisableMouse()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = p.screen.PostEvent(tcell.NewEventInterrupt(nil))
		case <-done:
		}
	}()

	p.Draw()
	for {
		ev := p.screen.PollEvent()
		if ev == nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if p.HandleEvent(ev) {
			return nil
		}
		p.Draw()
	}
}

// HandleEvent applies one terminal event and reports whether the user asked
// to quit.
func (p *Preview) HandleEvent(ev tcell.Event) bool {
	switch e := ev.(type) {
	case *tcell.EventKey:
		return p.handleKey(e)
	case *tcell.EventMouse:
		p.handleMouse(e)
	case *tcell.EventResize:
		w, h := e.Size()
		p.screen.Sync()
		p.doc.Resize(float64(w), float64(max(h-1, 0)))
	}
	return false
}

func (p *Preview) handleKey(e *tcell.EventKey) bool {
	switch e.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
	default:
		return false
	}

	switch e.Rune() {
	case 'q':
		return true
	case 'a':
		p.addSelection()
	case 'd':
		p.deleteUnderMouse()
	case 'c':
		p.hl.Clear()
		p.status = "cleared"
	}
	return false
}

func (p *Preview) handleMouse(e *tcell.EventMouse) {
	x, y := e.Position()
	p.mouse = geom.Pt(float64(x), float64(y))

	if e.Buttons()&tcell.Button1 == 0 {
		p.anchor = nil
		return
	}
	b, ok := p.doc.BoundaryAt(p.mouse)
	if !ok {
		return
	}
	if p.anchor == nil {
		p.anchor = &b
		p.doc.ClearSelection()
		return
	}
	p.doc.Select(*p.anchor, b)
}

func (p *Preview) addSelection() {
	r, ok := p.hl.SelectionRange(nil)
	if !ok {
		p.status = "nothing selected"
		return
	}
	if !p.hl.AddRange(*r) {
		p.status = "selection is not visible"
		return
	}
	p.doc.ClearSelection()
	p.status = fmt.Sprintf("added %q", r.Text)
}

func (p *Preview) deleteUnderMouse() {
	id, ok := p.hoverID()
	if !ok {
		p.status = "no highlight under the mouse"
		return
	}
	p.hl.DeleteRange(id)
	p.status = "deleted " + id
}

func (p *Preview) hoverID() (string, bool) {
	return p.hl.RangeIDAt(p.mouse.X+0.5, p.mouse.Y+0.5)
}

// Draw renders highlights, text, the live selection and the status line.
func (p *Preview) Draw() {
	p.screen.Clear()
	w, h := p.screen.Size()
	rows := max(h-1, 0)

	ratio := p.hl.Config().PixelRatio
	for y := range rows {
		for x := range w {
			sx := int(math.Floor((float64(x) + 0.5) * ratio))
			sy := int(math.Floor((float64(y) + 0.5) * ratio))
			if c, ok := p.cells.At(sx, sy); ok {
				p.screen.SetContent(x, y, ' ', nil, tcell.StyleDefault.Background(toColor(c)))
			}
		}
	}

	p.doc.Glyphs(func(g dom.Glyph) {
		x, y := int(g.Rect.Left), int(g.Rect.Top)
		if y >= rows || x >= w {
			return
		}
		_, _, st, _ := p.screen.GetContent(x, y) //nolint:staticcheck // GetContent is the correct API
		runes := []rune(g.Cluster)
		p.screen.SetContent(x, y, runes[0], runes[1:], st)
	})

	if pos, ok := p.hl.SelectionPosition(nil); ok {
		for _, r := range pos.Rects {
			p.reverse(r, w, rows)
		}
	}

	p.drawStatus(w, h)
	p.screen.Show()
}

func (p *Preview) reverse(r geom.Rect, w, rows int) {
	for y := max(int(math.Floor(r.Top)), 0); y < min(int(math.Ceil(r.Bottom)), rows); y++ {
		for x := max(int(math.Floor(r.Left)), 0); x < min(int(math.Ceil(r.Right)), w); x++ {
			if !r.Contains(geom.Pt(float64(x)+0.5, float64(y)+0.5)) {
				continue
			}
			mainc, combc, st, _ := p.screen.GetContent(x, y) //nolint:staticcheck // GetContent is the correct API
			p.screen.SetContent(x, y, mainc, combc, st.Reverse(true))
		}
	}
}

func (p *Preview) drawStatus(w, h int) {
	if h == 0 {
		return
	}
	line := fmt.Sprintf(" %d highlights", len(p.hl.Ranges()))
	if id, ok := p.hoverID(); ok {
		line += " | " + id
	}
	if p.status != "" {
		line += " | " + p.status
	}
	line += " | a:add d:delete c:clear q:quit"

	st := tcell.StyleDefault.Reverse(true)
	for x := range w {
		p.screen.SetContent(x, h-1, ' ', nil, st)
	}
	drawText(p.screen, 0, h-1, w, line, st)
}

// drawText writes s from (x, y), clipped to width columns.
func drawText(screen tcell.Screen, x, y, width int, s string, st tcell.Style) {
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		runes := g.Runes()
		cw := g.Width()
		if x+cw > width {
			return
		}
		screen.SetContent(x, y, runes[0], runes[1:], st)
		x += max(cw, 1)
	}
}

func toColor(c colorful.Color) tcell.Color {
	r, g, b := c.RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}
