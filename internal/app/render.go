package app

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"time"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/dshills/highlighter/internal/dom"
	"github.com/dshills/highlighter/internal/watch"
)

// RenderOptions describes one render.
type RenderOptions struct {
	TextPath   string
	RangesPath string
	OutPath    string
	// Width is the client width of the document in CSS pixels.
	Width float64
	// Background and Foreground color the page and the text. Nil means
	// white and black.
	Background color.Color
	Foreground color.Color
}

// RenderResult summarises a render.
type RenderResult struct {
	Width, Height int
	Painted       int
	Dropped       []string
}

// Render lays out the text, paints the descriptors over it and writes the
// result as a PNG. The image has the highlight surface's size, so it is
// scaled by the configured pixel ratio.
func (a *App) Render(opts RenderOptions) (RenderResult, error) {
	if opts.OutPath == "" {
		return RenderResult{}, NewOperationError("render", opts.TextPath, ErrNoOutput)
	}

	s, err := a.Open(opts.TextPath, opts.RangesPath, opts.Width)
	if err != nil {
		return RenderResult{}, err
	}
	defer s.Close()

	img := a.compose(s, opts)

	f, err := os.Create(opts.OutPath)
	if err != nil {
		return RenderResult{}, NewOperationError("render", opts.OutPath, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return RenderResult{}, NewOperationError("render", opts.OutPath, err)
	}
	if err := f.Close(); err != nil {
		return RenderResult{}, NewOperationError("render", opts.OutPath, err)
	}

	b := img.Bounds()
	res := RenderResult{
		Width:   b.Dx(),
		Height:  b.Dy(),
		Painted: len(s.Highlighter.Ranges()),
		Dropped: s.Dropped,
	}
	a.logger.WithField("out", opts.OutPath).Info("rendered %dx%d with %d highlights", res.Width, res.Height, res.Painted)
	return res, nil
}

// compose stacks the page, the text and the highlight surface.
func (a *App) compose(s *Session, opts RenderOptions) *image.RGBA {
	bg, fg := opts.Background, opts.Foreground
	if bg == nil {
		bg = color.White
	}
	if fg == nil {
		fg = color.Black
	}

	highlights := s.Surface.Image()
	out := image.NewRGBA(highlights.Bounds())
	draw.Draw(out, out.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	text := a.textLayer(s.Doc, fg)
	if text.Bounds().Size() == out.Bounds().Size() {
		draw.Draw(out, out.Bounds(), text, image.Point{}, draw.Over)
	} else {
		xdraw.CatmullRom.Scale(out, out.Bounds(), text, text.Bounds(), draw.Over, nil)
	}

	draw.Draw(out, out.Bounds(), highlights, image.Point{}, draw.Over)
	return out
}

// textLayer draws the document's glyphs at one pixel per CSS pixel onto a
// transparent image the size of the content.
func (a *App) textLayer(doc *dom.Document, fg color.Color) *image.RGBA {
	w, h := doc.ContentSize().Pixels()
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fg),
		Face: a.measurer.Face(),
	}
	ascent := a.measurer.Ascent()
	doc.Glyphs(func(g dom.Glyph) {
		d.Dot = fixed.Point26_6{
			X: fixed.Int26_6(g.Rect.Left * 64),
			Y: fixed.Int26_6((g.Rect.Top + ascent) * 64),
		}
		d.DrawString(g.Cluster)
	})
	return img
}

// Watch renders once, then again whenever the text or descriptor file
// changes, until ctx is done. onRender is called after every render.
func (a *App) Watch(ctx context.Context, opts RenderOptions, onRender func(RenderResult, error)) error {
	onRender(a.Render(opts))

	w, err := watch.New(100*time.Millisecond, func(paths []string) {
		a.logger.Debug("changed: %v", paths)
		onRender(a.Render(opts))
	}, watch.WithLogger(a.logger))
	if err != nil {
		return NewOperationError("watch", opts.TextPath, err)
	}
	defer w.Close()

	for _, p := range []string{opts.TextPath, opts.RangesPath} {
		if p == "" {
			continue
		}
		if err := w.Add(p); err != nil {
			return NewOperationError("watch", p, err)
		}
	}
	a.logger.Info("watching %d files", len(w.Files()))

	<-ctx.Done()
	return nil
}
