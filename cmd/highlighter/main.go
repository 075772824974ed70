// Command highlighter paints highlight overlays over text files.
//
// Highlights are stored as JSON descriptors anchored to the text by node
// path and offset, so they survive re-layout at any width:
//
//	highlighter select notes.txt 6 11 --append notes.json
//	highlighter render notes.txt -r notes.json -o notes.png --watch
//	highlighter hit notes.txt -r notes.json 40 8
//	highlighter preview notes.txt -r notes.json --save notes.json
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/gdamore/tcell/v2"

	"github.com/dshills/highlighter/internal/app"
	"github.com/dshills/highlighter/internal/dom"
	"github.com/dshills/highlighter/internal/highlighter"
	"github.com/dshills/highlighter/internal/preview"
	"github.com/dshills/highlighter/internal/ranges"
	"github.com/dshills/highlighter/internal/style"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Globals are flags shared by every command.
type Globals struct {
	Config   string `short:"c" help:"Configuration file (.toml, .yaml)." type:"path" env:"HIGHLIGHTER_CONFIG"`
	LogLevel string `name:"log-level" help:"Log level (debug, info, warn, error)."`
	LogFile  string `name:"log-file" help:"Write logs to this file instead of stderr." type:"path"`

	stdout io.Writer `kong:"-"`
}

// CLI defines the command-line interface.
type CLI struct {
	Globals

	Render  RenderCmd  `cmd:"" help:"Paint highlights over a text file into a PNG."`
	Hit     HitCmd     `cmd:"" help:"Print the highlights covering a point."`
	Select  SelectCmd  `cmd:"" help:"Print a highlight descriptor for a span of text."`
	Preview PreviewCmd `cmd:"" help:"Select and highlight text interactively in the terminal."`
	Version VersionCmd `cmd:"" help:"Print version information."`
}

// open builds the application. The returned function closes the log file.
func (g *Globals) open(defaultLog io.Writer) (*app.App, func(), error) {
	out := defaultLog
	closeLog := func() {}
	if g.LogFile != "" {
		f, err := os.OpenFile(g.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		out = f
		closeLog = func() { _ = f.Close() }
	}

	a, err := app.New(app.Options{
		ConfigPath: g.Config,
		LogLevel:   g.LogLevel,
		LogOutput:  out,
	})
	if err != nil {
		closeLog()
		return nil, nil, err
	}
	return a, closeLog, nil
}

func (g *Globals) out() io.Writer {
	if g.stdout != nil {
		return g.stdout
	}
	return os.Stdout
}

// RenderCmd writes a PNG of the text with its highlights.
type RenderCmd struct {
	Text   string  `arg:"" help:"Text file." type:"existingfile"`
	Ranges string  `short:"r" help:"JSON file of highlight descriptors." type:"path"`
	Out    string  `short:"o" required:"" help:"Output PNG." type:"path"`
	Width  float64 `short:"w" default:"480" help:"Document width in CSS pixels."`
	Watch  bool    `help:"Render again whenever the text or descriptors change."`
}

func (c *RenderCmd) Run(g *Globals) error {
	a, closeLog, err := g.open(os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	opts := app.RenderOptions{
		TextPath:   c.Text,
		RangesPath: c.Ranges,
		OutPath:    c.Out,
		Width:      c.Width,
	}
	report := func(res app.RenderResult) {
		fmt.Fprintf(g.out(), "%s: %dx%d, %d highlights", c.Out, res.Width, res.Height, res.Painted)
		if len(res.Dropped) > 0 {
			fmt.Fprintf(g.out(), ", %d not visible", len(res.Dropped))
		}
		fmt.Fprintln(g.out())
	}

	if !c.Watch {
		res, err := a.Render(opts)
		if err != nil {
			return err
		}
		report(res)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.Watch(ctx, opts, func(res app.RenderResult, err error) {
		if err != nil {
			a.Logger().Error("%v", err)
			return
		}
		report(res)
	})
}

// HitCmd prints the ids of the highlights under a point.
type HitCmd struct {
	Text   string  `arg:"" help:"Text file." type:"existingfile"`
	X      float64 `arg:"" help:"X in CSS pixels from the content's left edge."`
	Y      float64 `arg:"" help:"Y in CSS pixels from the content's top edge."`
	Ranges string  `short:"r" required:"" help:"JSON file of highlight descriptors." type:"existingfile"`
	Width  float64 `short:"w" default:"480" help:"Document width in CSS pixels."`
	Top    bool    `help:"Print only the topmost highlight."`
}

func (c *HitCmd) Run(g *Globals) error {
	a, closeLog, err := g.open(os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	ids, err := a.Hit(c.Text, c.Ranges, c.Width, c.X, c.Y)
	if err != nil {
		return err
	}
	if c.Top && len(ids) > 0 {
		ids = ids[len(ids)-1:]
	}
	for _, id := range ids {
		fmt.Fprintln(g.out(), id)
	}
	return nil
}

// SelectCmd prints a descriptor for a span of text, optionally appending it
// to a descriptor file.
type SelectCmd struct {
	Text  string  `arg:"" help:"Text file." type:"existingfile"`
	Start int     `arg:"" help:"Start rune offset; paragraph breaks count as one rune."`
	End   int     `arg:"" help:"End rune offset (exclusive)."`
	Width float64 `short:"w" default:"480" help:"Document width in CSS pixels."`
	ID    string  `help:"Descriptor id. Defaults to a random UUID."`

	Fill          string   `help:"Fill color override."`
	FillOpacity   *float64 `name:"fill-opacity" help:"Fill opacity override (0-1)."`
	Stroke        string   `help:"Stroke color override."`
	StrokeWidth   *float64 `name:"stroke-width" help:"Stroke width override in CSS pixels."`
	StrokeOpacity *float64 `name:"stroke-opacity" help:"Stroke opacity override (0-1)."`

	Append string `help:"Append the descriptor to this JSON file, creating it if needed. A descriptor with the same id is replaced." type:"path"`
}

func (c *SelectCmd) Run(g *Globals) error {
	a, closeLog, err := g.open(os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	r, bounds, err := a.Select(app.SelectRequest{
		TextPath: c.Text,
		Width:    c.Width,
		Start:    c.Start,
		End:      c.End,
		ID:       c.ID,
		Config: style.Override{
			Fill:          c.Fill,
			FillOpacity:   c.FillOpacity,
			Stroke:        c.Stroke,
			StrokeWidth:   c.StrokeWidth,
			StrokeOpacity: c.StrokeOpacity,
		},
	})
	if err != nil {
		return err
	}
	a.Logger().WithField("id", r.ID).Info("selected %q at %v", r.Text, bounds)

	if c.Append != "" {
		replaced, err := app.AppendRange(c.Append, r)
		if err != nil {
			return err
		}
		if replaced {
			a.Logger().WithField("id", r.ID).Info("replaced existing descriptor in %s", c.Append)
		}
	}

	data, err := ranges.Marshal(r)
	if err != nil {
		return err
	}
	fmt.Fprintln(g.out(), string(data))
	return nil
}

// PreviewCmd runs the interactive terminal preview.
type PreviewCmd struct {
	Text   string `arg:"" help:"Text file." type:"existingfile"`
	Ranges string `short:"r" help:"JSON file of highlight descriptors to start with." type:"path"`
	Save   string `short:"s" help:"Write the highlights to this JSON file on exit." type:"path"`
}

func (c *PreviewCmd) Run(g *Globals) error {
	// The terminal is in use; logs go to --log-file or nowhere.
	a, closeLog, err := g.open(io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()

	doc, err := a.LoadDocument(c.Text, 0, dom.NewCellMeasurer(1, 1))
	if err != nil {
		return err
	}
	var initial []ranges.Range
	if c.Ranges != "" {
		if initial, err = app.LoadRanges(c.Ranges); err != nil {
			return err
		}
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing terminal: %w", err)
	}
	defer screen.Fini()

	p, err := preview.New(screen, doc,
		highlighter.WithConfig(a.Config()),
		highlighter.WithLogger(a.Logger()),
	)
	if err != nil {
		return err
	}
	defer p.Close()
	p.Highlighter().RenderRanges(initial)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if c.Save != "" {
		return app.SaveRanges(c.Save, p.Highlighter().Ranges())
	}
	return nil
}

// VersionCmd prints build information.
type VersionCmd struct{}

func (c *VersionCmd) Run(g *Globals) error {
	fmt.Fprintf(g.out(), "highlighter %s\n", version)
	fmt.Fprintf(g.out(), "Commit: %s\n", commit)
	fmt.Fprintf(g.out(), "Built: %s\n", date)
	return nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("highlighter"),
		kong.Description("Paint highlight overlays over text without touching it."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
