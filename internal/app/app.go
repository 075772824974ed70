// Package app wires configuration, documents and highlighters together for
// the command line tools: it loads text and highlight descriptors, renders
// them to images and answers hit and selection queries.
package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"golang.org/x/image/font"

	"github.com/dshills/highlighter/internal/config"
	"github.com/dshills/highlighter/internal/dom"
	"github.com/dshills/highlighter/internal/geom"
	"github.com/dshills/highlighter/internal/highlighter"
	"github.com/dshills/highlighter/internal/logging"
	"github.com/dshills/highlighter/internal/ranges"
	"github.com/dshills/highlighter/internal/stage/raster"
	"github.com/dshills/highlighter/internal/style"
)

// Options configures the application.
type Options struct {
	// ConfigPath is the path to a .toml or .yaml configuration file.
	// Empty means defaults.
	ConfigPath string

	// LogLevel overrides the configured log level when set.
	LogLevel string

	// LogOutput receives log records. Defaults to stderr.
	LogOutput io.Writer

	// Face is the font used to lay out and draw text. Defaults to the 7x13
	// bitmap face.
	Face font.Face
}

// App holds the effective configuration shared by every command.
type App struct {
	cfg      config.Config
	logger   *logging.Logger
	measurer dom.FaceMeasurer
}

// New resolves configuration: defaults, then the file, then HIGHLIGHTER_*
// environment variables, then the options.
func New(opts Options) (*App, error) {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return nil, NewOperationError("load config", opts.ConfigPath, err)
		}
		cfg = loaded
	}

	cfg, err := config.ApplyEnv(cfg, config.EnvPrefix)
	if err != nil {
		return nil, NewOperationError("load config", "environment", err)
	}

	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
		if err := cfg.Validate(); err != nil {
			return nil, NewOperationError("load config", "log level", err)
		}
	}

	out := opts.LogOutput
	if out == nil {
		out = os.Stderr
	}

	a := &App{
		cfg:      cfg,
		logger:   cfg.Logger(out),
		measurer: dom.NewFaceMeasurer(opts.Face),
	}
	a.logger.Debug("config resolved (position %s, pixel ratio %g, delay %v)", cfg.Position, cfg.PixelRatio, cfg.Delay)
	return a, nil
}

// Config returns the effective configuration.
func (a *App) Config() config.Config {
	return a.cfg
}

// Logger returns the application logger.
func (a *App) Logger() *logging.Logger {
	return a.logger
}

// LoadDocument reads a text file into a document of the given client width.
// The height grows to fit the text. A nil measurer uses the app font.
func (a *App) LoadDocument(path string, width float64, m dom.Measurer) (*dom.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewOperationError("load text", path, err)
	}
	if m == nil {
		m = a.measurer
	}
	doc := dom.FromText(string(data), width, 0, dom.WithMeasurer(m))
	a.logger.Debug("loaded %s: %d blocks", path, len(doc.Blocks()))
	return doc, nil
}

// LoadRanges reads a JSON array of highlight descriptors.
func LoadRanges(path string) ([]ranges.Range, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewOperationError("load ranges", path, err)
	}
	rs, err := ranges.UnmarshalList(data)
	if err != nil {
		return nil, NewOperationError("load ranges", path, err)
	}
	return rs, nil
}

// SaveRanges writes rs as a JSON array of highlight descriptors.
func SaveRanges(path string, rs []ranges.Range) error {
	data, err := ranges.MarshalList(rs)
	if err != nil {
		return NewOperationError("save ranges", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return NewOperationError("save ranges", path, err)
	}
	return nil
}

// AppendRange adds r to the descriptor file at path, creating the file if
// needed. A descriptor with the same id is removed first, so r ends up on
// top. It reports whether one was replaced.
func AppendRange(path string, r ranges.Range) (bool, error) {
	existing, err := LoadRanges(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, err
	}
	kept := slices.DeleteFunc(existing, func(e ranges.Range) bool {
		return e.ID == r.ID
	})
	replaced := len(kept) != len(existing)
	if err := SaveRanges(path, append(kept, r)); err != nil {
		return false, err
	}
	return replaced, nil
}

// Session is a document with a highlighter painting onto a bitmap.
type Session struct {
	Doc         *dom.Document
	Surface     *raster.Surface
	Highlighter *highlighter.Highlighter

	// Dropped lists the ids of descriptors that resolved to nothing.
	Dropped []string
}

// Close detaches the highlighter.
func (s *Session) Close() error {
	return s.Highlighter.Close()
}

// Open loads a text file and, when rangesPath is set, paints its
// descriptors.
func (a *App) Open(textPath, rangesPath string, width float64) (*Session, error) {
	doc, err := a.LoadDocument(textPath, width, nil)
	if err != nil {
		return nil, err
	}

	var rs []ranges.Range
	if rangesPath != "" {
		if rs, err = LoadRanges(rangesPath); err != nil {
			return nil, err
		}
	}

	surf := raster.New(0, 0)
	hl, err := highlighter.New(doc, surf,
		highlighter.WithConfig(a.cfg),
		highlighter.WithLogger(a.logger),
	)
	if err != nil {
		return nil, NewOperationError("attach", textPath, err)
	}
	hl.RenderRanges(rs)

	s := &Session{Doc: doc, Surface: surf, Highlighter: hl}
	painted := make(map[string]bool)
	for _, r := range hl.Ranges() {
		painted[r.ID] = true
	}
	for _, r := range rs {
		if !painted[r.ID] {
			s.Dropped = append(s.Dropped, r.ID)
		}
	}
	if len(s.Dropped) > 0 {
		a.logger.Warn("%d descriptors not painted: %v", len(s.Dropped), s.Dropped)
	}
	return s, nil
}

// Hit returns the ids of the descriptors covering (x, y), bottom first.
func (a *App) Hit(textPath, rangesPath string, width, x, y float64) ([]string, error) {
	s, err := a.Open(textPath, rangesPath, width)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.Highlighter.RangeIDsAt(x, y), nil
}

// SelectRequest describes a selection by rune offsets into a text file.
type SelectRequest struct {
	TextPath string
	Width    float64
	// Start and End are rune offsets into the text, with paragraph breaks
	// counted as one rune.
	Start, End int
	// ID names the new descriptor; empty generates one.
	ID     string
	Config style.Override
}

// Select turns a text selection into a highlight descriptor and reports
// where it would be painted.
func (a *App) Select(req SelectRequest) (ranges.Range, geom.Rect, error) {
	if err := req.Config.Validate(); err != nil {
		return ranges.Range{}, geom.Rect{}, NewOperationError("select", req.TextPath, err)
	}

	var opts []highlighter.Option
	if req.ID != "" {
		opts = append(opts, highlighter.WithIDGenerator(func() string { return req.ID }))
	}

	doc, err := a.LoadDocument(req.TextPath, req.Width, nil)
	if err != nil {
		return ranges.Range{}, geom.Rect{}, err
	}
	start, ok1 := doc.BoundaryAtOffset(req.Start)
	end, ok2 := doc.BoundaryAtOffset(req.End)
	if !ok1 || !ok2 || req.Start >= req.End {
		err := fmt.Errorf("%d..%d: %w", req.Start, req.End, ErrInvalidOffsets)
		return ranges.Range{}, geom.Rect{}, NewOperationError("select", req.TextPath, err)
	}

	opts = append(opts, highlighter.WithConfig(a.cfg), highlighter.WithLogger(a.logger))
	hl, err := highlighter.New(doc, raster.New(0, 0), opts...)
	if err != nil {
		return ranges.Range{}, geom.Rect{}, NewOperationError("attach", req.TextPath, err)
	}
	defer hl.Close()

	sel := dom.NewSelection(start, end)
	r, ok := hl.SelectionRange(sel)
	if !ok {
		return ranges.Range{}, geom.Rect{}, NewOperationError("select", req.TextPath, ErrInvalidOffsets)
	}
	pos, ok := hl.SelectionPosition(sel)
	if !ok {
		return ranges.Range{}, geom.Rect{}, NewOperationError("select", req.TextPath, ErrNotVisible)
	}
	r.Config = req.Config
	return *r, pos.Bounds, nil
}
