// Package config holds highlighter settings: defaults, validation and
// loading from TOML or YAML files and HIGHLIGHTER_* environment variables.
//
// Settings are layered: defaults, then the file, then the environment.
// Keys use the same names in every source:
//
//	position    = "relative"   # CSS position applied to the container
//	pixelRatio  = 2            # device pixels per CSS pixel
//	delay       = 200          # resize debounce, ms or a duration string
//
//	[style]
//	fill          = "#ffaa00"
//	fillOpacity   = 0.3
//	stroke        = "#ff6600"
//	strokeWidth   = 0
//	strokeOpacity = 1
//
//	[log]
//	level  = "info"
//	format = "text"
package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dshills/highlighter/internal/config/loader"
	"github.com/dshills/highlighter/internal/logging"
	"github.com/dshills/highlighter/internal/style"
)

// EnvPrefix is the prefix of environment variables read by ApplyEnv.
const EnvPrefix = "HIGHLIGHTER_"

// Positions lists the accepted CSS position modes.
var Positions = []string{"static", "relative", "absolute", "fixed", "sticky"}

// LogConfig selects log verbosity and encoding.
type LogConfig struct {
	Level  string
	Format string
}

// Config holds highlighter settings.
type Config struct {
	// Position is the CSS position mode applied to the container so the
	// overlay can be placed over it.
	Position string
	// PixelRatio is the number of device pixels per CSS pixel.
	PixelRatio float64
	// Delay is the resize debounce window. Zero re-renders synchronously.
	Delay time.Duration
	// Style is the default highlight style.
	Style style.Style
	// Log configures the logger built by Logger.
	Log LogConfig
}

// Default returns the default settings.
func Default() Config {
	return Config{
		Position:   "relative",
		PixelRatio: 1,
		Delay:      200 * time.Millisecond,
		Style:      style.Default(),
		Log:        LogConfig{Level: "info", Format: "text"},
	}
}

// Validate checks every setting.
func (c Config) Validate() error {
	if !slices.Contains(Positions, c.Position) {
		return &SettingError{Path: "position", Value: c.Position, Err: ErrInvalidPosition}
	}
	if !(c.PixelRatio > 0) || math.IsInf(c.PixelRatio, 1) {
		return &SettingError{Path: "pixelRatio", Value: c.PixelRatio, Err: ErrInvalidPixelRatio}
	}
	if c.Delay < 0 {
		return &SettingError{Path: "delay", Value: c.Delay, Err: ErrInvalidDelay}
	}
	if err := c.Style.Validate(); err != nil {
		return fmt.Errorf("style: %w", err)
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return &SettingError{Path: "log.level", Value: c.Log.Level, Err: ErrTypeMismatch}
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return &SettingError{Path: "log.format", Value: c.Log.Format, Err: ErrTypeMismatch}
	}
	return nil
}

// Logger builds a logger writing to w according to c.Log.
func (c Config) Logger(w io.Writer) *logging.Logger {
	return logging.New(logging.Config{
		Level:  logging.ParseLevel(c.Log.Level),
		Format: logging.ParseFormat(c.Log.Format),
		Output: w,
	})
}

// Load reads a .toml, .yaml or .yml file over the defaults.
func Load(path string) (Config, error) {
	return LoadFS(loader.DefaultFS(), path)
}

// LoadFS is Load reading through fsys.
func LoadFS(fsys loader.FileSystem, path string) (Config, error) {
	var l loader.FileLoader
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		l = loader.NewTOMLLoaderWithFS(fsys, path)
	case ".yaml", ".yml":
		l = loader.NewYAMLLoaderWithFS(fsys, path)
	default:
		return Config{}, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}

	m, err := l.Load()
	if err != nil {
		return Config{}, err
	}
	if m == nil {
		return Config{}, fmt.Errorf("%s: %w", path, ErrFileNotFound)
	}

	cfg, err := FromMap(Default(), m, true)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with environment variables carrying prefix.
// Unknown variables are ignored.
func ApplyEnv(cfg Config, prefix string) (Config, error) {
	m, err := loader.NewEnvLoader(prefix).Load()
	if err != nil {
		return cfg, err
	}
	cfg, err = FromMap(cfg, m, false)
	if err != nil {
		return cfg, fmt.Errorf("environment: %w", err)
	}
	return cfg, nil
}

// FromMap applies the settings in m over base and validates the result.
// In strict mode unknown keys are an error; otherwise they are skipped.
func FromMap(base Config, m map[string]any, strict bool) (Config, error) {
	cfg := base
	flat := make(map[string]any)
	flatten("", m, flat)

	paths := make([]string, 0, len(flat))
	for p := range flat {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		err := cfg.set(p, flat[p])
		if err == nil {
			continue
		}
		if !strict && errors.Is(err, ErrUnknownSetting) {
			continue
		}
		return base, err
	}

	if err := cfg.Validate(); err != nil {
		return base, err
	}
	return cfg, nil
}

func (c *Config) set(path string, v any) error {
	mismatch := &SettingError{Path: path, Value: v, Err: ErrTypeMismatch}

	switch path {
	case "position":
		s, ok := v.(string)
		if !ok {
			return mismatch
		}
		c.Position = strings.ToLower(s)
	case "pixelRatio":
		f, ok := toFloat(v)
		if !ok {
			return mismatch
		}
		c.PixelRatio = f
	case "delay":
		d, ok := toDuration(v)
		if !ok {
			return mismatch
		}
		c.Delay = d
	case "style.fill", "style.stroke":
		col, err := style.ParseColor(fmt.Sprint(v))
		if err != nil {
			return &SettingError{Path: path, Value: v, Err: err}
		}
		if path == "style.fill" {
			c.Style.Fill = col
		} else {
			c.Style.Stroke = col
		}
	case "style.fillOpacity", "style.strokeWidth", "style.strokeOpacity":
		f, ok := toFloat(v)
		if !ok {
			return mismatch
		}
		switch path {
		case "style.fillOpacity":
			c.Style.FillOpacity = f
		case "style.strokeWidth":
			c.Style.StrokeWidth = f
		default:
			c.Style.StrokeOpacity = f
		}
	case "log.level", "log.format":
		s, ok := v.(string)
		if !ok {
			return mismatch
		}
		if path == "log.level" {
			c.Log.Level = s
		} else {
			c.Log.Format = s
		}
	default:
		return &SettingError{Path: path, Value: v, Err: ErrUnknownSetting}
	}
	return nil
}

// flatten turns nested maps into dot-separated paths.
func flatten(prefix string, m map[string]any, out map[string]any) {
	for k, v := range m {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			flatten(path, sub, out)
			continue
		}
		out[path] = v
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// toDuration accepts a time.Duration, a duration string, or a number of
// milliseconds.
func toDuration(v any) (time.Duration, bool) {
	switch d := v.(type) {
	case time.Duration:
		return d, true
	case string:
		if parsed, err := time.ParseDuration(strings.TrimSpace(d)); err == nil {
			return parsed, true
		}
	}
	ms, ok := toFloat(v)
	if !ok {
		return 0, false
	}
	return time.Duration(ms * float64(time.Millisecond)), true
}
