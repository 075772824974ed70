package config

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dshills/highlighter/internal/style"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Position != "relative" {
		t.Errorf("Position = %q, want relative", cfg.Position)
	}
	if cfg.PixelRatio != 1 {
		t.Errorf("PixelRatio = %g, want 1", cfg.PixelRatio)
	}
	if cfg.Delay != 200*time.Millisecond {
		t.Errorf("Delay = %v, want 200ms", cfg.Delay)
	}
	if got := style.FormatColor(cfg.Style.Fill); got != "#ffaa00" {
		t.Errorf("Style.Fill = %s, want #ffaa00", got)
	}
	if cfg.Style.HasStroke() {
		t.Error("default style should have no stroke")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"zero pixel ratio", func(c *Config) { c.PixelRatio = 0 }, ErrInvalidPixelRatio},
		{"negative pixel ratio", func(c *Config) { c.PixelRatio = -2 }, ErrInvalidPixelRatio},
		{"NaN pixel ratio", func(c *Config) { c.PixelRatio = math.NaN() }, ErrInvalidPixelRatio},
		{"infinite pixel ratio", func(c *Config) { c.PixelRatio = math.Inf(1) }, ErrInvalidPixelRatio},
		{"NaN fill opacity", func(c *Config) { c.Style.FillOpacity = math.NaN() }, style.ErrInvalidOpacity},
		{"NaN stroke opacity", func(c *Config) { c.Style.StrokeOpacity = math.NaN() }, style.ErrInvalidOpacity},
		{"infinite stroke width", func(c *Config) { c.Style.StrokeWidth = math.Inf(1) }, style.ErrInvalidWidth},
		{"negative delay", func(c *Config) { c.Delay = -time.Millisecond }, ErrInvalidDelay},
		{"unknown position", func(c *Config) { c.Position = "floating" }, ErrInvalidPosition},
		{"opacity above one", func(c *Config) { c.Style.FillOpacity = 1.5 }, style.ErrInvalidOpacity},
		{"negative stroke width", func(c *Config) { c.Style.StrokeWidth = -1 }, style.ErrInvalidWidth},
		{"unknown log level", func(c *Config) { c.Log.Level = "loud" }, ErrTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}

	zero := Default()
	zero.Delay = 0
	if err := zero.Validate(); err != nil {
		t.Errorf("zero delay should be valid, got %v", err)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "highlighter.toml", `
pixelRatio = 2
delay = 50

[style]
fill = "skyblue"
strokeWidth = 1.5
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.PixelRatio != 2 {
		t.Errorf("PixelRatio = %g, want 2", cfg.PixelRatio)
	}
	if cfg.Delay != 50*time.Millisecond {
		t.Errorf("Delay = %v, want 50ms", cfg.Delay)
	}
	if got := style.FormatColor(cfg.Style.Fill); got != "#87ceeb" {
		t.Errorf("Style.Fill = %s, want #87ceeb", got)
	}
	if cfg.Style.StrokeWidth != 1.5 {
		t.Errorf("Style.StrokeWidth = %g, want 1.5", cfg.Style.StrokeWidth)
	}
	// Unspecified keys keep their defaults.
	if cfg.Position != "relative" || cfg.Style.FillOpacity != 0.3 {
		t.Errorf("defaults not preserved: %+v", cfg)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "highlighter.yml", `
position: absolute
delay: 1s
style:
  fillOpacity: 0.6
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Position != "absolute" {
		t.Errorf("Position = %q, want absolute", cfg.Position)
	}
	if cfg.Delay != time.Second {
		t.Errorf("Delay = %v, want 1s", cfg.Delay)
	}
	if cfg.Style.FillOpacity != 0.6 {
		t.Errorf("Style.FillOpacity = %g, want 0.6", cfg.Style.FillOpacity)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "missing.toml")); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("missing file error = %v, want ErrFileNotFound", err)
	}
	if _, err := Load(writeFile(t, "conf.ini", "x=1")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("ini error = %v, want ErrUnsupportedFormat", err)
	}

	var perr *ParseError
	if _, err := Load(writeFile(t, "bad.toml", "pixelRatio = = 1")); !errors.As(err, &perr) {
		t.Errorf("malformed file error = %v, want *ParseError", err)
	}

	_, err := Load(writeFile(t, "typo.toml", "pixelRaito = 2"))
	var serr *SettingError
	if !errors.As(err, &serr) || !errors.Is(err, ErrUnknownSetting) || serr.Path != "pixelRaito" {
		t.Errorf("unknown key error = %v, want SettingError for pixelRaito", err)
	}

	if _, err := Load(writeFile(t, "type.toml", "position = 3")); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("wrong type error = %v, want ErrTypeMismatch", err)
	}
	if _, err := Load(writeFile(t, "color.toml", "[style]\nfill = \"nope\"")); !errors.Is(err, style.ErrInvalidColor) {
		t.Errorf("bad color error = %v, want ErrInvalidColor", err)
	}
	if _, err := Load(writeFile(t, "ratio.toml", "pixelRatio = 0")); !errors.Is(err, ErrInvalidPixelRatio) {
		t.Errorf("zero ratio error = %v, want ErrInvalidPixelRatio", err)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("HIGHLIGHTER_PIXEL_RATIO", "3")
	t.Setenv("HIGHLIGHTER_DELAY", "0")
	t.Setenv("HIGHLIGHTER_STYLE_STROKE", "navy")
	t.Setenv("HIGHLIGHTER_CONFIG", "/ignored/path.toml")

	base := Default()
	base.Position = "fixed"

	cfg, err := ApplyEnv(base, EnvPrefix)
	if err != nil {
		t.Fatalf("ApplyEnv error: %v", err)
	}
	if cfg.PixelRatio != 3 {
		t.Errorf("PixelRatio = %g, want 3", cfg.PixelRatio)
	}
	if cfg.Delay != 0 {
		t.Errorf("Delay = %v, want 0", cfg.Delay)
	}
	if got := style.FormatColor(cfg.Style.Stroke); got != "#000080" {
		t.Errorf("Style.Stroke = %s, want #000080", got)
	}
	if cfg.Position != "fixed" {
		t.Errorf("Position = %q, base value should survive", cfg.Position)
	}
}

func TestApplyEnvInvalid(t *testing.T) {
	for _, v := range []string{"-1", "NaN", "Inf"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv("HIGHLIGHTER_PIXEL_RATIO", v)

			base := Default()
			cfg, err := ApplyEnv(base, EnvPrefix)
			if !errors.Is(err, ErrInvalidPixelRatio) {
				t.Errorf("ApplyEnv error = %v, want ErrInvalidPixelRatio", err)
			}
			if cfg.PixelRatio != base.PixelRatio {
				t.Error("a failed ApplyEnv should return the base config")
			}
		})
	}
}

func TestLogger(t *testing.T) {
	cfg := Default()
	cfg.Log = LogConfig{Level: "warn", Format: "text"}

	var buf bytes.Buffer
	logger := cfg.Logger(&buf)
	logger.Info("hidden")
	logger.Warn("shown")

	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("logger output = %q", buf.String())
	}
}
