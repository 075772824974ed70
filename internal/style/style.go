// Package style defines how highlight rectangles are painted.
package style

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// Errors returned by style validation.
var (
	// ErrInvalidColor indicates a color string could not be parsed.
	ErrInvalidColor = errors.New("invalid color")

	// ErrInvalidOpacity indicates an opacity outside [0, 1].
	ErrInvalidOpacity = errors.New("opacity must be within [0, 1]")

	// ErrInvalidWidth indicates a negative or non-finite stroke width.
	ErrInvalidWidth = errors.New("stroke width must be finite and not negative")
)

// Style is a fully resolved highlight style.
type Style struct {
	// Fill is the color painted inside each rectangle.
	Fill colorful.Color
	// FillOpacity is the alpha applied to Fill, in [0, 1].
	FillOpacity float64
	// Stroke is the border color.
	Stroke colorful.Color
	// StrokeWidth is the border width in CSS pixels. Zero disables the border.
	StrokeWidth float64
	// StrokeOpacity is the alpha applied to Stroke, in [0, 1].
	StrokeOpacity float64
}

// Default returns the default highlight style: a translucent amber fill
// without a border.
func Default() Style {
	return Style{
		Fill:          MustParseColor("#ffaa00"),
		FillOpacity:   0.3,
		Stroke:        MustParseColor("#ff6600"),
		StrokeWidth:   0,
		StrokeOpacity: 1,
	}
}

// Validate checks the numeric ranges of the style.
func (s Style) Validate() error {
	if !validOpacity(s.FillOpacity) {
		return fmt.Errorf("fill: %w", ErrInvalidOpacity)
	}
	if !validOpacity(s.StrokeOpacity) {
		return fmt.Errorf("stroke: %w", ErrInvalidOpacity)
	}
	if !(s.StrokeWidth >= 0) || math.IsInf(s.StrokeWidth, 1) {
		return ErrInvalidWidth
	}
	return nil
}

// validOpacity rejects NaN along with values outside [0, 1].
func validOpacity(v float64) bool {
	return v >= 0 && v <= 1
}

// FillPaint returns the fill color with its opacity applied.
func (s Style) FillPaint() color.Color {
	return withAlpha(s.Fill, s.FillOpacity)
}

// StrokePaint returns the stroke color with its opacity applied.
func (s Style) StrokePaint() color.Color {
	return withAlpha(s.Stroke, s.StrokeOpacity)
}

// HasStroke returns true if a border should be drawn.
func (s Style) HasStroke() bool {
	return s.StrokeWidth > 0 && s.StrokeOpacity > 0
}

// HasFill returns true if the interior should be painted.
func (s Style) HasFill() bool {
	return s.FillOpacity > 0
}

func withAlpha(c colorful.Color, opacity float64) color.NRGBA {
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: uint8(opacity*255 + 0.5)}
}

// ParseColor parses a hex color ("#rgb", "#rrggbb", with or without the
// leading '#') or a CSS color name.
func ParseColor(s string) (colorful.Color, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return colorful.Color{}, fmt.Errorf("%w: empty", ErrInvalidColor)
	}
	if named, ok := colornames.Map[strings.ToLower(s)]; ok {
		c, _ := colorful.MakeColor(named)
		return c, nil
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("%w: %s", ErrInvalidColor, s)
	}
	return c, nil
}

// MustParseColor is like ParseColor but panics on error.
// It is intended for package-level defaults only.
func MustParseColor(s string) colorful.Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

// FormatColor returns the lowercase "#rrggbb" form of c.
func FormatColor(c colorful.Color) string {
	return c.Clamped().Hex()
}
