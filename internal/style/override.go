package style

import "fmt"

// Override holds per-range style overrides. Empty strings and nil pointers
// leave the corresponding default untouched.
type Override struct {
	Fill          string
	FillOpacity   *float64
	Stroke        string
	StrokeWidth   *float64
	StrokeOpacity *float64
}

// Float returns a pointer to v, for building Overrides.
func Float(v float64) *float64 {
	return &v
}

// IsZero returns true if the override changes nothing.
func (o Override) IsZero() bool {
	return o.Fill == "" && o.FillOpacity == nil && o.Stroke == "" &&
		o.StrokeWidth == nil && o.StrokeOpacity == nil
}

// Validate checks that every set field parses and is in range.
func (o Override) Validate() error {
	if o.Fill != "" {
		if _, err := ParseColor(o.Fill); err != nil {
			return fmt.Errorf("fill: %w", err)
		}
	}
	if o.Stroke != "" {
		if _, err := ParseColor(o.Stroke); err != nil {
			return fmt.Errorf("stroke: %w", err)
		}
	}
	return o.Apply(Default()).Validate()
}

// Apply returns base with the override's set fields replacing it.
// Colors that fail to parse keep the base color.
func (o Override) Apply(base Style) Style {
	result := base
	if o.Fill != "" {
		if c, err := ParseColor(o.Fill); err == nil {
			result.Fill = c
		}
	}
	if o.FillOpacity != nil {
		result.FillOpacity = *o.FillOpacity
	}
	if o.Stroke != "" {
		if c, err := ParseColor(o.Stroke); err == nil {
			result.Stroke = c
		}
	}
	if o.StrokeWidth != nil {
		result.StrokeWidth = *o.StrokeWidth
	}
	if o.StrokeOpacity != nil {
		result.StrokeOpacity = *o.StrokeOpacity
	}
	return result
}

// Equal returns true if both overrides set the same fields to the same values.
func (o Override) Equal(other Override) bool {
	return o.Fill == other.Fill &&
		o.Stroke == other.Stroke &&
		floatPtrEqual(o.FillOpacity, other.FillOpacity) &&
		floatPtrEqual(o.StrokeWidth, other.StrokeWidth) &&
		floatPtrEqual(o.StrokeOpacity, other.StrokeOpacity)
}

// Clone returns a deep copy of the override.
func (o Override) Clone() Override {
	return Override{
		Fill:          o.Fill,
		FillOpacity:   cloneFloat(o.FillOpacity),
		Stroke:        o.Stroke,
		StrokeWidth:   cloneFloat(o.StrokeWidth),
		StrokeOpacity: cloneFloat(o.StrokeOpacity),
	}
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
