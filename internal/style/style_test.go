package style

import (
	"errors"
	"image/color"
	"math"
	"testing"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"#ff8040", "#ff8040", false},
		{"#FF8040", "#ff8040", false},
		{"ff8040", "#ff8040", false},
		{"#fff", "#ffffff", false},
		{"yellow", "#ffff00", false},
		{"Red", "#ff0000", false},
		{"", "", true},
		{"#ggg", "", true},
		{"not-a-color", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := ParseColor(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseColor(%q) should fail", tt.in)
				}
				if !errors.Is(err, ErrInvalidColor) {
					t.Errorf("error = %v, want ErrInvalidColor", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseColor(%q) error: %v", tt.in, err)
			}
			if got := FormatColor(c); got != tt.want {
				t.Errorf("ParseColor(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestDefaultStyle(t *testing.T) {
	s := Default()

	if err := s.Validate(); err != nil {
		t.Fatalf("Default() should validate: %v", err)
	}
	if !s.HasFill() {
		t.Error("default style should fill")
	}
	if s.HasStroke() {
		t.Error("default style should not stroke")
	}
	if got := FormatColor(s.Fill); got != "#ffaa00" {
		t.Errorf("Fill = %s, want #ffaa00", got)
	}
}

func TestFillPaint(t *testing.T) {
	s := Default()
	s.FillOpacity = 0.5

	got, ok := s.FillPaint().(color.NRGBA)
	if !ok {
		t.Fatalf("FillPaint() type = %T, want color.NRGBA", s.FillPaint())
	}
	want := color.NRGBA{R: 0xff, G: 0xaa, B: 0x00, A: 128}
	if got != want {
		t.Errorf("FillPaint() = %v, want %v", got, want)
	}
}

func TestStyleValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Style)
		want   error
	}{
		{"fill opacity high", func(s *Style) { s.FillOpacity = 1.5 }, ErrInvalidOpacity},
		{"stroke opacity negative", func(s *Style) { s.StrokeOpacity = -0.1 }, ErrInvalidOpacity},
		{"negative width", func(s *Style) { s.StrokeWidth = -1 }, ErrInvalidWidth},
		{"fill opacity NaN", func(s *Style) { s.FillOpacity = math.NaN() }, ErrInvalidOpacity},
		{"stroke opacity NaN", func(s *Style) { s.StrokeOpacity = math.NaN() }, ErrInvalidOpacity},
		{"width NaN", func(s *Style) { s.StrokeWidth = math.NaN() }, ErrInvalidWidth},
		{"width infinite", func(s *Style) { s.StrokeWidth = math.Inf(1) }, ErrInvalidWidth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.mutate(&s)
			if err := s.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestOverrideApply(t *testing.T) {
	base := Default()

	o := Override{
		Fill:        "#00ff00",
		StrokeWidth: Float(2),
	}
	got := o.Apply(base)

	if FormatColor(got.Fill) != "#00ff00" {
		t.Errorf("Fill = %s, want #00ff00", FormatColor(got.Fill))
	}
	if got.StrokeWidth != 2 {
		t.Errorf("StrokeWidth = %g, want 2", got.StrokeWidth)
	}
	if got.FillOpacity != base.FillOpacity {
		t.Errorf("FillOpacity = %g, want unchanged %g", got.FillOpacity, base.FillOpacity)
	}

	bad := Override{Fill: "nope"}
	if FormatColor(bad.Apply(base).Fill) != FormatColor(base.Fill) {
		t.Error("unparsable fill should keep the base color")
	}
	if err := bad.Validate(); !errors.Is(err, ErrInvalidColor) {
		t.Errorf("Validate() = %v, want ErrInvalidColor", err)
	}
}

func TestOverrideEqualClone(t *testing.T) {
	a := Override{Fill: "red", FillOpacity: Float(0.4)}
	b := a.Clone()

	if !a.Equal(b) {
		t.Fatal("clone should equal original")
	}

	*b.FillOpacity = 0.9
	if *a.FillOpacity != 0.4 {
		t.Error("mutating clone changed original")
	}
	if a.Equal(b) {
		t.Error("overrides with different opacity should differ")
	}

	if !(Override{}).IsZero() {
		t.Error("empty override should be zero")
	}
	if a.IsZero() {
		t.Error("override with fields should not be zero")
	}
}
