package dom

import (
	"github.com/rivo/uniseg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Measurer reports the advance of grapheme clusters and the height of a
// line of text.
type Measurer interface {
	// Advance returns the horizontal advance of one grapheme cluster.
	Advance(cluster string) float64
	// LineHeight returns the height of a line box.
	LineHeight() float64
}

// CellMeasurer measures text on a fixed cell grid, the way a terminal lays
// it out. Wide (East Asian, emoji) clusters take two cells.
type CellMeasurer struct {
	CellWidth  float64
	CellHeight float64
}

// NewCellMeasurer creates a cell measurer. Non-positive sizes default to 1.
func NewCellMeasurer(cellWidth, cellHeight float64) CellMeasurer {
	if cellWidth <= 0 {
		cellWidth = 1
	}
	if cellHeight <= 0 {
		cellHeight = 1
	}
	return CellMeasurer{CellWidth: cellWidth, CellHeight: cellHeight}
}

// Advance implements Measurer.
func (m CellMeasurer) Advance(cluster string) float64 {
	return float64(uniseg.StringWidth(cluster)) * m.CellWidth
}

// LineHeight implements Measurer.
func (m CellMeasurer) LineHeight() float64 {
	return m.CellHeight
}

// FaceMeasurer measures text with a font face.
type FaceMeasurer struct {
	face font.Face
}

// NewFaceMeasurer creates a measurer for face. A nil face uses the 7x13
// bitmap face.
func NewFaceMeasurer(face font.Face) FaceMeasurer {
	if face == nil {
		face = basicfont.Face7x13
	}
	return FaceMeasurer{face: face}
}

// Face returns the underlying font face.
func (m FaceMeasurer) Face() font.Face {
	return m.face
}

// Advance implements Measurer.
func (m FaceMeasurer) Advance(cluster string) float64 {
	return fixedToFloat(font.MeasureString(m.face, cluster))
}

// LineHeight implements Measurer.
func (m FaceMeasurer) LineHeight() float64 {
	return fixedToFloat(m.face.Metrics().Height)
}

// Ascent returns the distance from the top of a line box to the baseline.
func (m FaceMeasurer) Ascent() float64 {
	return fixedToFloat(m.face.Metrics().Ascent)
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
