package shift

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"

	"github.com/mdouchement/hdr/codec/rgbe"
	"github.com/mdouchement/hdr/hdrcolor"

	"github.com/abworrall/corrshift/pkg/emath"
)

// A ScoreMap holds the score of every candidate in a search window;
// cell (dx-MinX, dy-MinY) is the score for offset (dx,dy). Offsets with
// no overlap, or with an undefined correlation, hold NaN.
type ScoreMap struct {
	Bounds Bounds
	grid   emath.FloatGrid
}

// newScoreMap takes scores in search order (dx outer, dy inner).
func newScoreMap(bounds Bounds, scores []float64) *ScoreMap {
	m := &ScoreMap{Bounds: bounds, grid: emath.NewFloatGrid(bounds.Width(), bounds.Height())}
	for i, s := range scores {
		o := bounds.At(i)
		m.grid.Set(o.DX-bounds.MinX, o.DY-bounds.MinY, s)
	}
	return m
}

// At returns the score for o, or NaN if o is outside the window.
func (m *ScoreMap) At(o Offset) float64 {
	if !m.Bounds.Contains(o) {
		return math.NaN()
	}
	return m.grid.Get(o.DX-m.Bounds.MinX, o.DY-m.Bounds.MinY)
}

func (m *ScoreMap) String() string {
	return fmt.Sprintf("ScoreMap[%s %s]", m.Bounds, m.grid.Stats())
}

// WritePNG saves a heat map of the scores, eight pixels per offset.
func (m *ScoreMap) WritePNG(title, filename string) error {
	if err := m.grid.ToImg(title, filename, 8); err != nil {
		return fmt.Errorf("ScoreMap.WritePNG, '%s': %v", filename, err)
	}
	return nil
}

// WriteHDR outputs the scores as a Radiance RGBE file, which keeps
// them as floats. Scores are mapped from [-1,1] to [0,1] (RGBE cannot
// hold negatives); NaN cells are written as 0.
func (m *ScoreMap) WriteHDR(filename string) error {
	writer, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("ScoreMap.WriteHDR, open+w '%s': %v", filename, err)
	}
	defer writer.Close()

	if err := rgbe.Encode(writer, scoreImage{m}); err != nil {
		return fmt.Errorf("ScoreMap.WriteHDR, encoding RGBE file: %v", err)
	}
	return nil
}

// scoreImage presents a ScoreMap as an hdr.Image.
type scoreImage struct {
	m *ScoreMap
}

// Implement image.Image
func (si scoreImage) ColorModel() color.Model { return hdrcolor.RGBModel }
func (si scoreImage) Bounds() image.Rectangle { return si.m.grid.Bounds() }
func (si scoreImage) At(x, y int) color.Color { return si.HDRAt(x, y) }

// Implement hdr.Image
func (si scoreImage) Size() int { return si.m.grid.Dx() * si.m.grid.Dy() }

func (si scoreImage) HDRAt(x, y int) hdrcolor.Color {
	s := si.m.grid.Get(x, y)
	if math.IsNaN(s) {
		return hdrcolor.RGB{}
	}
	v := emath.Clamp((s+1.0)/2.0, 0, 1)
	return hdrcolor.RGB{R: v, G: v, B: v}
}
