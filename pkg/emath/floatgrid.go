package emath

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"
)

// A FloatGrid is a grid of floats, stored row-major in a single flat
// slice. (x,y) lives at values[stride*y + x].
type FloatGrid struct {
	stride int
	values []float64
}

func NewFloatGrid(w, h int) FloatGrid {
	return FloatGrid{
		stride: w,
		values: make([]float64, w*h),
	}
}

// NewFloatGridFrom wraps a copy of `values`, which must hold w*h
// row-major samples.
func NewFloatGridFrom(w, h int, values []float64) (FloatGrid, error) {
	if w <= 0 || h <= 0 {
		return FloatGrid{}, fmt.Errorf("floatgrid: bad dimensions %dx%d", w, h)
	}
	if len(values) != w*h {
		return FloatGrid{}, fmt.Errorf("floatgrid: %dx%d needs %d values, got %d", w, h, w*h, len(values))
	}
	g := NewFloatGrid(w, h)
	copy(g.values, values)
	return g, nil
}

func (fg *FloatGrid) Set(x, y int, v float64) { fg.values[fg.stride*y+x] = v }
func (fg *FloatGrid) Get(x, y int) float64    { return fg.values[fg.stride*y+x] }
func (fg *FloatGrid) Dx() int                 { return fg.stride }
func (fg *FloatGrid) Bounds() image.Rectangle { return image.Rect(0, 0, fg.Dx(), fg.Dy()) }

func (fg *FloatGrid) Dy() int {
	if fg.stride == 0 {
		return 0
	}
	return len(fg.values) / fg.stride
}

// AppendRegion appends the values inside r to dst, row by row, and
// returns the extended slice. r must lie inside the grid.
func (fg *FloatGrid) AppendRegion(dst []float64, r image.Rectangle) []float64 {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		off := fg.stride * y
		dst = append(dst, fg.values[off+r.Min.X:off+r.Max.X]...)
	}
	return dst
}

// MinMax returns the smallest and largest non-NaN values. If every
// value is NaN, both are NaN.
func (fg *FloatGrid) MinMax() (float64, float64) {
	min, max := math.Inf(1), math.Inf(-1)
	for _, v := range fg.values {
		if math.IsNaN(v) {
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if math.IsInf(min, 1) {
		return math.NaN(), math.NaN()
	}
	return min, max
}

func (fg *FloatGrid) Stats() string {
	min, max := fg.MinMax()
	return fmt.Sprintf("fg[%dx%d, vals{%f,%f}]", fg.Dx(), fg.Dy(), min, max)
}

// ToImg renders the grid as a heat map, blue for the lowest value and
// red for the highest, with NaN cells left black. The title is drawn
// in the top left corner and the result saved as a PNG.
func (fg *FloatGrid) ToImg(title, filename string, scale int) error {
	if scale < 1 {
		scale = 1
	}
	min, max := fg.MinMax()

	img := image.NewRGBA(image.Rect(0, 0, fg.Dx()*scale, fg.Dy()*scale))
	for y := 0; y < fg.Dy(); y++ {
		for x := 0; x < fg.Dx(); x++ {
			col := HeatColor(Normalize(fg.Get(x, y), min, max))
			for sy := 0; sy < scale; sy++ {
				for sx := 0; sx < scale; sx++ {
					img.Set(x*scale+sx, y*scale+sy, col)
				}
			}
		}
	}

	dc := gg.NewContextForImage(img)
	dc.SetRGB(1, 1, 1)
	dc.DrawString(title, 4, 14)
	return dc.SavePNG(filename)
}

// HeatColor maps [0,1] onto a blue->red hue ramp. NaN maps to black.
func HeatColor(f float64) color.Color {
	if math.IsNaN(f) {
		return color.Black
	}
	f = Clamp(f, 0, 1)
	return colorful.Hsv(240.0*(1.0-f), 1.0, 0.25+0.75*f).Clamped()
}
