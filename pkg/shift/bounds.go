package shift

import "fmt"

// An Offset is how far B has to move against A to line the two up:
// A(x,y) corresponds to B(x+DX, y+DY).
type Offset struct {
	DX int
	DY int
}

func (o Offset) String() string { return fmt.Sprintf("(%d,%d)", o.DX, o.DY) }
func (o Offset) Neg() Offset    { return Offset{-o.DX, -o.DY} }

// Bounds is the inclusive window of offsets a search explores.
type Bounds struct {
	MinX int `yaml:"minx" toml:"minx"`
	MaxX int `yaml:"maxx" toml:"maxx"`
	MinY int `yaml:"miny" toml:"miny"`
	MaxY int `yaml:"maxy" toml:"maxy"`
}

// DefaultBounds covers +/-20 pixels on both axes.
func DefaultBounds() Bounds {
	return Bounds{MinX: -20, MaxX: 20, MinY: -20, MaxY: 20}
}

func (b Bounds) String() string {
	return fmt.Sprintf("x[%d,%d] y[%d,%d]", b.MinX, b.MaxX, b.MinY, b.MaxY)
}

// Width and Height are the number of dx and dy values in the window;
// zero if the bounds are inverted.
func (b Bounds) Width() int  { return max(0, b.MaxX-b.MinX+1) }
func (b Bounds) Height() int { return max(0, b.MaxY-b.MinY+1) }
func (b Bounds) Len() int    { return b.Width() * b.Height() }

// Mirror negates the window, so that searching B against A over the
// mirrored bounds explores the same relative positions as A against B.
func (b Bounds) Mirror() Bounds {
	return Bounds{MinX: -b.MaxX, MaxX: -b.MinX, MinY: -b.MaxY, MaxY: -b.MinY}
}

// Contains reports whether o lies inside the window.
func (b Bounds) Contains(o Offset) bool {
	return o.DX >= b.MinX && o.DX <= b.MaxX && o.DY >= b.MinY && o.DY <= b.MaxY
}

// At returns the i'th offset in search order: dx is the outer loop,
// dy the inner one.
func (b Bounds) At(i int) Offset {
	h := b.Height()
	return Offset{DX: b.MinX + i/h, DY: b.MinY + i%h}
}

// Index is the inverse of At.
func (b Bounds) Index(o Offset) int {
	return (o.DX-b.MinX)*b.Height() + (o.DY - b.MinY)
}

// Validate checks the window is not empty. Search itself does not
// care; an empty window just finds nothing.
func (b Bounds) Validate() error {
	if b.MinX > b.MaxX {
		return fmt.Errorf("bounds: minx %d > maxx %d", b.MinX, b.MaxX)
	}
	if b.MinY > b.MaxY {
		return fmt.Errorf("bounds: miny %d > maxy %d", b.MinY, b.MaxY)
	}
	return nil
}
