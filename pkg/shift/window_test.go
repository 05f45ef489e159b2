package shift

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeWindows(t *testing.T) {
	tests := []struct {
		name           string
		dx, dy         int
		wA, hA, wB, hB int
		wantA, wantB   image.Rectangle
		wantOK         bool
	}{
		{"zero", 0, 0, 5, 5, 5, 5, image.Rect(0, 0, 5, 5), image.Rect(0, 0, 5, 5), true},
		{"positive", 2, 2, 5, 5, 5, 5, image.Rect(0, 0, 3, 3), image.Rect(2, 2, 5, 5), true},
		{"mixed", -2, 1, 5, 5, 5, 5, image.Rect(2, 0, 5, 4), image.Rect(0, 1, 3, 5), true},
		{"negative both", -4, -4, 5, 5, 5, 5, image.Rect(4, 4, 5, 5), image.Rect(0, 0, 1, 1), true},
		{"edge x", 5, 0, 5, 5, 5, 5, image.Rectangle{}, image.Rectangle{}, false},
		{"edge -y", 0, -5, 5, 5, 5, 5, image.Rectangle{}, image.Rectangle{}, false},
		{"past x", 6, 0, 5, 5, 5, 5, image.Rectangle{}, image.Rectangle{}, false},
		{"past -x", -9, 0, 5, 5, 5, 5, image.Rectangle{}, image.Rectangle{}, false},
		{"wider A", 0, 0, 10, 4, 6, 4, image.Rect(0, 0, 6, 4), image.Rect(0, 0, 6, 4), true},
		{"wider A negative", -3, 0, 10, 4, 6, 4, image.Rect(3, 0, 6, 4), image.Rect(0, 0, 3, 4), true},
		{"wider B", 2, 0, 4, 4, 10, 4, image.Rect(0, 0, 2, 4), image.Rect(2, 0, 4, 4), true},
		{"past narrower B", 7, 0, 10, 4, 6, 4, image.Rectangle{}, image.Rectangle{}, false},
		{"taller B", 0, -1, 3, 3, 3, 8, image.Rect(0, 1, 3, 3), image.Rect(0, 0, 3, 2), true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w, ok := ComputeWindows(tc.dx, tc.dy, tc.wA, tc.hA, tc.wB, tc.hB)
			assert.Equal(t, tc.wantOK, ok)
			if !tc.wantOK {
				return
			}
			assert.Equal(t, tc.wantA, w.A, "A window")
			assert.Equal(t, tc.wantB, w.B, "B window")
			assert.Equal(t, w.A.Size(), w.B.Size(), "windows must have the same shape")
			assert.Equal(t, image.Pt(tc.dx, tc.dy), w.B.Min.Sub(w.A.Min), "B must sit at A + offset")
		})
	}
}

func TestComputeWindowsStayInsideImages(t *testing.T) {
	const wA, hA, wB, hB = 7, 4, 5, 6
	boundsA := image.Rect(0, 0, wA, hA)
	boundsB := image.Rect(0, 0, wB, hB)

	for dx := -10; dx <= 10; dx++ {
		for dy := -10; dy <= 10; dy++ {
			w, ok := ComputeWindows(dx, dy, wA, hA, wB, hB)
			if !ok {
				continue
			}
			assert.True(t, w.A.In(boundsA), "A window %v at (%d,%d)", w.A, dx, dy)
			assert.True(t, w.B.In(boundsB), "B window %v at (%d,%d)", w.B, dx, dy)
			assert.Positive(t, w.Size())
		}
	}
}
