package shift

import (
	"fmt"
	"image"
)

// An OverlapWindow is the pair of rectangles, one in each image, that
// cover the same physical area once B is offset against A. A pixel at
// (x,y) in window A corresponds to (x+dx, y+dy) in window B.
type OverlapWindow struct {
	A image.Rectangle
	B image.Rectangle
}

func (w OverlapWindow) String() string {
	return fmt.Sprintf("Overlap[A%v B%v]", w.A, w.B)
}

// Size is the number of samples each window contributes.
func (w OverlapWindow) Size() int { return w.A.Dx() * w.A.Dy() }

// ComputeWindows works out the overlap of an image A (widthA x heightA)
// and an image B (widthB x heightB) when B is offset by (dx,dy). The
// bool is false when the offset leaves no overlap, in which case the
// offset must not be scored.
func ComputeWindows(dx, dy, widthA, heightA, widthB, heightB int) (OverlapWindow, bool) {
	aX0, aX1, bX0, bX1, ok := axisWindows(dx, widthA, widthB)
	if !ok {
		return OverlapWindow{}, false
	}
	aY0, aY1, bY0, bY1, ok := axisWindows(dy, heightA, heightB)
	if !ok {
		return OverlapWindow{}, false
	}

	return OverlapWindow{
		A: image.Rect(aX0, aY0, aX1, aY1),
		B: image.Rect(bX0, bY0, bX1, bY1),
	}, true
}

// axisWindows applies the overlap rule to one axis. sizeA and sizeB are
// the image extents along it.
func axisWindows(d, sizeA, sizeB int) (aStart, aEnd, bStart, bEnd int, ok bool) {
	if d < 0 {
		aStart, aEnd = -d, sizeA
		bStart, bEnd = 0, sizeB+d // d is negative, so this shrinks B's end
	} else {
		aStart, aEnd = 0, sizeA-d
		bStart, bEnd = d, sizeB
	}

	if aStart == aEnd || bStart == bEnd {
		return 0, 0, 0, 0, false
	}
	if aEnd-aStart <= 0 || bEnd-bStart <= 0 {
		return 0, 0, 0, 0, false
	}
	if aStart < 0 || bStart < 0 {
		return 0, 0, 0, 0, false
	}

	// Images of different size give windows of different length; only
	// the shorter stretch is covered by both.
	n := min(aEnd-aStart, bEnd-bStart)
	aEnd, bEnd = aStart+n, bStart+n

	return aStart, aEnd, bStart, bEnd, true
}
