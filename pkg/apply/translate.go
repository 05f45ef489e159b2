package apply

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/tiff"

	"github.com/abworrall/corrshift/pkg/emath"
	"github.com/abworrall/corrshift/pkg/shift"
)

// Translate returns a copy of src moved by off, so that
// out(x,y) == src(x-dx, y-dy). Pixels with no source are zero. The
// output keeps the source's bounds and, for gray and paletted images,
// its pixel type; anything else comes back as RGBA64.
func Translate(src image.Image, off shift.Offset) image.Image {
	dst := newLike(src)
	m := emath.Identity().Translate(float64(off.DX), float64(off.DY))
	draw.NearestNeighbor.Transform(dst, f64.Aff3(m), src, src.Bounds(), draw.Src, nil)
	return dst
}

func newLike(src image.Image) draw.Image {
	r := src.Bounds()
	switch s := src.(type) {
	case *image.Gray:
		return image.NewGray(r)
	case *image.Gray16:
		return image.NewGray16(r)
	case *image.Paletted:
		p := make(color.Palette, len(s.Palette))
		copy(p, s.Palette)
		return image.NewPaletted(r, p)
	default:
		return image.NewRGBA64(r)
	}
}

// ReadTIFF decodes a TIFF file as-is, without the conversion to
// intensities that shift.Load does.
func ReadTIFF(filename string) (image.Image, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("ReadTIFF: %w", err)
	}
	defer f.Close()

	img, err := tiff.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("ReadTIFF %s: %w", filename, err)
	}
	return img, nil
}

// WriteTIFF saves img as an uncompressed TIFF.
func WriteTIFF(img image.Image, filename string) error {
	writer, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("WriteTIFF, open+w '%s': %w", filename, err)
	}

	if err := tiff.Encode(writer, img, &tiff.Options{Compression: tiff.Uncompressed}); err != nil {
		writer.Close()
		return fmt.Errorf("WriteTIFF, encoding '%s': %w", filename, err)
	}
	return writer.Close()
}

// WriteShifted loads srcPath, moves it by off, and writes it into
// outDir under the same base name. It returns the new file's path.
// It will not overwrite the source.
func WriteShifted(srcPath, outDir string, off shift.Offset) (string, error) {
	dst := filepath.Join(outDir, filepath.Base(srcPath))
	if same, err := samePath(srcPath, dst); err != nil {
		return "", err
	} else if same {
		return "", fmt.Errorf("WriteShifted: %s would overwrite its source", dst)
	}

	img, err := ReadTIFF(srcPath)
	if err != nil {
		return "", err
	}
	if err := WriteTIFF(Translate(img, off), dst); err != nil {
		return "", err
	}
	return dst, nil
}

func samePath(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	return absA == absB, nil
}
