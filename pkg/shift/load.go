package shift

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	exiftiff "github.com/rwcarlsen/goexif/tiff"
	"golang.org/x/image/tiff"
)

// TIFF tags we look at (see p. 28-41 of the TIFF 6.0 spec).
const (
	tImageWidth      = 256
	tImageLength     = 257
	tBitsPerSample   = 258
	tPhotometric     = 262
	tSamplesPerPixel = 277
)

// PhotometricInterpretation values for grayscale data.
const (
	pWhiteIsZero = 0
	pBlackIsZero = 1
)

// header is the subset of the first IFD that decides how we read the
// pixel data.
type header struct {
	Width           int
	Height          int
	BitsPerSample   int
	SamplesPerPixel int
	Photometric     int
}

// Load reads a single-channel TIFF into an Image. 8-bit files become
// Byte images, 16-bit files become Wide images; anything else is an
// UnsupportedFormatError. The file is read in full and closed before
// Load returns.
func Load(filename string) (Image, error) {
	f, err := os.Open(filename)
	if err != nil {
		return Image{}, &IOError{Path: filename, Op: "open", Err: err}
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return Image{}, &IOError{Path: filename, Op: "read", Err: err}
	}

	img, err := decodeBytes(data)
	if err != nil {
		var ioe *IOError
		if errors.As(err, &ioe) {
			ioe.Path = filename
			return Image{}, ioe
		}
		return Image{}, fmt.Errorf("load %s: %w", filename, err)
	}
	return img, nil
}

// Decode is Load for an already-open stream.
func Decode(r io.Reader) (Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Image{}, &IOError{Op: "read", Err: err}
	}
	return decodeBytes(data)
}

func decodeBytes(data []byte) (Image, error) {
	hdr, err := readHeader(data)
	if err != nil {
		return Image{}, err
	}

	if hdr.BitsPerSample != 8 && hdr.BitsPerSample != 16 {
		return Image{}, &UnsupportedFormatError{BitsPerSample: hdr.BitsPerSample, SamplesPerPixel: hdr.SamplesPerPixel}
	}
	if hdr.SamplesPerPixel != 1 {
		return Image{}, &UnsupportedFormatError{
			BitsPerSample:   hdr.BitsPerSample,
			SamplesPerPixel: hdr.SamplesPerPixel,
			Detail:          "only single-channel images are handled",
		}
	}

	decoded, err := tiff.Decode(bytes.NewReader(data))
	if err != nil {
		return Image{}, &IOError{Op: "decode tiff", Err: err}
	}

	sc, err := newScanlines(decoded, hdr)
	if err != nil {
		return Image{}, err
	}

	switch hdr.BitsPerSample {
	case 8:
		return decodeByte(sc)
	default:
		return decodeWide(sc)
	}
}

func readHeader(data []byte) (header, error) {
	t, err := exiftiff.Decode(bytes.NewReader(data))
	if err != nil {
		return header{}, &IOError{Op: "parse tiff header", Err: err}
	}
	if len(t.Dirs) == 0 {
		return header{}, &IOError{Op: "parse tiff header", Err: fmt.Errorf("no image file directory")}
	}

	// Defaults from the TIFF spec, for tags that are allowed to be absent.
	hdr := header{BitsPerSample: 1, SamplesPerPixel: 1, Photometric: pBlackIsZero}

	for _, tag := range t.Dirs[0].Tags {
		var dst *int
		switch tag.Id {
		case tImageWidth:
			dst = &hdr.Width
		case tImageLength:
			dst = &hdr.Height
		case tBitsPerSample:
			dst = &hdr.BitsPerSample
		case tSamplesPerPixel:
			dst = &hdr.SamplesPerPixel
		case tPhotometric:
			dst = &hdr.Photometric
		default:
			continue
		}
		v, err := tag.Int(0)
		if err != nil {
			return header{}, &IOError{Op: "parse tiff header", Err: fmt.Errorf("tag %d: %v", tag.Id, err)}
		}
		*dst = v
	}

	return hdr, nil
}

// A scanlineReader hands out the raw bytes of one image row at a time.
type scanlineReader interface {
	Rows() int
	ScanlineSize() int
	ReadScanline(buf []byte, row int) error
}

// decodedScanlines replays a decoded image as the byte rows stored in
// the file. 16-bit samples come out low byte first. The decoder flips
// WhiteIsZero gray data; invert puts the stored values back.
type decodedScanlines struct {
	img    image.Image
	size   int
	invert bool
}

func newScanlines(img image.Image, hdr header) (*decodedScanlines, error) {
	b := img.Bounds()
	if hdr.Width != 0 && b.Dx() != hdr.Width || hdr.Height != 0 && b.Dy() != hdr.Height {
		return nil, &IOError{Op: "decode tiff", Err: fmt.Errorf("decoded %dx%d, header says %dx%d",
			b.Dx(), b.Dy(), hdr.Width, hdr.Height)}
	}

	bytesPerSample := hdr.BitsPerSample / 8
	switch img.(type) {
	case *image.Gray, *image.Paletted:
		if bytesPerSample != 1 {
			return nil, unexpectedLayout(img, hdr)
		}
	case *image.Gray16:
		if bytesPerSample != 2 {
			return nil, unexpectedLayout(img, hdr)
		}
	default:
		return nil, unexpectedLayout(img, hdr)
	}

	// The scanline is sized from the declared width, never from the
	// decoder's row stride, so padded rows cannot leak in as pixels.
	return &decodedScanlines{
		img:    img,
		size:   b.Dx() * bytesPerSample,
		invert: hdr.Photometric == pWhiteIsZero,
	}, nil
}

func unexpectedLayout(img image.Image, hdr header) error {
	return &UnsupportedFormatError{
		BitsPerSample:   hdr.BitsPerSample,
		SamplesPerPixel: hdr.SamplesPerPixel,
		Detail:          fmt.Sprintf("decodes as %T", img),
	}
}

func (s *decodedScanlines) Rows() int         { return s.img.Bounds().Dy() }
func (s *decodedScanlines) ScanlineSize() int { return s.size }

func (s *decodedScanlines) ReadScanline(buf []byte, row int) error {
	if len(buf) < s.size {
		return fmt.Errorf("scanline buffer too short: %d < %d", len(buf), s.size)
	}
	if row < 0 || row >= s.Rows() {
		return fmt.Errorf("scanline %d out of range [0,%d)", row, s.Rows())
	}

	b := s.img.Bounds()
	y := b.Min.Y + row

	switch m := s.img.(type) {
	case *image.Gray:
		copy(buf, m.Pix[m.PixOffset(b.Min.X, y):][:s.size])
		if s.invert {
			for i := range buf[:s.size] {
				buf[i] = 0xff - buf[i]
			}
		}
	case *image.Paletted:
		copy(buf, m.Pix[m.PixOffset(b.Min.X, y):][:s.size])
	case *image.Gray16:
		for x := 0; x < b.Dx(); x++ {
			v := m.Gray16At(b.Min.X+x, y).Y
			if s.invert {
				v = 0xffff - v
			}
			binary.LittleEndian.PutUint16(buf[2*x:], v)
		}
	}
	return nil
}

// decodeByte widens each scanline byte into one sample.
func decodeByte(sc scanlineReader) (Image, error) {
	rows, size := sc.Rows(), sc.ScanlineSize()
	vals := make([]float64, 0, rows*size)
	buf := make([]byte, size)

	for y := 0; y < rows; y++ {
		if err := sc.ReadScanline(buf, y); err != nil {
			return Image{}, &IOError{Op: "read scanline", Err: err}
		}
		for _, v := range buf {
			vals = append(vals, float64(v))
		}
	}

	return NewImage(Byte, size, rows, vals)
}

// decodeWide reads the same byte scanlines as decodeByte, then pairs
// them up low byte first, so each row holds half as many samples.
func decodeWide(sc scanlineReader) (Image, error) {
	rows, size := sc.Rows(), sc.ScanlineSize()
	if size%2 != 0 {
		return Image{}, &UnsupportedFormatError{
			BitsPerSample:   16,
			SamplesPerPixel: 1,
			Detail:          fmt.Sprintf("odd scanline length %d", size),
		}
	}

	width := size / 2
	vals := make([]float64, 0, rows*width)
	buf := make([]byte, size)

	for y := 0; y < rows; y++ {
		if err := sc.ReadScanline(buf, y); err != nil {
			return Image{}, &IOError{Op: "read scanline", Err: err}
		}
		for x := 0; x < width; x++ {
			vals = append(vals, float64(binary.LittleEndian.Uint16(buf[2*x:])))
		}
	}

	return NewImage(Wide, width, rows, vals)
}
