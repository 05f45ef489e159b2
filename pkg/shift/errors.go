package shift

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrNoFeasibleOffset  = errors.New("no feasible offset")
)

// UnsupportedFormatError is returned for files whose sample layout we
// cannot turn into a single-channel grid.
type UnsupportedFormatError struct {
	BitsPerSample   int
	SamplesPerPixel int
	Detail          string
}

func (e *UnsupportedFormatError) Error() string {
	msg := fmt.Sprintf("%s: %d bits per sample, %d samples per pixel",
		ErrUnsupportedFormat, e.BitsPerSample, e.SamplesPerPixel)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *UnsupportedFormatError) Unwrap() error { return ErrUnsupportedFormat }

// IOError is returned when an image file could not be opened, read or
// decoded.
type IOError struct {
	Path string
	Op   string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// NoFeasibleOffsetError means no offset in the search window produced
// a usable score: either none overlapped, or every overlap was flat.
type NoFeasibleOffsetError struct {
	Bounds     Bounds
	Infeasible int
	Undefined  int
}

func (e *NoFeasibleOffsetError) Error() string {
	return fmt.Sprintf("%s in %s (%d without overlap, %d with undefined correlation)",
		ErrNoFeasibleOffset, e.Bounds, e.Infeasible, e.Undefined)
}

func (e *NoFeasibleOffsetError) Unwrap() error { return ErrNoFeasibleOffset }
