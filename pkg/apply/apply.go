// Package apply moves images by the offsets a search found, either
// directly (writing translated TIFFs) or by handing the work to
// ImageJ through a generated macro.
package apply

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/abworrall/corrshift/pkg/shift"
)

// A Job is one file and the offset to move it by.
type Job struct {
	Path   string
	Offset shift.Offset
}

func (j Job) String() string { return fmt.Sprintf("%s %s", j.Path, j.Offset) }

// An Applier writes shifted copies of the files in jobs.
type Applier interface {
	Apply(ctx context.Context, jobs []Job) error
}

// Kinds of Applier, as named in config files and on the command line.
const (
	KindNative = "native"
	KindImageJ = "imagej"
	KindNone   = "none"
)

var Kinds = []string{KindNative, KindImageJ, KindNone}

// New returns the Applier for kind. imagejPath is only used by the
// ImageJ applier.
func New(kind, outDir, imagejPath string, log *zerolog.Logger) (Applier, error) {
	if log == nil {
		l := zerolog.Nop()
		log = &l
	}
	switch strings.ToLower(kind) {
	case KindNative, "":
		return &Native{OutDir: outDir, Log: log}, nil
	case KindImageJ:
		return &ImageJ{OutDir: outDir, Path: imagejPath, Log: log}, nil
	case KindNone:
		return None{}, nil
	default:
		return nil, fmt.Errorf("apply: unknown applier %q (want one of %s)", kind, strings.Join(Kinds, ", "))
	}
}

// None discards the jobs; only the shift log is written.
type None struct{}

func (None) Apply(context.Context, []Job) error { return nil }

// Native writes translated TIFFs into OutDir itself.
type Native struct {
	OutDir string
	Log    *zerolog.Logger
}

// Apply shifts every job, carrying on past failures. The returned
// error joins all of them.
func (n *Native) Apply(ctx context.Context, jobs []Job) error {
	var errs []error
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		out, err := WriteShifted(job.Path, n.OutDir, job.Offset)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if n.Log != nil {
			n.Log.Debug().Str("file", out).Int("dx", job.Offset.DX).Int("dy", job.Offset.DY).Msg("wrote shifted image")
		}
	}
	return errors.Join(errs...)
}
