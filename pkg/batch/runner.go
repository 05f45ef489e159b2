// Package batch runs shift searches over two channels of images,
// pair by pair, logging each offset and applying it to the first
// channel's image.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/abworrall/corrshift/pkg/apply"
	"github.com/abworrall/corrshift/pkg/shift"
	"github.com/abworrall/corrshift/pkg/shiftlog"
)

// Progress is reported after each pair, whether it worked or not.
type Progress struct {
	Done  int
	Total int
	Last  PairResult
}

func (p Progress) Percent() int {
	if p.Total == 0 {
		return 100
	}
	return p.Done * 100 / p.Total
}

// A Runner does the work of a batch. It holds no per-run state, so
// one Runner can run several batches in turn.
type Runner struct {
	Config   Config
	Log      *zerolog.Logger
	Applier  apply.Applier
	ShiftLog *shiftlog.Log

	now func() time.Time
}

// NewRunner validates cfg and prepares its output dir.
func NewRunner(cfg Config, log *zerolog.Logger) (*Runner, error) {
	if log == nil {
		l := zerolog.Nop()
		log = &l
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := prepareOutputDir(cfg.OutputDir, cfg.RequireEmptyOutput); err != nil {
		return nil, err
	}

	applier, err := apply.New(cfg.Applier, cfg.OutputDir, cfg.ImageJPath, log)
	if err != nil {
		return nil, err
	}

	return &Runner{
		Config:   cfg,
		Log:      log,
		Applier:  applier,
		ShiftLog: shiftlog.New(cfg.OutputDir),
		now:      time.Now,
	}, nil
}

func prepareOutputDir(dir string, requireEmpty bool) error {
	if requireEmpty {
		contents, err := os.ReadDir(dir)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("output dir %s: %w", dir, err)
		}
		if len(contents) > 0 {
			return fmt.Errorf("output dir %s is not empty (%d entries)", dir, len(contents))
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("output dir %s: %w", dir, err)
	}
	return nil
}

// Run searches every pair in order. A pair that fails to load or has
// no usable offset is recorded in the report and skipped; the batch
// carries on. Cancelling ctx stops the batch before the next pair (or
// inside the current search) and Run returns ctx's error along with
// what was done so far. Shifts are applied once all pairs are
// searched.
func (r *Runner) Run(ctx context.Context, pairs []Pair, progress func(Progress)) (Report, error) {
	report := newReport()
	jobs := []apply.Job{}

	for i, pair := range pairs {
		if err := ctx.Err(); err != nil {
			r.Log.Warn().Int("done", i).Int("total", len(pairs)).Msg("batch cancelled")
			return report, err
		}

		pr := r.runPair(ctx, pair)
		if ctx.Err() != nil && errors.Is(pr.Err, ctx.Err()) {
			r.Log.Warn().Int("done", i).Int("total", len(pairs)).Msg("batch cancelled")
			return report, pr.Err
		}

		report.add(pr)
		if pr.Err == nil {
			jobs = append(jobs, apply.Job{Path: pair.One, Offset: pr.Offset})
		}

		if progress != nil {
			progress(Progress{Done: i + 1, Total: len(pairs), Last: pr})
		}
	}

	if len(jobs) > 0 {
		if err := r.Applier.Apply(ctx, jobs); err != nil {
			return report, fmt.Errorf("apply: %w", err)
		}
	}

	r.Log.Info().Str("summary", report.Summary()).Msg("batch done")
	return report, nil
}

func (r *Runner) runPair(ctx context.Context, pair Pair) PairResult {
	start := time.Now()
	pr := PairResult{Pair: pair}
	log := r.Log.With().Str("pair", pair.Name()).Logger()

	fail := func(err error) PairResult {
		pr.Err = err
		pr.Elapsed = time.Since(start)
		log.Warn().Err(err).Msg("pair failed")
		return pr
	}

	a, err := shift.Load(pair.One)
	if err != nil {
		return fail(err)
	}
	b, err := shift.Load(pair.Two)
	if err != nil {
		return fail(err)
	}
	log.Debug().Stringer("one", a).Stringer("two", b).Msg("loaded")

	res, err := shift.Search(ctx, a, b, r.Config.Bounds, r.Config.searchOptions(&log))
	if err != nil {
		return fail(err)
	}
	pr.Offset, pr.Score = res.Offset, res.Score

	if err := r.ShiftLog.Append(shiftlog.Entry{Name: pair.Name(), Offset: res.Offset, Time: r.now()}); err != nil {
		return fail(err)
	}

	if res.Scores != nil {
		if err := r.writeScoreMaps(pair, res.Scores); err != nil {
			log.Warn().Err(err).Msg("score map not written")
		}
	}

	pr.Elapsed = time.Since(start)
	log.Info().Int("dx", res.Offset.DX).Int("dy", res.Offset.DY).Float64("score", res.Score).
		Int("undefined", res.Undefined).Dur("elapsed", pr.Elapsed).Msg("shift found")
	return pr
}

// ScoreMapFilenames are where the score maps for pair are written.
func (r *Runner) ScoreMapFilenames(pair Pair) (png, hdr string) {
	stem := strings.TrimSuffix(pair.Name(), filepath.Ext(pair.Name()))
	base := filepath.Join(r.Config.OutputDir, stem+".scores")
	return base + ".png", base + ".hdr"
}

func (r *Runner) writeScoreMaps(pair Pair, m *shift.ScoreMap) error {
	png, hdr := r.ScoreMapFilenames(pair)
	if err := m.WritePNG(pair.Name(), png); err != nil {
		return err
	}
	return m.WriteHDR(hdr)
}
