package shift

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Options tune how a search runs. They never change its answer.
type Options struct {
	Workers    int             // <=0 means GOMAXPROCS; 1 runs on the calling goroutine
	KeepScores bool            // fill in Result.Scores
	Log        *zerolog.Logger // nil means no logging
}

func (o Options) workers() int {
	if o.Workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return o.Workers
}

func (o Options) logger() *zerolog.Logger {
	if o.Log == nil {
		l := zerolog.Nop()
		return &l
	}
	return o.Log
}

// A Result is the best offset found, with the score that won it and
// some counts describing the rest of the window.
type Result struct {
	Offset     Offset
	Score      float64
	Evaluated  int // candidates with an overlap, scored or not
	Undefined  int // of those, how many had a flat region and so no score
	Infeasible int // candidates with no overlap at all
	Scores     *ScoreMap
}

func (r Result) String() string {
	return fmt.Sprintf("Shift[%s score %.6f; %d scored, %d undefined, %d infeasible]",
		r.Offset, r.Score, r.Evaluated-r.Undefined, r.Undefined, r.Infeasible)
}

type candidateState uint8

const (
	stateInfeasible candidateState = iota
	stateUndefined
	stateScored
)

// Search tries every offset in bounds and returns the one where B
// correlates best with A. Ties go to the offset seen first, scanning
// dx (outer) then dy (inner) from the low end. If no offset yields a
// real score, the error is a *NoFeasibleOffsetError.
//
// With more than one worker, dx columns are scored in parallel but the
// winner is still picked in search order, so the answer does not
// depend on the worker count.
func Search(ctx context.Context, a, b Image, bounds Bounds, opts Options) (Result, error) {
	log := opts.logger()

	n := bounds.Len()
	scores := make([]float64, n)
	states := make([]candidateState, n)

	newEvaluator := func() *evaluator {
		return &evaluator{a: a, b: b, bounds: bounds, scores: scores, states: states, log: log}
	}

	cols := bounds.Width()
	nWorkers := min(opts.workers(), cols)

	if nWorkers <= 1 {
		ev := newEvaluator()
		for col := 0; col < cols; col++ {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}
			ev.column(col)
		}

	} else {
		g, gctx := errgroup.WithContext(ctx)
		jobs := make(chan int)

		// Feed in jobs
		g.Go(func() error {
			defer close(jobs)
			for col := 0; col < cols; col++ {
				select {
				case jobs <- col:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})

		// Kick off worker pool. Each worker owns its scratch buffers;
		// results land in disjoint slots of scores/states.
		for i := 0; i < nWorkers; i++ {
			g.Go(func() error {
				ev := newEvaluator()
				for col := range jobs {
					if err := gctx.Err(); err != nil {
						return err
					}
					ev.column(col)
				}
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return Result{}, err
		}
	}

	res := Result{}
	for _, s := range states {
		switch s {
		case stateInfeasible:
			res.Infeasible++
		case stateUndefined:
			res.Evaluated++
			res.Undefined++
		case stateScored:
			res.Evaluated++
		}
	}
	if opts.KeepScores {
		res.Scores = newScoreMap(bounds, scores)
	}

	best, ok := pickBest(scores)
	if !ok {
		err := &NoFeasibleOffsetError{Bounds: bounds, Infeasible: res.Infeasible, Undefined: res.Undefined}
		log.Debug().Stringer("bounds", bounds).Int("infeasible", res.Infeasible).
			Int("undefined", res.Undefined).Msg("no usable offset")
		return res, err
	}

	res.Offset = bounds.At(best)
	res.Score = scores[best]

	if res.Undefined > 0 {
		log.Debug().Int("undefined", res.Undefined).Msg("skipped offsets with flat overlap (undefined correlation)")
	}
	log.Debug().Stringer("bounds", bounds).Int("dx", res.Offset.DX).Int("dy", res.Offset.DY).
		Float64("score", res.Score).Int("evaluated", res.Evaluated).Msg("search done")

	return res, nil
}

// pickBest walks the scores in search order and returns the index of
// the first highest one. NaN never wins, since NaN > x is always false.
func pickBest(scores []float64) (int, bool) {
	best := math.Inf(-1)
	idx := -1
	for i, s := range scores {
		if s > best {
			best = s
			idx = i
		}
	}
	return idx, idx >= 0
}

// An evaluator scores one dx column of candidates at a time.
type evaluator struct {
	a, b   Image
	bounds Bounds
	scores []float64
	states []candidateState
	log    *zerolog.Logger

	bufA, bufB []float64
}

func (ev *evaluator) column(col int) {
	h := ev.bounds.Height()
	dx := ev.bounds.MinX + col

	for row := 0; row < h; row++ {
		dy := ev.bounds.MinY + row
		i := col*h + row

		w, ok := ComputeWindows(dx, dy, ev.a.Width(), ev.a.Height(), ev.b.Width(), ev.b.Height())
		if !ok {
			ev.scores[i] = math.NaN()
			ev.states[i] = stateInfeasible
			continue
		}

		ev.bufA = ev.a.appendRegion(ev.bufA[:0], w.A)
		ev.bufB = ev.b.appendRegion(ev.bufB[:0], w.B)

		score := Pearson(ev.bufA, ev.bufB)
		ev.scores[i] = score
		if Defined(score) {
			ev.states[i] = stateScored
		} else {
			ev.states[i] = stateUndefined
		}

		ev.log.Trace().Int("dx", dx).Int("dy", dy).Float64("score", score).Msg("candidate")
	}
}
