package batch

import (
	"errors"
	"fmt"
	"time"

	"github.com/codahale/hdrhistogram"
	"github.com/samber/lo"

	"github.com/abworrall/corrshift/pkg/shift"
)

// PairResult is the outcome for one pair.
type PairResult struct {
	Pair    Pair
	Offset  shift.Offset
	Score   float64
	Elapsed time.Duration
	Err     error
}

func (pr PairResult) String() string {
	if pr.Err != nil {
		return fmt.Sprintf("%s: FAILED: %v", pr.Pair.Name(), pr.Err)
	}
	return fmt.Sprintf("%s: %s score %.4f (%s)", pr.Pair.Name(), pr.Offset, pr.Score, pr.Elapsed.Round(time.Millisecond))
}

// Latencies are recorded in microseconds, up to an hour per pair.
const maxLatencyMicros = int64(time.Hour / time.Microsecond)

// A Report collects the pair results of a batch, in the order the
// pairs were run.
type Report struct {
	Results []PairResult
	Latency *hdrhistogram.Histogram
}

func newReport() Report {
	return Report{
		Results: []PairResult{},
		Latency: hdrhistogram.New(1, maxLatencyMicros, 3),
	}
}

func (r *Report) add(pr PairResult) {
	r.Results = append(r.Results, pr)
	us := min(max(pr.Elapsed.Microseconds(), 1), maxLatencyMicros)
	r.Latency.RecordValue(us)
}

func (r Report) Failed() []PairResult {
	return lo.Filter(r.Results, func(pr PairResult, _ int) bool { return pr.Err != nil })
}

func (r Report) Succeeded() int { return len(r.Results) - len(r.Failed()) }

// Err joins the errors of every failed pair, or is nil.
func (r Report) Err() error {
	return errors.Join(lo.Map(r.Failed(), func(pr PairResult, _ int) error {
		return fmt.Errorf("%s: %w", pr.Pair.Name(), pr.Err)
	})...)
}

func (r Report) Summary() string {
	if len(r.Results) == 0 {
		return "0 pairs"
	}
	q := func(pct float64) time.Duration {
		return time.Duration(r.Latency.ValueAtQuantile(pct)) * time.Microsecond
	}
	return fmt.Sprintf("%d pairs, %d ok, %d failed; per pair p50 %s, p90 %s, max %s",
		len(r.Results), r.Succeeded(), len(r.Failed()),
		q(50).Round(time.Millisecond), q(90).Round(time.Millisecond),
		(time.Duration(r.Latency.Max()) * time.Microsecond).Round(time.Millisecond))
}
