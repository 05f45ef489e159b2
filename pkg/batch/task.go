package batch

import "context"

// A Task is a batch running in the background.
type Task struct {
	progress chan Progress
	cancel   context.CancelFunc
	done     chan struct{}

	report Report
	err    error
}

// Start runs pairs through r on a new goroutine.
func Start(ctx context.Context, r *Runner, pairs []Pair) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{
		// Room for every update, so a caller that never reads does not
		// stall the batch.
		progress: make(chan Progress, len(pairs)),
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	go func() {
		defer close(t.done)
		defer close(t.progress)
		defer cancel()
		t.report, t.err = r.Run(ctx, pairs, func(p Progress) { t.progress <- p })
	}()

	return t
}

// Progress delivers one update per finished pair, and is closed when
// the batch ends.
func (t *Task) Progress() <-chan Progress { return t.progress }

// Cancel asks the batch to stop. It is safe to call more than once,
// and after the batch has finished.
func (t *Task) Cancel() { t.cancel() }

// Done is closed once the batch has finished.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the batch finishes and returns its report.
func (t *Task) Wait() (Report, error) {
	<-t.done
	return t.report, t.err
}
