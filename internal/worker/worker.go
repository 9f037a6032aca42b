// Package worker computes live display stats off the UI goroutine.
//
// The worker only receives copies of engine counters and only emits
// display values; it never touches engine state.
package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/verte-zerg/keydrill/internal/stats"
)

// Result is one computed live stats value.
type Result struct {
	Stats      stats.LiveStats
	ComputedAt time.Time
}

type job struct {
	in  stats.LiveInput
	now time.Time
}

// Worker runs stats.Live on submitted samples.
type Worker struct {
	jobs    chan job
	results chan Result
	done    chan struct{}

	wg      sync.WaitGroup
	stopped atomic.Bool
	once    sync.Once
	started atomic.Bool
}

// New returns a worker whose queues hold buffer items each.
func New(buffer int) *Worker {
	if buffer < 1 {
		buffer = 1
	}
	return &Worker{
		jobs:    make(chan job, buffer),
		results: make(chan Result, buffer),
		done:    make(chan struct{}),
	}
}

// Results returns the channel of computed stats. It is closed after Stop.
func (w *Worker) Results() <-chan Result {
	return w.results
}

// Start launches the compute loop. It returns when ctx is done or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	if !w.started.CompareAndSwap(false, true) {
		return
	}
	w.wg.Add(1)
	go w.loop(ctx)
}

// Submit queues a sample without blocking. It reports false when the queue
// is full or the worker is stopped; the sample is then dropped.
func (w *Worker) Submit(in stats.LiveInput, now time.Time) bool {
	if w.stopped.Load() {
		return false
	}
	select {
	case w.jobs <- job{in: in, now: now}:
		return true
	default:
		return false
	}
}

// Stop shuts the loop down and closes Results. Safe to call more than once.
func (w *Worker) Stop() {
	w.once.Do(func() {
		w.stopped.Store(true)
		close(w.done)
		w.wg.Wait()
		close(w.results)
	})
}

func (w *Worker) loop(ctx context.Context) {
	defer w.wg.Done()
	var lastRun, lastSeq uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case j := <-w.jobs:
			// A new run restarts its sequence numbers.
			if j.in.Run != lastRun {
				lastRun, lastSeq = j.in.Run, 0
			}
			// Samples may arrive out of order after a drop; keep the newest.
			if j.in.Seq != 0 && j.in.Seq <= lastSeq {
				continue
			}
			lastSeq = j.in.Seq
			w.publish(Result{Stats: stats.Live(j.in, j.now), ComputedAt: j.now})
		}
	}
}

// publish never blocks: a full queue loses its oldest result.
func (w *Worker) publish(r Result) {
	for {
		select {
		case w.results <- r:
			return
		default:
		}
		select {
		case <-w.results:
		default:
		}
	}
}
