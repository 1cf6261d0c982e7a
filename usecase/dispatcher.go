package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"interview-prep/domain"
)

var ErrDispatcherClosed = errors.New("dispatcher is shutting down")

// RunFunc executes one run to completion.
type RunFunc func(ctx context.Context, job domain.RunJob)

// DropFunc is told about a job that was accepted but never started.
type DropFunc func(job domain.RunJob, cause error)

// LocalDispatcher runs jobs on goroutines in this process, at most `workers` at a time.
// Jobs beyond that wait for a free slot.
type LocalDispatcher struct {
	run  RunFunc
	drop DropFunc
	sem  *semaphore.Weighted
	log  logrus.FieldLogger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup

	// queued is cancelled when shutdown starts; runs is cancelled when the drain
	// deadline passes.
	queued     context.Context
	stopQueued context.CancelFunc
	runs       context.Context
	cancelRuns context.CancelFunc
}

// NewLocalDispatcher binds runs to base, which should outlive any single request.
// drop may be nil.
func NewLocalDispatcher(base context.Context, workers int, run RunFunc, drop DropFunc, log logrus.FieldLogger) *LocalDispatcher {
	if workers < 1 {
		workers = 1
	}
	d := &LocalDispatcher{
		run:  run,
		drop: drop,
		sem:  semaphore.NewWeighted(int64(workers)),
		log:  log,
	}
	d.runs, d.cancelRuns = context.WithCancel(base)
	d.queued, d.stopQueued = context.WithCancel(d.runs)
	return d
}

// Dispatch returns as soon as the job is scheduled. The request context is not
// propagated into the run.
func (d *LocalDispatcher) Dispatch(_ context.Context, job domain.RunJob) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrDispatcherClosed
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		if err := d.sem.Acquire(d.queued, 1); err != nil {
			d.dropJob(job, err)
			return
		}
		defer d.sem.Release(1)
		// Acquire may succeed on a done context.
		if err := d.queued.Err(); err != nil {
			d.dropJob(job, err)
			return
		}
		d.run(d.runs, job)
	}()
	return nil
}

func (d *LocalDispatcher) dropJob(job domain.RunJob, err error) {
	d.log.WithError(err).WithField("run_id", job.ID).Warn("dispatcher stopped before run started")
	if d.drop != nil {
		d.drop(job, ErrDispatcherClosed)
	}
}

// Wait blocks until every dispatched run has returned.
func (d *LocalDispatcher) Wait() {
	d.wg.Wait()
}

// Shutdown refuses new jobs, drops the ones still waiting for a slot and waits for
// running ones. When ctx ends first the running jobs are cancelled and ctx.Err() is
// returned once they have returned.
func (d *LocalDispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.stopQueued()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancelRuns()
		return nil
	case <-ctx.Done():
		d.log.Warn("drain deadline passed, cancelling running interview preps")
		d.cancelRuns()
		<-done
		return ctx.Err()
	}
}
