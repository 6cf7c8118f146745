// Package background runs CPU-heavy work off the request goroutines.
//
// A WorkerPool starts a fixed number of workers that read jobs from a
// bounded queue. Request handlers submit a job and wait for it, so however
// many logins arrive at once, at most `workers` password hashes run in
// parallel and the rest of the server keeps its CPU.
package background

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrPoolStopped is returned by Do after Stop has been called.
var ErrPoolStopped = errors.New("worker pool stopped")

// job is owned by the worker until done is closed; err is only read after.
type job struct {
	ctx  context.Context
	fn   func()
	err  error
	done chan struct{}
}

// WorkerPool is a fixed-size pool of goroutines executing submitted jobs.
type WorkerPool struct {
	jobs     chan *job
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	logger   *slog.Logger
}

// NewWorkerPool starts `workers` goroutines fed by a queue of `queueSize`
// pending jobs. A queueSize of 0 makes Do hand jobs directly to an idle worker.
func NewWorkerPool(workers, queueSize int, logger *slog.Logger) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &WorkerPool{
		jobs:   make(chan *job, queueSize),
		stop:   make(chan struct{}),
		logger: logger,
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	logger.Info("worker pool started", slog.Int("workers", workers), slog.Int("queue_size", queueSize))
	return p
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case j := <-p.jobs:
			p.run(id, j)
		case <-p.stop:
			return
		}
	}
}

func (p *WorkerPool) run(id int, j *job) {
	defer close(j.done)

	// The caller gave up while the job sat in the queue.
	if err := j.ctx.Err(); err != nil {
		j.err = err
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			p.logger.Error("worker job panicked", slog.Int("worker", id), slog.Any("panic", rec))
			j.err = fmt.Errorf("job panicked: %v", rec)
		}
	}()
	j.fn()
}

// Do runs fn on a pool worker and blocks until it has finished. A panic in
// fn is returned as an error.
// If ctx ends first, Do returns ctx.Err(). A queued job whose ctx has ended
// is skipped by the worker; a job already running still runs to completion,
// so fn must only write to state the caller discards on error.
func (p *WorkerPool) Do(ctx context.Context, fn func()) error {
	j := &job{ctx: ctx, fn: fn, done: make(chan struct{})}

	select {
	case <-p.stop:
		return ErrPoolStopped
	default:
	}

	select {
	case p.jobs <- j:
	case <-ctx.Done():
		return ctx.Err()
	case <-p.stop:
		return ErrPoolStopped
	}

	select {
	case <-j.done:
		return j.err
	case <-ctx.Done():
		return ctx.Err()
	case <-p.stop:
		// A worker may have finished the job right before stopping.
		select {
		case <-j.done:
			return j.err
		default:
			return ErrPoolStopped
		}
	}
}

// Stop signals the workers to exit and waits for running jobs to return.
// Jobs still queued are abandoned; their callers receive ErrPoolStopped.
func (p *WorkerPool) Stop() {
	p.stopOnce.Do(func() {
		close(p.stop)
	})
	p.wg.Wait()
	p.logger.Info("worker pool stopped")
}
