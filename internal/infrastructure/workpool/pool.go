package workpool

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/rs/zerolog"

	"github.com/artistsnetwork/identity/internal/pkg/metrics"
)

const channelBuffer = 256

// ErrStopped is returned by Do once the pool has been stopped.
var ErrStopped = errors.New("workpool: stopped")

// job is handed from Do to a worker. aborted is written before done is
// closed and read only after.
type job struct {
	run     func()
	done    chan struct{}
	aborted bool
}

// Pool runs CPU-bound jobs on a fixed set of worker goroutines so that a
// burst of expensive work cannot occupy every available core.
type Pool struct {
	jobs    chan *job
	workers int
	log     zerolog.Logger

	wg       sync.WaitGroup
	stopped  chan struct{} // closed when Stop begins
	finished chan struct{} // closed when Stop has released every queued job
	once     sync.Once
}

// New creates a Pool with numWorkers workers.
// If numWorkers <= 0, runtime.NumCPU() is used.
func New(numWorkers int, log zerolog.Logger) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &Pool{
		jobs:     make(chan *job, channelBuffer),
		workers:  numWorkers,
		log:      log,
		stopped:  make(chan struct{}),
		finished: make(chan struct{}),
	}
}

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int { return p.workers }

// Start launches all worker goroutines. Cancelling ctx is equivalent to
// calling Stop.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.runWorker(i)
	}
	go func() {
		select {
		case <-ctx.Done():
			p.Stop()
		case <-p.stopped:
		}
	}()
	p.log.Debug().Int("workers", p.workers).Msg("credential pool started")
}

// Stop waits for running jobs, then releases every job still queued with
// ErrStopped. It is safe to call more than once.
func (p *Pool) Stop() {
	p.once.Do(func() {
		close(p.stopped)
		p.wg.Wait()
		p.abortQueued()
		close(p.finished)
	})
}

func (p *Pool) abortQueued() {
	for {
		select {
		case j := <-p.jobs:
			j.aborted = true
			close(j.done)
		default:
			metrics.PoolQueueDepth.Set(0)
			return
		}
	}
}

// Do runs fn on a worker and waits for it to finish. If ctx ends first, Do
// returns ctx.Err(); a job that already started still runs to completion.
// A job that never ran because the pool stopped yields ErrStopped.
func (p *Pool) Do(ctx context.Context, fn func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-p.stopped:
		return ErrStopped
	default:
	}

	j := &job{run: fn, done: make(chan struct{})}
	select {
	case p.jobs <- j:
		metrics.PoolQueueDepth.Set(float64(len(p.jobs)))
	case <-p.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-j.done:
		return j.result()
	case <-p.finished:
		// Enqueued after Stop drained the queue; nothing will run it.
		select {
		case <-j.done:
			return j.result()
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (j *job) result() error {
	if j.aborted {
		return ErrStopped
	}
	return nil
}

func (p *Pool) runWorker(id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopped:
			return
		default:
		}
		select {
		case <-p.stopped:
			return
		case j := <-p.jobs:
			metrics.PoolQueueDepth.Set(float64(len(p.jobs)))
			p.execute(id, j)
		}
	}
}

func (p *Pool) execute(id int, j *job) {
	defer close(j.done)
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Interface("panic", r).Int("worker_id", id).Msg("credential job panicked")
		}
	}()
	j.run()
}
