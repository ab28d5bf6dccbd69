// Package worker runs queued simulation jobs and records their outcome.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/seirsim/internal/adapters/mq/queue"
	"github.com/okian/seirsim/internal/domain/model"
	"github.com/okian/seirsim/internal/domain/simerr"
	"github.com/okian/seirsim/internal/domain/simulation"
	"github.com/okian/seirsim/pkg/logger"
	"github.com/okian/seirsim/pkg/metrics"
)

const (
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Job is what workers read off the queue.
type Job = queue.Job

// Simulator executes one request. Every call must build its own policy and
// state; workers call it concurrently.
type Simulator interface {
	Simulate(ctx context.Context, req model.Request) (*simulation.Series, error)
}

// Recorder persists run lifecycle transitions.
type Recorder interface {
	MarkRunning(ctx context.Context, id string, at time.Time) error
	Complete(ctx context.Context, id string, series *simulation.Series, at time.Time) error
	Fail(ctx context.Context, id, kind, reason string, at time.Time) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes jobs until its queue closes or it is shut down.
type Worker interface {
	Run(ctx context.Context)
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue     Queue
	simulator Simulator
	recorder  Recorder
	name      string
	onDone    DoneFunc
	busy      *atomic.Int64

	shutdown chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker with configuration options.
func NewInMemoryWorker(q Queue, sim Simulator, rec Recorder, opts ...Option) *InMemoryWorker {
	s := settings{name: "worker"}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("worker")
	}
	if s.name != "worker" {
		s.logger = s.logger.Named(s.name)
	}
	return &InMemoryWorker{
		queue:     q,
		simulator: sim,
		recorder:  rec,
		name:      s.name,
		onDone:    s.onDone,
		busy:      new(atomic.Int64),
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    s.logger,
	}
}

func (w *InMemoryWorker) stop() {
	w.stopOnce.Do(func() { close(w.shutdown) })
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "job failed", logger.String("run_id", job.RunID), logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker after its current job. It is safe to call more
// than once and alongside Pool.Stop.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stop()
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

// process runs one job. Simulation failures are recorded on the run and
// returned; recorder failures are returned as is.
func (w *InMemoryWorker) process(ctx context.Context, job Job) (err error) { //nolint:gocritic // hugeParam: jobs travel by value
	start := time.Now()
	w.busy.Add(1)
	defer func() {
		w.busy.Add(-1)
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
		if err != nil {
			metrics.RecordWorkerError()
		}
		if w.onDone != nil {
			w.onDone(job, err)
		}
	}()

	if err := w.recorder.MarkRunning(ctx, job.RunID, start); err != nil {
		metrics.RecordErrorByComponent("worker", "record_running")
		return fmt.Errorf("mark run %s running: %w", job.RunID, err)
	}

	series, simErr := w.simulator.Simulate(ctx, job.Request)
	finished := time.Now()
	if simErr != nil {
		kind := simerr.Label(simErr)
		metrics.RecordErrorByComponent("worker", kind)
		if err := w.recorder.Fail(ctx, job.RunID, kind, simErr.Error(), finished); err != nil {
			return fmt.Errorf("record failure of run %s: %w", job.RunID, err)
		}
		return fmt.Errorf("run %s: %w", job.RunID, simErr)
	}

	if err := w.recorder.Complete(ctx, job.RunID, series, finished); err != nil {
		metrics.RecordErrorByComponent("worker", "record_complete")
		return fmt.Errorf("record result of run %s: %w", job.RunID, err)
	}
	w.logger.Debug(ctx, "job finished",
		logger.String("run_id", job.RunID),
		logger.Int("days", series.Len()),
		logger.Duration("took", finished.Sub(start)))
	return nil
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	busy    *atomic.Int64

	shutdown chan struct{}
	stopped  atomic.Bool

	logger logger.Logger
}

// NewPool creates a worker pool. workerCount < 1 means one worker per CPU.
func NewPool(workerCount int, q Queue, sim Simulator, rec Recorder, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	s := settings{}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	p := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    q,
		busy:     new(atomic.Int64),
		shutdown: make(chan struct{}),
		logger:   s.logger.Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		w := NewInMemoryWorker(q, sim, rec,
			WithName("worker-"+strconv.Itoa(i)),
			WithLogger(s.logger),
			WithOnDone(s.onDone),
		)
		w.busy = p.busy
		p.workers[i] = w
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	metrics.UpdateWorkerIdleCount(workerCount)
	return p
}

// Size is the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Busy is the number of workers currently running a job.
func (p *Pool) Busy() int { return int(p.busy.Load()) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	go p.startMetricsUpdater(ctx)
}

func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			busy := p.Busy()
			metrics.UpdateWorkerActiveCount(busy)
			metrics.UpdateWorkerIdleCount(len(p.workers) - busy)
		}
	}
}

// Stop signals every worker to return after its current job and waits.
func (p *Pool) Stop() {
	if !p.signalStop() {
		return
	}
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
}

// Shutdown closes the queue and lets workers drain it. If ctx ends first the
// remaining workers are stopped without draining.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	drainCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-drainCtx.Done():
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
			p.signalStop()
			return fmt.Errorf("worker pool shutdown: %w", drainCtx.Err())
		}
	}
	if p.stopped.CompareAndSwap(false, true) {
		close(p.shutdown)
	}
	metrics.UpdateWorkerActiveCount(0)
	return nil
}

// signalStop closes the shutdown channels once; it reports whether this call did it.
func (p *Pool) signalStop() bool {
	if !p.stopped.CompareAndSwap(false, true) {
		return false
	}
	close(p.shutdown)
	for _, w := range p.workers {
		w.stop()
	}
	return true
}
