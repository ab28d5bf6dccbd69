// Package service provides the core business service that implements
// the dependencies required by the HTTP API and the CLI.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/seirsim/internal/adapters/mq/queue"
	"github.com/okian/seirsim/internal/adapters/mq/worker"
	"github.com/okian/seirsim/internal/adapters/repository"
	"github.com/okian/seirsim/internal/domain/dedupe"
	"github.com/okian/seirsim/internal/domain/epidemic"
	"github.com/okian/seirsim/internal/domain/model"
	"github.com/okian/seirsim/internal/domain/types"
	"github.com/okian/seirsim/pkg/logger"
	"github.com/okian/seirsim/pkg/metrics"
)

const (
	storeMemory = "memory"
	storeSQLite = "sqlite"

	defaultHorizonDays  = 730
	defaultMaxHorizon   = 3650
	defaultMaxScenarios = 16
	defaultMaxListLimit = 100
	stopTimeout         = 30 * time.Second
)

// Service runs simulations synchronously, side by side, or through the
// queue and worker pool.
type Service struct {
	mu sync.RWMutex

	// Core components
	store repository.Store
	memo  dedupe.Memo
	queue queue.Queue
	pool  *worker.Pool

	// Configuration
	workerCount  int
	queueSize    int
	memoSize     int
	storeKind    string
	sqlitePath   string
	maxRuns      int
	maxHorizon   int
	maxScenarios int
	maxListLimit int
	defaults     model.Request
	now          func() time.Time

	// State
	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:  runtime.NumCPU(),
		queueSize:    1024,
		memoSize:     10_000,
		storeKind:    storeMemory,
		maxRuns:      10_000,
		maxHorizon:   defaultMaxHorizon,
		maxScenarios: defaultMaxScenarios,
		maxListLimit: defaultMaxListLimit,
		defaults: model.Request{
			Parameters:  epidemic.DefaultParameters(),
			HorizonDays: defaultHorizonDays,
		},
		now: time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	return s
}

// Start opens the run store and starts the worker pool. Synchronous
// simulations work without Start.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	log := s.logger
	log.Info(ctx, "starting simulation service...")

	if s.store == nil {
		store, err := s.openStore()
		if err != nil {
			return err
		}
		s.store = store
	}
	log.Info(ctx, "using run store", logger.String("store", s.storeKind))

	s.memo = dedupe.NewInMemoryMemo(dedupe.WithMaxSize(s.memoSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))

	// Workers outlive the ctx of the caller that started them; Stop ends them.
	poolCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.pool = worker.NewPool(s.workerCount, s.queue, s, s.store,
		worker.WithLogger(log),
		worker.WithOnDone(s.onRunDone),
	)
	s.pool.Start(poolCtx)

	s.started = true
	log.Info(ctx, "simulation service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("memoSize", s.memoSize),
	)

	return nil
}

func (s *Service) openStore() (repository.Store, error) {
	switch s.storeKind {
	case storeMemory:
		return repository.NewMemoryStore(repository.WithMaxRuns(s.maxRuns)), nil
	case storeSQLite:
		db, err := repository.OpenSQLite(s.sqlitePath)
		if err != nil {
			return nil, fmt.Errorf("open run store: %w", err)
		}
		return repository.NewSQLiteStore(db), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStore, s.storeKind)
	}
}

// Stop drains queued runs and shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx, done := context.WithTimeout(context.Background(), stopTimeout)
	defer done()
	log := s.logger
	log.Info(ctx, "stopping simulation service...")

	if err := s.pool.Shutdown(ctx); err != nil {
		log.Warn(ctx, "worker pool did not drain", logger.Error(err))
	}
	s.cancel()

	if err := s.store.Close(); err != nil {
		log.Error(ctx, "error closing run store", logger.Error(err))
	}
	s.store = nil

	s.started = false
	log.Info(ctx, "simulation service stopped")
}

// Defaults returns the request that partial input is merged onto. Simulate
// and Submit do not consult it.
func (s *Service) Defaults() model.Request {
	return s.defaults
}

// Catalog describes the tunable model parameters.
func (s *Service) Catalog() []epidemic.ParamSpec {
	return epidemic.Catalog()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() types.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := types.Stats{
		Started:       s.started,
		Workers:       s.workerCount,
		QueueCapacity: s.queueSize,
		RunStore:      s.storeKind,
	}

	if s.started {
		ctx := context.Background()
		stats.Workers = s.pool.Size()
		stats.BusyWorkers = s.pool.Busy()
		stats.QueueLength = s.queue.Len(ctx)
		stats.MemoSize = s.memo.Size()
		if n, err := s.store.Count(ctx); err == nil {
			stats.StoredRuns = n
		}

		metrics.UpdateQueueSize(stats.QueueLength)
		metrics.UpdateWorkerCount(stats.Workers)
	}

	return stats
}
