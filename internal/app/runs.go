package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/seirsim/internal/adapters/mq/worker"
	"github.com/okian/seirsim/internal/adapters/repository"
	"github.com/okian/seirsim/internal/domain/model"
	"github.com/okian/seirsim/internal/domain/simerr"
	"github.com/okian/seirsim/pkg/logger"
	"github.com/okian/seirsim/pkg/metrics"
)

// Submit queues req for the worker pool and returns the run ID. Identical
// requests share one run while it is queued, running or succeeded; duplicate
// reports whether the returned run already existed.
func (s *Service) Submit(ctx context.Context, req model.Request) (runID string, duplicate bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return "", false, ErrNotStarted
	}

	if err := req.Validate(s.maxHorizon); err != nil {
		metrics.RecordRunError(simerr.Label(err))
		return "", false, err
	}

	fp := req.Fingerprint()
	run := model.NewRun(req, s.now())
	if id, dup := s.memo.Remember(ctx, fp, run.ID); dup {
		if _, err := s.store.Get(ctx, id); err == nil {
			metrics.RecordMemoHit()
			return id, true, nil
		}
		// The run was evicted from the store; start over.
		s.memo.Forget(ctx, fp)
		if id, dup := s.memo.Remember(ctx, fp, run.ID); dup {
			return id, true, nil
		}
	}

	if err := s.store.Create(ctx, run); err != nil {
		s.memo.Forget(ctx, fp)
		return "", false, fmt.Errorf("create run: %w", err)
	}
	if err := s.queue.Enqueue(ctx, model.Job{RunID: run.ID, Request: req}); err != nil {
		s.memo.Forget(ctx, fp)
		if ferr := s.store.Fail(ctx, run.ID, "rejected", err.Error(), s.now()); ferr != nil {
			s.logger.Warn(ctx, "could not mark rejected run", logger.String("run_id", run.ID), logger.Error(ferr))
		}
		return "", false, fmt.Errorf("enqueue run %s: %w", run.ID, err)
	}

	s.logger.Debug(ctx, "run queued",
		logger.String("run_id", run.ID),
		logger.String("policy", string(req.Policy.Kind)),
		logger.Int("horizon", req.HorizonDays))
	return run.ID, false, nil
}

// onRunDone forgets the fingerprint of failed runs so resubmitting the same
// request runs it again.
func (s *Service) onRunDone(job worker.Job, err error) { //nolint:gocritic // hugeParam: jobs travel by value
	if err == nil {
		return
	}
	ctx := context.Background()
	fp := job.Request.Fingerprint()
	if id, ok := s.memo.Lookup(ctx, fp); ok && id == job.RunID {
		s.memo.Forget(ctx, fp)
	}
}

// Run returns a stored run with its series.
func (s *Service) Run(ctx context.Context, id string) (*model.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store.Get(ctx, id)
}

// Runs returns the newest runs without their series. limit is capped at the
// configured maximum.
func (s *Service) Runs(ctx context.Context, limit int) ([]*model.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	if limit > s.maxListLimit {
		limit = s.maxListLimit
	}
	runs, err := s.store.List(ctx, limit)
	if errors.Is(err, repository.ErrInvalidLimit) {
		return nil, simerr.WrapKind("service.runs", simerr.ErrConfiguration, err)
	}
	return runs, err
}
