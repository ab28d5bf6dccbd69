package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/seirsim/internal/domain/model"
	"github.com/okian/seirsim/internal/domain/simulation"
	"github.com/okian/seirsim/pkg/metrics"
)

// MemoryStore keeps runs in a map with their insertion order.
type MemoryStore struct {
	mu      sync.RWMutex
	runs    map[string]*model.Run
	order   []string // oldest first
	maxRuns int
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{runs: make(map[string]*model.Run)}
	for _, opt := range opts {
		opt(s)
	}
	metrics.UpdateStoredRuns(0)
	return s
}

func (s *MemoryStore) Create(_ context.Context, run *model.Run) error {
	defer observe("create", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[run.ID]; ok {
		return ErrDuplicateID
	}
	if s.maxRuns > 0 && len(s.runs) >= s.maxRuns {
		s.evictFinished()
	}
	c := *run
	s.runs[run.ID] = &c
	s.order = append(s.order, run.ID)
	metrics.UpdateStoredRuns(len(s.runs))
	return nil
}

// evictFinished drops the oldest run in a terminal state. Must be called
// with s.mu held.
func (s *MemoryStore) evictFinished() {
	for i, id := range s.order {
		if s.runs[id].Status.Done() {
			delete(s.runs, id)
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

func (s *MemoryStore) MarkRunning(_ context.Context, id string, at time.Time) error {
	defer observe("mark_running", time.Now())
	return s.update(id, func(r *model.Run) {
		r.Status = model.StatusRunning
		r.StartedAt = at.UTC()
	})
}

func (s *MemoryStore) Complete(_ context.Context, id string, series *simulation.Series, at time.Time) error {
	defer observe("complete", time.Now())
	return s.update(id, func(r *model.Run) {
		r.Status = model.StatusSucceeded
		r.Series = series
		r.FinishedAt = at.UTC()
	})
}

func (s *MemoryStore) Fail(_ context.Context, id, kind, reason string, at time.Time) error {
	defer observe("fail", time.Now())
	return s.update(id, func(r *model.Run) {
		r.Status = model.StatusFailed
		r.ErrorKind = kind
		r.Error = reason
		r.FinishedAt = at.UTC()
	})
}

func (s *MemoryStore) update(id string, fn func(*model.Run)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.runs[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return ErrNotFound
	}
	fn(r)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*model.Run, error) {
	defer observe("get", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *r
	return &c, nil
}

func (s *MemoryStore) List(_ context.Context, limit int) ([]*model.Run, error) {
	defer observe("list", time.Now())
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Run, 0, min(limit, len(s.order)))
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, withoutSeries(s.runs[s.order[i]]))
	}
	return out, nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs), nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
