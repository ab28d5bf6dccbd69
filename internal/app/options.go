package service

import (
	"time"

	"github.com/okian/seirsim/internal/adapters/repository"
	"github.com/okian/seirsim/internal/domain/epidemic"
	"github.com/okian/seirsim/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of simulation workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of queued runs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithMemoSize bounds the fingerprint memo; size <= 0 means unbounded.
func WithMemoSize(size int) Option {
	return func(s *Service) {
		s.memoSize = size
	}
}

// WithRunStore selects the run store backend (memory or sqlite) and the
// SQLite database path.
func WithRunStore(kind, sqlitePath string) Option {
	return func(s *Service) {
		if kind != "" {
			s.storeKind = kind
		}
		s.sqlitePath = sqlitePath
	}
}

// WithStore injects a ready run store; the service closes it on Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithMaxRuns bounds the in-memory run store.
func WithMaxRuns(n int) Option {
	return func(s *Service) {
		s.maxRuns = n
	}
}

// WithMaxHorizon rejects requests longer than days.
func WithMaxHorizon(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.maxHorizon = days
		}
	}
}

// WithMaxScenarios caps the number of scenarios of one comparison.
func WithMaxScenarios(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxScenarios = n
		}
	}
}

// WithMaxListLimit caps the number of runs returned by Runs.
func WithMaxListLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxListLimit = n
		}
	}
}

// WithDefaults sets the request that Defaults reports, which the HTTP and
// CLI front ends merge partial input onto.
func WithDefaults(params epidemic.Parameters, horizonDays int, startDate string) Option {
	return func(s *Service) {
		s.defaults.Parameters = params
		if horizonDays > 0 {
			s.defaults.HorizonDays = horizonDays
		}
		s.defaults.StartDate = startDate
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
