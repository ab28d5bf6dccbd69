package worker

import (
	"github.com/okian/seirsim/pkg/logger"
)

// Option applies a configuration option to an InMemoryWorker or a Pool.
type Option func(*settings)

type settings struct {
	name   string
	logger logger.Logger
	onDone DoneFunc
}

// DoneFunc observes the outcome of every job; err is nil on success.
type DoneFunc func(job Job, err error)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(s *settings) {
		if name != "" {
			s.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithOnDone registers a callback invoked after each job is recorded.
func WithOnDone(fn DoneFunc) Option {
	return func(s *settings) {
		s.onDone = fn
	}
}
