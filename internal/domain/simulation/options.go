package simulation

import (
	"time"

	"github.com/okian/seirsim/pkg/logger"
)

// Option configures a single Run.
type Option func(*options)

type options struct {
	start time.Time
	log   logger.Logger
}

func defaultOptions() options {
	return options{log: logger.Nop()}
}

// WithStartDate stamps every snapshot with a calendar date counted from t.
func WithStartDate(t time.Time) Option {
	return func(o *options) {
		if !t.IsZero() {
			o.start = t.UTC().Truncate(24 * time.Hour)
		}
	}
}

// WithLogger sets the logger for run start and finish messages.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}
