package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrNoScenarios  = errors.New("no scenarios to compare")
	ErrTooManyRuns  = errors.New("too many scenarios")
	ErrUnknownStore = errors.New("unknown run store")
)
