package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/okian/seirsim/internal/domain/simulation"
)

// Status is the lifecycle state of an asynchronous run.
type Status string

// Run statuses.
const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Done reports whether the run reached a terminal state.
func (s Status) Done() bool { return s == StatusSucceeded || s == StatusFailed }

// Run is the stored record of a submitted simulation.
type Run struct {
	ID          string             `json:"id"`
	Fingerprint string             `json:"fingerprint"`
	Status      Status             `json:"status"`
	Request     Request            `json:"request"`
	Series      *simulation.Series `json:"series,omitempty"`
	Error       string             `json:"error,omitempty"`
	ErrorKind   string             `json:"error_kind,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	StartedAt   time.Time          `json:"started_at,omitzero"`
	FinishedAt  time.Time          `json:"finished_at,omitzero"`
}

// NewRun creates a queued run with a fresh ID.
func NewRun(req Request, now time.Time) *Run {
	return &Run{
		ID:          uuid.NewString(),
		Fingerprint: req.Fingerprint(),
		Status:      StatusQueued,
		Request:     req,
		CreatedAt:   now.UTC(),
	}
}

// Job is the unit of work carried by the queue.
type Job struct {
	RunID      string
	Request    Request
	EnqueuedAt time.Time
}
