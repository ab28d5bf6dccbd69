// Package types contains the request and response shapes shared by the
// service, the HTTP API and the CLI.
package types

import (
	"github.com/okian/seirsim/internal/domain/model"
	"github.com/okian/seirsim/internal/domain/simerr"
	"github.com/okian/seirsim/internal/domain/simulation"
)

// Scenario is a named request, as compared side by side.
type Scenario struct {
	Name    string        `json:"name" yaml:"name" koanf:"name"`
	Request model.Request `json:"request" yaml:"request" koanf:"request"`
}

// Outcome is the result of one scenario of a comparison. Exactly one of
// Series and Err is set.
type Outcome struct {
	Name    string              `json:"name"`
	Summary *simulation.Summary `json:"summary,omitempty"`
	Series  *simulation.Series  `json:"series,omitempty"`
	Error   *ErrorResponse      `json:"error,omitempty"`
	Err     error               `json:"-"`
}

// NewOutcome builds the outcome of a scenario from its run result.
func NewOutcome(name string, series *simulation.Series, err error) Outcome {
	if err != nil {
		e := NewErrorResponse(err)
		return Outcome{Name: name, Error: &e, Err: err}
	}
	sum := series.Summary()
	return Outcome{Name: name, Summary: &sum, Series: series}
}

// SimulateResponse is the body of a synchronous run.
type SimulateResponse struct {
	Summary simulation.Summary `json:"summary"`
	Series  *simulation.Series `json:"series"`
}

// SubmitResponse acknowledges an asynchronous run.
type SubmitResponse struct {
	RunID     string       `json:"run_id"`
	Status    model.Status `json:"status"`
	Duplicate bool         `json:"duplicate"`
}

// ErrorResponse is the error body of every endpoint. Day is set for
// failures that happened mid-run.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Day     *int   `json:"day,omitempty"`
}

// NewErrorResponse labels err with its engine kind and failing day.
func NewErrorResponse(err error) ErrorResponse {
	r := ErrorResponse{Code: simerr.Label(err), Message: err.Error()}
	if day, ok := simerr.DayOf(err); ok {
		r.Day = &day
	}
	return r
}

// Stats reports the state of the service.
type Stats struct {
	Started       bool   `json:"started"`
	Workers       int    `json:"workers"`
	BusyWorkers   int    `json:"busy_workers"`
	QueueCapacity int    `json:"queue_capacity"`
	QueueLength   int    `json:"queue_length"`
	MemoSize      int64  `json:"memo_size"`
	StoredRuns    int    `json:"stored_runs"`
	RunStore      string `json:"run_store"`
}
