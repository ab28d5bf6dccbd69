// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/okian/seirsim/internal/adapters/mq/queue"
	"github.com/okian/seirsim/internal/adapters/repository"
	"github.com/okian/seirsim/internal/domain/epidemic"
	"github.com/okian/seirsim/internal/domain/model"
	"github.com/okian/seirsim/internal/domain/simerr"
	"github.com/okian/seirsim/internal/domain/simulation"
	"github.com/okian/seirsim/internal/domain/types"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Defaults is the request that partial request bodies are decoded onto.
	Defaults() model.Request
	Catalog() []epidemic.ParamSpec

	Simulate(ctx context.Context, req model.Request) (*simulation.Series, error)
	Compare(ctx context.Context, scenarios []types.Scenario) ([]types.Outcome, error)

	// Submit queues a run. Returns queue.ErrFull on backpressure.
	Submit(ctx context.Context, req model.Request) (runID string, duplicate bool, err error)
	Run(ctx context.Context, id string) (*model.Run, error)
	Runs(ctx context.Context, limit int) ([]*model.Run, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	simulateHandler   *SimulateHandler
	runsHandler       *RunsHandler
	parametersHandler *ParametersHandler
}

// NewServer creates a new API server with all handlers. maxListLimit caps
// GET /runs?limit.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxListLimit int) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		simulateHandler:   NewSimulateHandler(deps),
		runsHandler:       NewRunsHandler(deps, maxListLimit),
		parametersHandler: NewParametersHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", MetricsMiddleware(s.healthHandler.HandleMetrics, "metrics"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/parameters", MetricsMiddleware(s.parametersHandler.HandleGetParameters, "parameters"))
	mux.HandleFunc("/simulate", MetricsMiddleware(s.simulateHandler.HandleSimulate, "simulate"))
	mux.HandleFunc("/compare", MetricsMiddleware(s.simulateHandler.HandleCompare, "compare"))
	mux.HandleFunc("/runs", MetricsMiddleware(s.runsHandler.HandleRuns, "runs"))
	mux.HandleFunc("/runs/", MetricsMiddleware(s.runsHandler.HandleGetRun, "run"))
}

// decodeRequest decodes a request body onto a copy of the defaults, so
// omitted fields keep their default values.
func decodeRequest(defaults model.Request, body io.Reader) (model.Request, error) {
	req := defaults
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return model.Request{}, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return req, nil
}

// wantFractions reports whether ?fractions=true was passed.
func wantFractions(r *http.Request) (bool, error) {
	v := r.URL.Query().Get("fractions")
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: fractions must be a boolean, got %q", ErrBadRequest, v)
	}
	return b, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status code and writes it as an ErrorResponse.
func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	body := types.NewErrorResponse(err)
	if simerr.KindOf(err) == nil {
		body.Code = code
	}
	writeJSON(w, status, body)
}

// classify maps an error to its HTTP status and a code for errors that carry
// no engine kind.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrMethod):
		return http.StatusMethodNotAllowed, "method_not_allowed"
	case errors.Is(err, ErrBadRequest), errors.Is(err, repository.ErrInvalidLimit):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, simerr.ErrConfiguration):
		return http.StatusBadRequest, "configuration"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, queue.ErrFull), errors.Is(err, ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, queue.ErrClosed), errors.Is(err, simerr.ErrCancelled):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, simerr.ErrNumericalDomain):
		return http.StatusUnprocessableEntity, "numerical_domain"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed string) {
	w.Header().Set("Allow", allowed)
	writeError(w, fmt.Errorf("%w: %s %s", ErrMethod, r.Method, r.URL.Path))
}
