package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/okian/seirsim/internal/domain/model"
	"github.com/okian/seirsim/internal/domain/simulation"
	"github.com/okian/seirsim/internal/domain/types"
)

// SimulateDependencies defines the synchronous simulation operations.
type SimulateDependencies interface {
	Defaults() model.Request
	Simulate(ctx context.Context, req model.Request) (*simulation.Series, error)
	Compare(ctx context.Context, scenarios []types.Scenario) ([]types.Outcome, error)
}

// SimulateHandler handles synchronous runs and comparisons.
type SimulateHandler struct {
	deps SimulateDependencies
}

// NewSimulateHandler creates a new simulate handler.
func NewSimulateHandler(deps SimulateDependencies) *SimulateHandler {
	return &SimulateHandler{deps: deps}
}

// HandleSimulate handles POST /simulate?fractions=bool requests.
func (h *SimulateHandler) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	fractions, err := wantFractions(r)
	if err != nil {
		writeError(w, err)
		return
	}
	req, err := decodeRequest(h.deps.Defaults(), http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, err)
		return
	}

	series, err := h.deps.Simulate(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	if fractions {
		series = series.Fractions()
	}
	writeJSON(w, http.StatusOK, types.SimulateResponse{Summary: series.Summary(), Series: series})
}

// compareRequest is the body of POST /compare. Each request is decoded onto
// the defaults on its own.
type compareRequest struct {
	Scenarios []struct {
		Name    string          `json:"name"`
		Request json.RawMessage `json:"request"`
	} `json:"scenarios"`
}

// HandleCompare handles POST /compare?fractions=bool requests.
func (h *SimulateHandler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	fractions, err := wantFractions(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var body compareRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeError(w, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}

	defaults := h.deps.Defaults()
	scenarios := make([]types.Scenario, len(body.Scenarios))
	for i, sc := range body.Scenarios {
		req := defaults
		if len(sc.Request) > 0 {
			var err error
			if req, err = decodeRequest(defaults, bytes.NewReader(sc.Request)); err != nil {
				writeError(w, fmt.Errorf("scenario %d: %w", i+1, err))
				return
			}
		}
		scenarios[i] = types.Scenario{Name: sc.Name, Request: req}
	}

	outcomes, err := h.deps.Compare(r.Context(), scenarios)
	if err != nil {
		writeError(w, err)
		return
	}
	if fractions {
		for i := range outcomes {
			if outcomes[i].Series != nil {
				outcomes[i].Series = outcomes[i].Series.Fractions()
				sum := outcomes[i].Series.Summary()
				outcomes[i].Summary = &sum
			}
		}
	}
	writeJSON(w, http.StatusOK, outcomes)
}
