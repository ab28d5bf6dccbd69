package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/seirsim/internal/domain/model"
	"github.com/okian/seirsim/internal/domain/types"
)

const defaultListLimit = 20

// RunsDependencies defines the asynchronous run operations.
type RunsDependencies interface {
	Defaults() model.Request
	Submit(ctx context.Context, req model.Request) (runID string, duplicate bool, err error)
	Run(ctx context.Context, id string) (*model.Run, error)
	Runs(ctx context.Context, limit int) ([]*model.Run, error)
}

// RunsHandler handles submitted runs.
type RunsHandler struct {
	deps     RunsDependencies
	maxLimit int
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(deps RunsDependencies, maxLimit int) *RunsHandler {
	if maxLimit < 1 {
		maxLimit = defaultListLimit
	}
	return &RunsHandler{deps: deps, maxLimit: maxLimit}
}

// HandleRuns handles POST /runs and GET /runs?limit=N requests.
func (h *RunsHandler) HandleRuns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.submit(w, r)
	case http.MethodGet:
		h.list(w, r)
	default:
		methodNotAllowed(w, r, "GET, POST")
	}
}

func (h *RunsHandler) submit(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(h.deps.Defaults(), http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, err)
		return
	}
	id, dup, err := h.deps.Submit(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	if !dup {
		writeJSON(w, http.StatusAccepted, types.SubmitResponse{RunID: id, Status: model.StatusQueued})
		return
	}

	resp := types.SubmitResponse{RunID: id, Status: model.StatusQueued, Duplicate: true}
	if run, err := h.deps.Run(r.Context(), id); err == nil {
		resp.Status = run.Status
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *RunsHandler) list(w http.ResponseWriter, r *http.Request) {
	n := defaultListLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			writeError(w, fmt.Errorf("%w: limit must be a positive integer, got %q", ErrBadRequest, s))
			return
		}
		n = v
	}
	if n > h.maxLimit {
		writeError(w, fmt.Errorf("%w: limit %d exceeds %d", ErrBadRequest, n, h.maxLimit))
		return
	}
	runs, err := h.deps.Runs(r.Context(), n)
	if err != nil {
		writeError(w, err)
		return
	}
	if runs == nil {
		runs = []*model.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// HandleGetRun handles GET /runs/{id}?fractions=bool requests.
func (h *RunsHandler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/runs/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, fmt.Errorf("%w: malformed run id %q", ErrBadRequest, id))
		return
	}
	fractions, err := wantFractions(r)
	if err != nil {
		writeError(w, err)
		return
	}
	run, err := h.deps.Run(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if fractions && run.Series != nil {
		run.Series = run.Series.Fractions()
	}
	writeJSON(w, http.StatusOK, run)
}
