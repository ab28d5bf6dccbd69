package api

import (
	"net/http"

	"github.com/okian/seirsim/internal/domain/epidemic"
	"github.com/okian/seirsim/internal/domain/model"
)

// ParametersDependencies exposes the parameter catalog and request defaults.
type ParametersDependencies interface {
	Defaults() model.Request
	Catalog() []epidemic.ParamSpec
}

// ParametersHandler serves the parameter catalog.
type ParametersHandler struct {
	deps ParametersDependencies
}

// NewParametersHandler creates a new parameters handler.
func NewParametersHandler(deps ParametersDependencies) *ParametersHandler {
	return &ParametersHandler{deps: deps}
}

type parametersResponse struct {
	Parameters []epidemic.ParamSpec `json:"parameters"`
	Defaults   model.Request        `json:"defaults"`
}

// HandleGetParameters handles GET /parameters requests.
func (h *ParametersHandler) HandleGetParameters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, parametersResponse{
		Parameters: h.deps.Catalog(),
		Defaults:   h.deps.Defaults(),
	})
}
