package api

import (
	"context"
	"net/http"

	"github.com/okian/vinlookup/internal/domain/vin"
)

// RemoveDependencies defines the interface for remove operations.
type RemoveDependencies interface {
	Remove(ctx context.Context, raw string) (vin.VIN, error)
}

// RemoveHandler handles remove requests.
type RemoveHandler struct {
	deps RemoveDependencies
}

// NewRemoveHandler creates a new remove handler.
func NewRemoveHandler(deps RemoveDependencies) *RemoveHandler {
	return &RemoveHandler{deps: deps}
}

// HandleRemove handles POST /remove requests.
func (h *RemoveHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	const op = "api.remove"
	if !requireMethod(w, r, op, http.MethodPost) {
		return
	}
	raw, err := readVIN(w, r, op)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	v, err := h.deps.Remove(r.Context(), raw)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, removeResponse{VINRequested: string(v), DeleteSuccess: true})
}
