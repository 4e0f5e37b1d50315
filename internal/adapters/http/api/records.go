package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/vinlookup/internal/domain/model"
)

// RecordsDependencies defines the interface for record reads.
type RecordsDependencies interface {
	List(ctx context.Context) ([]model.Record, error)
	Get(ctx context.Context, raw string) (model.Record, error)
}

// RecordsHandler handles record listing requests.
type RecordsHandler struct {
	deps RecordsDependencies
}

// NewRecordsHandler creates a new records handler.
func NewRecordsHandler(deps RecordsDependencies) *RecordsHandler {
	return &RecordsHandler{deps: deps}
}

// HandleList handles GET /records requests.
func (h *RecordsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, "api.records", http.MethodGet) {
		return
	}
	recs, err := h.deps.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recordsResponse{Records: recs, Count: len(recs)})
}

// HandleGet handles GET /records/{vin} requests.
func (h *RecordsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.record"
	if !requireMethod(w, r, op, http.MethodGet) {
		return
	}
	// Extract path parameter after /records/
	path := strings.TrimPrefix(r.URL.Path, "/records/")
	if path == "" || strings.Contains(path, "/") {
		writeDomainError(w, NewKind(op, ErrBadRequest))
		return
	}
	rec, err := h.deps.Get(r.Context(), path)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
