package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	service "github.com/okian/vinlookup/internal/app"
)

// LookupDependencies defines the interface for lookup operations.
type LookupDependencies interface {
	Lookup(ctx context.Context, raw string, refresh bool) (service.LookupResult, error)
	LookupBatch(ctx context.Context, raws []string, refresh bool) ([]service.BatchItem, error)
}

// LookupHandler handles lookup requests.
type LookupHandler struct {
	deps LookupDependencies
}

// NewLookupHandler creates a new lookup handler.
func NewLookupHandler(deps LookupDependencies) *LookupHandler {
	return &LookupHandler{deps: deps}
}

func refreshParam(r *http.Request) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get("refresh"))
	return err == nil && v
}

// HandleLookup handles POST /lookup requests.
func (h *LookupHandler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	const op = "api.lookup"
	if !requireMethod(w, r, op, http.MethodPost) {
		return
	}
	raw, err := readVIN(w, r, op)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	res, err := h.deps.Lookup(r.Context(), raw, refreshParam(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLookupResponse(res))
}

// HandleBatch handles POST /lookup/batch requests.
func (h *LookupHandler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.lookup_batch"
	if !requireMethod(w, r, op, http.MethodPost) {
		return
	}
	body, err := readBody(w, r, op)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	var req batchRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeDomainError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	items, err := h.deps.LookupBatch(r.Context(), req.VINs, refreshParam(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := batchResponse{Items: make([]batchItemResponse, len(items))}
	for i, it := range items {
		resp.Items[i].Input = it.Input
		if it.Err != nil {
			resp.Items[i].Error = toErrorResponse(it.Err)
			resp.Failed++
			continue
		}
		resp.Items[i].Result = toLookupResponse(it.Result)
		resp.Succeeded++
	}
	writeJSON(w, http.StatusOK, resp)
}
