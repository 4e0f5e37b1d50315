// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	service "github.com/okian/vinlookup/internal/app"
	"github.com/okian/vinlookup/internal/domain/decoder"
	"github.com/okian/vinlookup/internal/domain/export"
	"github.com/okian/vinlookup/internal/domain/model"
	"github.com/okian/vinlookup/internal/domain/vin"
)

// maxBodyBytes bounds request bodies; a batch of a few hundred VINs fits.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	LookupDependencies
	RemoveDependencies
	ValidateDependencies
	RecordsDependencies
	ExportDependencies
	HealthDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	metricsHandler  http.Handler
	statsHandler    *StatsHandler
	lookupHandler   *LookupHandler
	removeHandler   *RemoveHandler
	validateHandler *ValidateHandler
	recordsHandler  *RecordsHandler
	exportHandler   *ExportHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(deps),
		metricsHandler:  NewMetricsHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		lookupHandler:   NewLookupHandler(deps),
		removeHandler:   NewRemoveHandler(deps),
		validateHandler: NewValidateHandler(deps),
		recordsHandler:  NewRecordsHandler(deps),
		exportHandler:   NewExportHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", s.metricsHandler)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/lookup", MetricsMiddleware(s.lookupHandler.HandleLookup, "lookup"))
	mux.HandleFunc("/lookup/batch", MetricsMiddleware(s.lookupHandler.HandleBatch, "lookup_batch"))
	mux.HandleFunc("/remove", MetricsMiddleware(s.removeHandler.HandleRemove, "remove"))
	mux.HandleFunc("/validate", MetricsMiddleware(s.validateHandler.HandleValidate, "validate"))
	mux.HandleFunc("/records", MetricsMiddleware(s.recordsHandler.HandleList, "records"))
	mux.HandleFunc("/records/", MetricsMiddleware(s.recordsHandler.HandleGet, "record"))
	mux.HandleFunc("/export", MetricsMiddleware(s.exportHandler.HandleExport, "export"))
}

// vinRequest mirrors the OpenAPI schema for POST /lookup and POST /remove.
type vinRequest struct {
	VIN string `json:"vin"`
}

// batchRequest mirrors the OpenAPI schema for POST /lookup/batch.
type batchRequest struct {
	VINs []string `json:"vins"`
}

// lookupResponse is the body of a successful lookup.
type lookupResponse struct {
	VINRequested string `json:"vin_requested"`
	CachedResult bool   `json:"cached_result"`
	// Make mirrors Manufacturer for clients of the older response shape.
	Make string `json:"make"`
	model.Record
}

type batchItemResponse struct {
	Input  string          `json:"input"`
	Result *lookupResponse `json:"result,omitempty"`
	Error  *errorResponse  `json:"error,omitempty"`
}

type batchResponse struct {
	Items     []batchItemResponse `json:"items"`
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
}

type removeResponse struct {
	VINRequested  string `json:"vin_requested"`
	DeleteSuccess bool   `json:"delete_success"`
}

type validateResponse struct {
	VIN    string     `json:"vin"`
	Valid  bool       `json:"valid"`
	Reason string     `json:"reason,omitempty"`
	Detail string     `json:"detail,omitempty"`
	Parts  *vin.Parts `json:"parts,omitempty"`
}

type recordsResponse struct {
	Records []model.Record `json:"records"`
	Count   int            `json:"count"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError classifies err and writes the matching status.
func writeDomainError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	if errors.Is(err, decoder.ErrVINNotFound) {
		w.Header().Set("X-Error", vinNotFoundMessage)
	}
	writeError(w, status, code, err)
}

func toErrorResponse(err error) *errorResponse {
	_, code := classify(err)
	return &errorResponse{Code: code, Message: err.Error()}
}

// readBody reads at most maxBodyBytes of the request body.
func readBody(w http.ResponseWriter, r *http.Request, op string) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, WrapKind(op, ErrBodyTooLarge, err)
		}
		return nil, WrapKind(op, ErrBadRequest, err)
	}
	return body, nil
}

func isJSON(r *http.Request, body []byte) bool {
	if strings.Contains(r.Header.Get("Content-Type"), "json") {
		return true
	}
	trimmed := strings.TrimSpace(string(body))
	return strings.HasPrefix(trimmed, "{")
}

// readVIN accepts either {"vin": "..."} or the VIN as plain text.
func readVIN(w http.ResponseWriter, r *http.Request, op string) (string, error) {
	body, err := readBody(w, r, op)
	if err != nil {
		return "", err
	}
	raw := strings.TrimSpace(string(body))
	if isJSON(r, body) {
		var req vinRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return "", WrapKind(op, ErrBadRequest, err)
		}
		raw = strings.TrimSpace(req.VIN)
	}
	if raw == "" {
		return "", WrapKind(op, ErrBadRequest, errors.New("missing vin"))
	}
	return raw, nil
}

func requireMethod(w http.ResponseWriter, r *http.Request, op, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeDomainError(w, NewKind(op, ErrMethodNotAllowed))
	return false
}

func toLookupResponse(res service.LookupResult) *lookupResponse {
	return &lookupResponse{
		VINRequested: res.Record.VIN,
		CachedResult: res.Cached,
		Make:         res.Record.Manufacturer,
		Record:       res.Record,
	}
}

// exportFormat reads ?format=, falling back to the service default.
func exportFormat(r *http.Request) (export.Format, error) {
	f := r.URL.Query().Get("format")
	if f == "" {
		return "", nil
	}
	return export.ParseFormat(f)
}
