package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okian/vinlookup/internal/domain/export"
)

// ExportDependencies defines the interface for exports.
type ExportDependencies interface {
	Export(ctx context.Context, format export.Format) (export.Artifact, error)
}

// ExportHandler serves the stored records as a downloadable file.
type ExportHandler struct {
	deps ExportDependencies
}

// NewExportHandler creates a new export handler.
func NewExportHandler(deps ExportDependencies) *ExportHandler {
	return &ExportHandler{deps: deps}
}

// HandleExport handles GET /export?format= requests.
func (h *ExportHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, "api.export", http.MethodGet) {
		return
	}
	format, err := exportFormat(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	a, err := h.deps.Export(r.Context(), format)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("ETag", a.ETag)
	w.Header().Set("X-Record-Count", strconv.Itoa(a.Rows))
	if match := r.Header.Get("If-None-Match"); match != "" && match == a.ETag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", a.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+a.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(a.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(a.Data)
}
