package api

import (
	"errors"
	"net/http"

	"github.com/okian/vinlookup/internal/domain/vin"
)

// ValidateDependencies defines the interface for validation.
type ValidateDependencies interface {
	Validate(raw string) (vin.Parts, error)
}

// ValidateHandler handles validation requests.
type ValidateHandler struct {
	deps ValidateDependencies
}

// NewValidateHandler creates a new validate handler.
func NewValidateHandler(deps ValidateDependencies) *ValidateHandler {
	return &ValidateHandler{deps: deps}
}

// HandleValidate handles POST /validate requests. An invalid VIN is a
// successful answer with valid=false.
func (h *ValidateHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	const op = "api.validate"
	if !requireMethod(w, r, op, http.MethodPost) {
		return
	}
	raw, err := readVIN(w, r, op)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	parts, err := h.deps.Validate(raw)
	if err != nil {
		var ve *vin.ValidationError
		if !errors.As(err, &ve) {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, validateResponse{VIN: raw, Reason: string(ve.Reason), Detail: ve.Error()})
		return
	}
	writeJSON(w, http.StatusOK, validateResponse{VIN: string(parts.VIN), Valid: true, Parts: &parts})
}
