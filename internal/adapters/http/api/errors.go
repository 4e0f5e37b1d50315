package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	service "github.com/okian/vinlookup/internal/app"
	"github.com/okian/vinlookup/internal/adapters/repository"
	"github.com/okian/vinlookup/internal/domain/decoder"
	"github.com/okian/vinlookup/internal/domain/export"
	"github.com/okian/vinlookup/internal/domain/vin"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest       = errors.New("bad request")
	ErrMethodNotAllowed = errors.New("method not allowed")
	ErrBodyTooLarge     = errors.New("request body too large")
)

// vinNotFoundMessage is sent in the X-Error header when the remote decoder
// does not know a VIN.
const vinNotFoundMessage = "VIN doesn't exist or invalid VIN has been entered"

// KindError tags an error with the operation that produced it.
type KindError struct {
	Op   string
	Kind error
	Err  error
}

func (e *KindError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *KindError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewKind returns an error of kind raised by op.
func NewKind(op string, kind error) error {
	return &KindError{Op: op, Kind: kind}
}

// WrapKind tags err with op and kind.
func WrapKind(op string, kind, err error) error {
	return &KindError{Op: op, Kind: kind, Err: err}
}

// classify maps a domain error to an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed, "method_not_allowed"
	case errors.Is(err, ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge, "body_too_large"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrBatchEmpty),
		errors.Is(err, service.ErrBatchTooLarge):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, vin.ErrInvalid):
		return http.StatusBadRequest, "invalid_vin"
	case errors.Is(err, decoder.ErrUnknownManufacturer):
		return http.StatusUnprocessableEntity, "unknown_manufacturer"
	case errors.Is(err, decoder.ErrVINNotFound):
		return http.StatusNotFound, "vin_not_found"
	case errors.Is(err, decoder.ErrUnavailable):
		return http.StatusServiceUnavailable, "decoder_unavailable"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, export.ErrEmpty):
		return http.StatusNotFound, "no_records"
	case errors.Is(err, export.ErrUnknownFormat):
		return http.StatusBadRequest, "unknown_format"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
