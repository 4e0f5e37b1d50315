package decoder

import (
	"errors"
	"fmt"
)

// ErrDecode is matched by every decoding failure.
var ErrDecode = errors.New("decode failed")

// Decode failure kinds.
var (
	// ErrUnknownManufacturer: the WMI is not in the lookup table.
	ErrUnknownManufacturer = errors.New("unknown manufacturer")
	// ErrVINNotFound: the remote service knows nothing about the VIN.
	ErrVINNotFound = errors.New("vin not found")
	// ErrUnavailable: the remote service could not be reached or answered garbage.
	ErrUnavailable = errors.New("decoder unavailable")
)

// Error carries the decoder, the VIN and the failure kind.
type Error struct {
	Decoder string
	VIN     string
	Kind    error
	Err     error
}

func newError(decoder, vin string, kind, err error) *Error {
	return &Error{Decoder: decoder, VIN: vin, Kind: kind, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s decoder: %s: %v: %v", e.Decoder, e.VIN, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s decoder: %s: %v", e.Decoder, e.VIN, e.Kind)
}

// Unwrap exposes both the kind and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// Is reports every *Error as an ErrDecode.
func (e *Error) Is(target error) bool { return target == ErrDecode }

// KindOf returns a short label for err suitable for metrics and logs.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnknownManufacturer):
		return "unknown_manufacturer"
	case errors.Is(err, ErrVINNotFound):
		return "not_found"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	default:
		return "internal"
	}
}
