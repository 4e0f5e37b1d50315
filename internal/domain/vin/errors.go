package vin

import (
	"errors"
	"fmt"
)

// ErrInvalid is matched by every validation failure.
var ErrInvalid = errors.New("invalid vin")

// Reason identifies which structural rule a candidate VIN broke.
type Reason string

// Validation failure reasons.
const (
	ReasonLength     Reason = "length"
	ReasonCharset    Reason = "charset"
	ReasonCheckDigit Reason = "check_digit"
)

// ValidationError describes why a candidate is not a well-formed VIN.
type ValidationError struct {
	Candidate string
	Reason    Reason
	// Position is the 1-based offending position, 0 when not applicable.
	Position int
	Detail   string
}

func (e *ValidationError) Error() string {
	if e.Position > 0 {
		return fmt.Sprintf("invalid vin %q: %s at position %d: %s", e.Candidate, e.Reason, e.Position, e.Detail)
	}
	return fmt.Sprintf("invalid vin %q: %s: %s", e.Candidate, e.Reason, e.Detail)
}

// Unwrap lets errors.Is(err, ErrInvalid) match.
func (e *ValidationError) Unwrap() error { return ErrInvalid }
