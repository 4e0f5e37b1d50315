// Package vin validates Vehicle Identification Numbers and breaks them into
// their positional parts (ISO 3779 / 49 CFR 565).
package vin

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Length is the number of characters in a modern VIN.
const Length = 17

// checkDigitPos is the 0-based index of the check digit.
const checkDigitPos = 8

// VIN is a structurally valid, upper-case Vehicle Identification Number.
// Values are only produced by Validate.
type VIN string

func (v VIN) String() string { return string(v) }

// CheckDigitMode controls when the position 9 check digit is enforced.
type CheckDigitMode string

// Check digit modes.
const (
	CheckDigitAlways       CheckDigitMode = "always"
	CheckDigitNorthAmerica CheckDigitMode = "north_america"
	CheckDigitNever        CheckDigitMode = "never"
)

// ParseCheckDigitMode converts a config string into a CheckDigitMode.
func ParseCheckDigitMode(s string) (CheckDigitMode, error) {
	switch m := CheckDigitMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return CheckDigitNorthAmerica, nil
	case CheckDigitAlways, CheckDigitNorthAmerica, CheckDigitNever:
		return m, nil
	default:
		return "", fmt.Errorf("unknown check digit mode %q", s)
	}
}

// weights applied per position when computing the check digit.
var weights = [Length]int{8, 7, 6, 5, 4, 3, 2, 10, 0, 9, 8, 7, 6, 5, 4, 3, 2}

// transliterate maps a VIN character to its numeric value; ok is false for
// characters outside the VIN alphabet (including I, O and Q).
func transliterate(c byte) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'A' && c <= 'H':
		return int(c-'A') + 1, true
	case c >= 'J' && c <= 'N':
		return int(c-'J') + 1, true
	case c == 'P':
		return 7, true
	case c == 'R':
		return 9, true
	case c >= 'S' && c <= 'Z':
		return int(c-'S') + 2, true
	}
	return 0, false
}

// Validator checks candidate strings against the VIN structure rules.
type Validator struct {
	mode CheckDigitMode
}

// Option configures a Validator.
type Option func(*Validator)

// WithCheckDigitMode sets when the check digit is enforced.
func WithCheckDigitMode(mode CheckDigitMode) Option {
	return func(v *Validator) {
		if mode != "" {
			v.mode = mode
		}
	}
}

// NewValidator builds a Validator. The default enforces the check digit for
// North American VINs only.
func NewValidator(opts ...Option) *Validator {
	v := &Validator{mode: CheckDigitNorthAmerica}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Mode returns the configured check digit mode.
func (v *Validator) Mode() CheckDigitMode { return v.mode }

var defaultValidator = NewValidator()

// Validate checks candidate with the default validator.
func Validate(candidate string) (VIN, error) {
	return defaultValidator.Validate(candidate)
}

// Validate returns the upper-cased VIN or a *ValidationError.
func (v *Validator) Validate(candidate string) (VIN, error) {
	if n := utf8.RuneCountInString(candidate); n != Length {
		return "", &ValidationError{
			Candidate: candidate,
			Reason:    ReasonLength,
			Detail:    fmt.Sprintf("must be %d characters, got %d", Length, n),
		}
	}

	buf := make([]byte, 0, Length)
	for i, r := range []rune(candidate) {
		if r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		if r >= utf8.RuneSelf {
			return "", charsetError(candidate, i, r)
		}
		c := byte(r)
		if _, ok := transliterate(c); !ok {
			return "", charsetError(candidate, i, r)
		}
		buf = append(buf, c)
	}

	out := VIN(buf)
	if v.enforceCheckDigit(out) {
		want := computeCheckDigit(buf)
		if got := buf[checkDigitPos]; got != want {
			return "", &ValidationError{
				Candidate: candidate,
				Reason:    ReasonCheckDigit,
				Position:  checkDigitPos + 1,
				Detail:    fmt.Sprintf("expected %q, got %q", want, got),
			}
		}
	}
	return out, nil
}

func charsetError(candidate string, i int, r rune) *ValidationError {
	return &ValidationError{
		Candidate: candidate,
		Reason:    ReasonCharset,
		Position:  i + 1,
		Detail:    fmt.Sprintf("character %q not allowed (0-9, A-Z except I, O, Q)", r),
	}
}

func (v *Validator) enforceCheckDigit(vin VIN) bool {
	switch v.mode {
	case CheckDigitAlways:
		return true
	case CheckDigitNever:
		return false
	default:
		return RegionOf(vin[0]) == RegionNorthAmerica
	}
}

// CheckDigit computes the expected position 9 character for s. s must be 17
// characters from the VIN alphabet; position 9 itself is ignored.
func CheckDigit(s string) (byte, error) {
	if len(s) != Length {
		return 0, &ValidationError{Candidate: s, Reason: ReasonLength, Detail: "cannot compute check digit"}
	}
	buf := []byte(strings.ToUpper(s))
	for i, c := range buf {
		if _, ok := transliterate(c); !ok {
			return 0, &ValidationError{Candidate: s, Reason: ReasonCharset, Position: i + 1, Detail: "cannot compute check digit"}
		}
	}
	return computeCheckDigit(buf), nil
}

func computeCheckDigit(buf []byte) byte {
	sum := 0
	for i, c := range buf {
		n, _ := transliterate(c)
		sum += n * weights[i]
	}
	r := sum % 11
	if r == 10 {
		return 'X'
	}
	return byte('0' + r)
}

// FixCheckDigit returns s with position 9 replaced by its computed check digit.
func FixCheckDigit(s string) (VIN, error) {
	d, err := CheckDigit(s)
	if err != nil {
		return "", err
	}
	buf := []byte(strings.ToUpper(s))
	buf[checkDigitPos] = d
	return VIN(buf), nil
}
