package repository

import "errors"

// Sentinel kinds for record store errors.
var (
	ErrNotFound       = errors.New("record not found")
	ErrInvalidBackend = errors.New("invalid store backend")
	ErrMissingDSN     = errors.New("store connection string is required")
	ErrClosed         = errors.New("store is closed")
)
