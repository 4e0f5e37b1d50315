package service

import "errors"

// Sentinel errors returned by Service.
var (
	ErrNotStarted    = errors.New("service not started")
	ErrBatchEmpty    = errors.New("batch contains no vins")
	ErrBatchTooLarge = errors.New("batch exceeds the maximum size")
)
