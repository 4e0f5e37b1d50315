// Package repository holds decoded VIN records. Three backends share the
// Store interface: an in-process ordered tree, PostgreSQL and Redis.
package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okian/vinlookup/internal/domain/model"
	"github.com/okian/vinlookup/pkg/metrics"
)

// Store maps a VIN to its decoded record. Every operation is individually
// atomic; nothing is promised across operations.
type Store interface {
	// Insert stores rec, replacing any record with the same VIN.
	Insert(ctx context.Context, rec model.Record) error
	// Get returns the record for vin or ErrNotFound.
	Get(ctx context.Context, vin string) (model.Record, error)
	// Remove deletes the record for vin or returns ErrNotFound.
	Remove(ctx context.Context, vin string) error
	// List returns a snapshot of every record ordered by VIN.
	List(ctx context.Context) ([]model.Record, error)
	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}

// Backend names a Store implementation.
type Backend string

// Supported backends.
const (
	BackendMemory   Backend = "memory"
	BackendPostgres Backend = "postgres"
	BackendRedis    Backend = "redis"
)

// ParseBackend converts a config string into a Backend.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case BackendMemory, BackendPostgres, BackendRedis:
		return b, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidBackend, s)
	}
}

// Open builds the Store for backend.
func Open(ctx context.Context, backend Backend, opts ...Option) (Store, error) {
	switch backend {
	case BackendMemory:
		return NewMemoryStore(ctx, opts...), nil
	case BackendPostgres:
		return NewPostgresStore(ctx, opts...)
	case BackendRedis:
		return NewRedisStore(ctx, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidBackend, backend)
	}
}

// observe records the latency of a store operation started at start.
func observe(backend Backend, op string, start time.Time) {
	metrics.RecordStoreOperation(string(backend), op, float64(time.Since(start).Microseconds())/1000)
}
