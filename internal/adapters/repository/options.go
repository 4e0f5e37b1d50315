package repository

import (
	"time"

	"github.com/okian/vinlookup/pkg/logger"
)

// Defaults shared by the backends.
const (
	DefaultTable          = "vin_records"
	DefaultRedisKey       = "vinlookup:records"
	defaultMetricsRefresh = 5 * time.Second
)

type options struct {
	metricsInterval time.Duration
	dsn             string
	table           string
	redisURL        string
	redisKey        string
	logger          logger.Logger
}

// Option configures a Store built by Open or a backend constructor.
type Option func(*options)

// WithMetricsUpdateInterval sets how often the memory store refreshes the
// stored_records gauge.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(o *options) {
		if interval > 0 {
			o.metricsInterval = interval
		}
	}
}

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *options) { o.dsn = dsn }
}

// WithTable sets the PostgreSQL table name.
func WithTable(name string) Option {
	return func(o *options) {
		if name != "" {
			o.table = name
		}
	}
}

// WithRedisURL sets the redis:// URL.
func WithRedisURL(u string) Option {
	return func(o *options) { o.redisURL = u }
}

// WithRedisKey sets the hash key holding the records.
func WithRedisKey(key string) Option {
	return func(o *options) {
		if key != "" {
			o.redisKey = key
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(opts []Option) *options {
	o := &options{
		metricsInterval: defaultMetricsRefresh,
		table:           DefaultTable,
		redisKey:        DefaultRedisKey,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
