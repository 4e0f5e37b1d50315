// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/vinlookup/internal/adapters/repository"
	"github.com/okian/vinlookup/internal/domain/decoder"
	"github.com/okian/vinlookup/internal/domain/export"
	"github.com/okian/vinlookup/internal/domain/model"
	"github.com/okian/vinlookup/internal/domain/vin"
	"github.com/okian/vinlookup/pkg/logger"
	"github.com/okian/vinlookup/pkg/metrics"
)

// LookupResult is a decoded record and whether it came from the store.
type LookupResult struct {
	Record model.Record
	Cached bool
}

// BatchItem is the outcome of one VIN of a batch lookup.
type BatchItem struct {
	Input  string
	Result LookupResult
	Err    error
}

// Service validates, decodes, stores, removes and exports VIN records.
type Service struct {
	mu sync.RWMutex

	// Core components
	validator *vin.Validator
	decoder   decoder.Decoder
	store     repository.Store
	exporter  *export.Exporter

	// Store construction, used when no store was injected
	backend   repository.Backend
	storeOpts []repository.Option
	ownsStore bool

	// Configuration
	batchMaxSize     int
	batchConcurrency int
	clock            func() time.Time

	// State
	started   bool
	startedAt time.Time

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithValidator sets the VIN validator.
func WithValidator(v *vin.Validator) Option {
	return func(s *Service) {
		if v != nil {
			s.validator = v
		}
	}
}

// WithDecoder sets the decoder.
func WithDecoder(d decoder.Decoder) Option {
	return func(s *Service) {
		if d != nil {
			s.decoder = d
		}
	}
}

// WithStore injects a ready store. The service does not close injected stores.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithStoreBackend selects the store opened on Start.
func WithStoreBackend(b repository.Backend, opts ...repository.Option) Option {
	return func(s *Service) {
		if b != "" {
			s.backend = b
			s.storeOpts = opts
		}
	}
}

// WithExporter sets the exporter.
func WithExporter(e *export.Exporter) Option {
	return func(s *Service) {
		if e != nil {
			s.exporter = e
		}
	}
}

// WithBatchLimits bounds batch lookups: at most maxSize VINs per batch and
// concurrency lookups in flight.
func WithBatchLimits(maxSize, concurrency int) Option {
	return func(s *Service) {
		if maxSize > 0 {
			s.batchMaxSize = maxSize
		}
		if concurrency > 0 {
			s.batchConcurrency = concurrency
		}
	}
}

// WithClock sets the time source used to stamp decoded records.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.clock = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration: north american
// check digit policy, static decoder, memory store, CSV exports.
func New(opts ...Option) *Service {
	s := &Service{
		validator:        vin.NewValidator(),
		decoder:          decoder.NewStatic(),
		exporter:         export.New(),
		backend:          repository.BackendMemory,
		batchMaxSize:     100,
		batchConcurrency: 8,
		clock:            time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start opens the record store unless one was injected.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting vin lookup service...")

	if s.store == nil {
		st, err := repository.Open(ctx, s.backend, s.storeOpts...)
		if err != nil {
			return fmt.Errorf("open %s store: %w", s.backend, err)
		}
		s.store = st
		s.ownsStore = true
	}

	s.started = true
	s.startedAt = s.clock()
	s.logger.Info(ctx, "vin lookup service started",
		logger.String("decoder", s.decoder.Name()),
		logger.String("check_digit", string(s.validator.Mode())),
		logger.String("store", string(s.backend)),
		logger.Int("batchMaxSize", s.batchMaxSize),
		logger.Int("batchConcurrency", s.batchConcurrency),
	)

	return nil
}

// Stop closes the store opened by Start.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping vin lookup service...")

	if s.ownsStore && s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(context.Background(), "closing store failed", logger.Error(err))
		}
		s.store = nil
		s.ownsStore = false
	}

	s.started = false
	s.logger.Info(context.Background(), "vin lookup service stopped")
}

func (s *Service) activeStore() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started || s.store == nil {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// normalize trims surrounding whitespace before validation.
func normalize(raw string) string {
	return strings.TrimSpace(raw)
}

// Validate checks raw and returns its positional parts. It never decodes.
func (s *Service) Validate(raw string) (vin.Parts, error) {
	v, err := s.validator.Validate(normalize(raw))
	if err != nil {
		return vin.Parts{}, err
	}
	return vin.Parse(v), nil
}

// Decode validates and decodes raw without touching the store.
func (s *Service) Decode(ctx context.Context, raw string) (model.Record, error) {
	v, err := s.validator.Validate(normalize(raw))
	if err != nil {
		return model.Record{}, err
	}
	return s.decode(ctx, v)
}

func (s *Service) decode(ctx context.Context, v vin.VIN) (model.Record, error) {
	name := s.decoder.Name()
	start := time.Now()
	rec, err := s.decoder.Decode(ctx, v)
	metrics.RecordDecodeLatency(name, float64(time.Since(start).Microseconds())/1000)
	if err != nil {
		metrics.RecordDecodeError(name, decoder.KindOf(err))
		return model.Record{}, err
	}
	return rec.WithDecodedAt(s.clock()), nil
}

// Lookup validates raw and returns its record. A stored record is returned
// as cached unless refresh is set; otherwise the VIN is decoded and the
// new record replaces any stored one.
func (s *Service) Lookup(ctx context.Context, raw string, refresh bool) (LookupResult, error) {
	st, err := s.activeStore()
	if err != nil {
		return LookupResult{}, err
	}
	v, err := s.validator.Validate(normalize(raw))
	if err != nil {
		metrics.RecordLookup("validator", metrics.OutcomeError)
		return LookupResult{}, err
	}

	if !refresh {
		rec, err := st.Get(ctx, string(v))
		switch {
		case err == nil:
			metrics.RecordLookup(rec.Source, metrics.OutcomeHit)
			return LookupResult{Record: rec, Cached: true}, nil
		case !errors.Is(err, repository.ErrNotFound):
			return LookupResult{}, fmt.Errorf("read stored record: %w", err)
		}
	}

	rec, err := s.decode(ctx, v)
	if err != nil {
		metrics.RecordLookup(s.decoder.Name(), metrics.OutcomeError)
		s.logger.Debug(ctx, "decode failed",
			logger.String("vin", string(v)),
			logger.String("kind", decoder.KindOf(err)),
			logger.Error(err),
		)
		return LookupResult{}, err
	}
	if err := st.Insert(ctx, rec); err != nil {
		return LookupResult{}, fmt.Errorf("store record: %w", err)
	}
	metrics.RecordLookup(rec.Source, metrics.OutcomeDecoded)
	return LookupResult{Record: rec}, nil
}

// LookupBatch looks up every input concurrently, bounded by the configured
// concurrency. Items keep input order and carry their own errors.
func (s *Service) LookupBatch(ctx context.Context, raws []string, refresh bool) ([]BatchItem, error) {
	if len(raws) == 0 {
		return nil, ErrBatchEmpty
	}
	s.mu.RLock()
	maxSize, concurrency := s.batchMaxSize, s.batchConcurrency
	s.mu.RUnlock()
	if len(raws) > maxSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(raws), maxSize)
	}
	if _, err := s.activeStore(); err != nil {
		return nil, err
	}
	metrics.RecordBatchSize(len(raws))

	items := make([]BatchItem, len(raws))
	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, raw := range raws {
		g.Go(func() error {
			res, err := s.Lookup(ctx, raw, refresh)
			items[i] = BatchItem{Input: raw, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return items, nil
}

// Get returns the stored record for raw.
func (s *Service) Get(ctx context.Context, raw string) (model.Record, error) {
	st, err := s.activeStore()
	if err != nil {
		return model.Record{}, err
	}
	v, err := s.validator.Validate(normalize(raw))
	if err != nil {
		return model.Record{}, err
	}
	return st.Get(ctx, string(v))
}

// Remove deletes the stored record for raw.
func (s *Service) Remove(ctx context.Context, raw string) (vin.VIN, error) {
	st, err := s.activeStore()
	if err != nil {
		return "", err
	}
	v, err := s.validator.Validate(normalize(raw))
	if err != nil {
		metrics.RecordRemove(metrics.OutcomeError)
		return "", err
	}
	if err := st.Remove(ctx, string(v)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.RecordRemove(metrics.OutcomeMissing)
		} else {
			metrics.RecordRemove(metrics.OutcomeError)
		}
		return v, err
	}
	metrics.RecordRemove(metrics.OutcomeOK)
	return v, nil
}

// List returns a snapshot of every stored record ordered by VIN.
func (s *Service) List(ctx context.Context) ([]model.Record, error) {
	st, err := s.activeStore()
	if err != nil {
		return nil, err
	}
	return st.List(ctx)
}

// Export renders the current snapshot. An empty format selects the
// exporter default.
func (s *Service) Export(ctx context.Context, format export.Format) (export.Artifact, error) {
	if format == "" {
		format = s.exporter.DefaultFormat()
	}
	records, err := s.List(ctx)
	if err != nil {
		metrics.RecordExport(string(format), metrics.OutcomeError, 0)
		return export.Artifact{}, err
	}
	a, err := s.exporter.Export(records, format)
	if err != nil {
		metrics.RecordExport(string(format), metrics.OutcomeError, 0)
		return export.Artifact{}, err
	}
	metrics.RecordExport(string(a.Format), metrics.OutcomeOK, a.Rows)
	return a, nil
}

// Ping checks the store.
func (s *Service) Ping(ctx context.Context) error {
	st, err := s.activeStore()
	if err != nil {
		return err
	}
	return st.Ping(ctx)
}

// statsCountTimeout bounds the store count taken by GetStats.
const statsCountTimeout = 2 * time.Second

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	stats := map[string]interface{}{
		"started":          s.started,
		"decoder":          s.decoder.Name(),
		"checkDigitMode":   string(s.validator.Mode()),
		"storeBackend":     string(s.backend),
		"exportFormat":     string(s.exporter.DefaultFormat()),
		"batchMaxSize":     s.batchMaxSize,
		"batchConcurrency": s.batchConcurrency,
	}
	st, started, startedAt := s.store, s.started, s.startedAt
	s.mu.RUnlock()

	if started && st != nil {
		stats["uptimeSeconds"] = int64(s.clock().Sub(startedAt).Seconds())
		ctx, cancel := context.WithTimeout(context.Background(), statsCountTimeout)
		defer cancel()
		if n, err := st.Count(ctx); err == nil {
			stats["storedRecords"] = n
			metrics.UpdateStoredRecords(n)
		}
	}

	return stats
}
