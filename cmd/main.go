package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/vinlookup/internal/adapters/http/api"
	"github.com/okian/vinlookup/internal/adapters/http/swagger"
	"github.com/okian/vinlookup/internal/adapters/repository"
	app "github.com/okian/vinlookup/internal/app"
	"github.com/okian/vinlookup/internal/config"
	"github.com/okian/vinlookup/internal/domain/decoder"
	"github.com/okian/vinlookup/internal/domain/export"
	"github.com/okian/vinlookup/internal/domain/vin"
	"github.com/okian/vinlookup/pkg/logger"
	"github.com/okian/vinlookup/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := applyLogging(cfg); err != nil {
		return err
	}
	log := logger.Get()

	svc, err := buildService(cfg, log)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           buildHandler(ctx, svc, log),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// applyLogging applies the configured format and level. An invalid level
// falls back to info.
func applyLogging(cfg *config.Config) error {
	if err := logger.SetFormat(cfg.LogFormat); err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(context.Background(), "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return nil
}

// buildService wires the validator, decoder, store and exporter selected
// by cfg. cfg must have passed Validate.
func buildService(cfg *config.Config, log logger.Logger) (*app.Service, error) {
	mode, err := vin.ParseCheckDigitMode(cfg.Validation.CheckDigit)
	if err != nil {
		return nil, err
	}
	decoderMode, err := decoder.ParseMode(cfg.Decoder.Mode)
	if err != nil {
		return nil, err
	}
	dec, err := decoder.New(decoderMode,
		decoder.WithBaseURL(cfg.Decoder.VPICBaseURL),
		decoder.WithTimeout(cfg.DecoderTimeout()),
		decoder.WithWMIOverrides(cfg.Decoder.WMIOverrides),
		decoder.WithLogger(log.Named("decoder")),
	)
	if err != nil {
		return nil, err
	}
	backend, err := repository.ParseBackend(cfg.Store.Backend)
	if err != nil {
		return nil, err
	}
	format, err := export.ParseFormat(cfg.Export.DefaultFormat)
	if err != nil {
		return nil, err
	}

	return app.New(
		app.WithLogger(log),
		app.WithValidator(vin.NewValidator(vin.WithCheckDigitMode(mode))),
		app.WithDecoder(dec),
		app.WithStoreBackend(backend,
			repository.WithPostgresDSN(cfg.Store.PostgresDSN),
			repository.WithTable(cfg.Store.PostgresTable),
			repository.WithRedisURL(cfg.Store.RedisURL),
			repository.WithRedisKey(cfg.Store.RedisKey),
			repository.WithLogger(log.Named("store")),
		),
		app.WithExporter(export.New(
			export.WithDefaultFormat(format),
			export.WithAllowEmpty(cfg.Export.AllowEmpty),
		)),
		app.WithBatchLimits(cfg.Batch.MaxSize, cfg.Batch.Concurrency),
	), nil
}

// buildHandler registers the API and docs routes and wraps them with the
// request id and access log middleware.
func buildHandler(ctx context.Context, svc *app.Service, log logger.Logger) http.Handler {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc).Register(ctx, mux)
	return api.Handler(log, mux)
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater refreshes the stored record gauge.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics updates service-level metrics. GetStats refreshes
// the stored record gauge as a side effect.
func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()
	if n, ok := stats["storedRecords"].(int); ok {
		metrics.UpdateStoredRecords(n)
	}
}
