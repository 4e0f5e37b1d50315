package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// LoadConfig tunes RunLoad.
type LoadConfig struct {
	Workers int
	Refresh bool
	// Progress, when set, is called about once per ReportInterval.
	Progress       func(LoadStats)
	ReportInterval time.Duration
}

// LoadStats summarizes a load run.
type LoadStats struct {
	Submitted int64
	Decoded   int64
	Cached    int64
	Rejected  int64
	Failed    int64
	Duration  time.Duration
}

// PerSecond returns the submission rate.
func (s LoadStats) PerSecond() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.Submitted) / s.Duration.Seconds()
}

// RunLoad looks up every VIN with a pool of workers. Client errors (4xx)
// count as rejected; transport errors and 5xx count as failed.
func RunLoad(ctx context.Context, c *Client, vins []string, cfg LoadConfig) LoadStats {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	interval := cfg.ReportInterval
	if interval <= 0 {
		interval = time.Second
	}

	var (
		submitted, decoded, cached, rejected, failed atomic.Int64
		lastReport                                   atomic.Int64
	)
	snapshot := func() LoadStats {
		return LoadStats{
			Submitted: submitted.Load(),
			Decoded:   decoded.Load(),
			Cached:    cached.Load(),
			Rejected:  rejected.Load(),
			Failed:    failed.Load(),
		}
	}

	start := time.Now()
	ch := make(chan string, workers*2)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for v := range ch {
				res, err := c.Lookup(ctx, v, cfg.Refresh)
				submitted.Add(1)
				var apiErr *APIError
				switch {
				case err == nil && res.CachedResult:
					cached.Add(1)
				case err == nil:
					decoded.Add(1)
				case errors.As(err, &apiErr) && apiErr.Status < 500:
					rejected.Add(1)
				default:
					failed.Add(1)
				}

				if cfg.Progress != nil {
					now := time.Now().UnixNano()
					last := lastReport.Load()
					if now-last >= int64(interval) && lastReport.CompareAndSwap(last, now) {
						cfg.Progress(snapshot())
					}
				}
			}
		}()
	}

	go func() {
		defer close(ch)
		for _, v := range vins {
			select {
			case <-ctx.Done():
				return
			case ch <- v:
			}
		}
	}()

	wg.Wait()
	stats := snapshot()
	stats.Duration = time.Since(start)
	return stats
}
