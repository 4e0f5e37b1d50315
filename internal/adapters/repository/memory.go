package repository

import (
	"context"
	"sync"
	"time"

	"github.com/tidwall/btree"

	"github.com/okian/vinlookup/internal/domain/model"
	"github.com/okian/vinlookup/pkg/metrics"
)

func byVIN(a, b interface{}) bool {
	return a.(model.Record).VIN < b.(model.Record).VIN
}

// MemoryStore keeps records in a B-tree ordered by VIN. The tree is not
// safe for concurrent use on its own; mu guards it.
type MemoryStore struct {
	mu   sync.RWMutex
	tree *btree.BTree

	metricsInterval time.Duration
	wg              sync.WaitGroup
	stopChan        chan struct{}
	closeOnce       sync.Once
}

// NewMemoryStore constructs an empty store and starts the background
// gauge updater, which stops on Close or when ctx is done.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	o := buildOptions(opts)
	s := &MemoryStore{
		tree:            btree.NewNonConcurrent(byVIN),
		metricsInterval: o.metricsInterval,
		stopChan:        make(chan struct{}),
	}
	metrics.UpdateStoredRecords(0)
	s.startMetricsUpdater(ctx)
	return s
}

func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.mu.RLock()
				n := s.tree.Len()
				s.mu.RUnlock()
				metrics.UpdateStoredRecords(n)
			}
		}
	}()
}

// Insert implements Store.
func (s *MemoryStore) Insert(ctx context.Context, rec model.Record) error {
	defer observe(BackendMemory, "insert", time.Now())
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.tree.Set(rec)
	s.mu.Unlock()
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, vin string) (model.Record, error) {
	defer observe(BackendMemory, "get", time.Now())
	if err := ctx.Err(); err != nil {
		return model.Record{}, err
	}
	s.mu.RLock()
	item := s.tree.Get(model.Record{VIN: vin})
	s.mu.RUnlock()
	if item == nil {
		return model.Record{}, ErrNotFound
	}
	return item.(model.Record), nil
}

// Remove implements Store.
func (s *MemoryStore) Remove(ctx context.Context, vin string) error {
	defer observe(BackendMemory, "remove", time.Now())
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	prev := s.tree.Delete(model.Record{VIN: vin})
	s.mu.Unlock()
	if prev == nil {
		return ErrNotFound
	}
	return nil
}

// List implements Store.
func (s *MemoryStore) List(ctx context.Context) ([]model.Record, error) {
	defer observe(BackendMemory, "list", time.Now())
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Record, 0, s.tree.Len())
	s.tree.Ascend(nil, func(item interface{}) bool {
		out = append(out, item.(model.Record))
		return true
	})
	return out, nil
}

// Count implements Store.
func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Len(), nil
}

// Ping implements Store.
func (s *MemoryStore) Ping(context.Context) error {
	select {
	case <-s.stopChan:
		return ErrClosed
	default:
		return nil
	}
}

// Close stops the gauge updater.
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}
