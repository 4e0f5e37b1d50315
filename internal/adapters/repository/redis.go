package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/vinlookup/internal/domain/model"
	"github.com/okian/vinlookup/pkg/logger"
	"github.com/okian/vinlookup/pkg/metrics"
)

// RedisStore keeps every record as a JSON value in one Redis hash, keyed
// by VIN. Each hash command is atomic on the server.
type RedisStore struct {
	client *redis.Client
	key    string
	log    logger.Logger
}

// NewRedisStore connects to the configured redis:// URL.
func NewRedisStore(ctx context.Context, opts ...Option) (*RedisStore, error) {
	o := buildOptions(opts)
	if o.redisURL == "" {
		return nil, fmt.Errorf("redis: %w", ErrMissingDSN)
	}
	ropts, err := redis.ParseURL(o.redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(ropts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedisStoreWithClient(client, o.redisKey, o.logger), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, key string, log logger.Logger) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key, log: log}
}

// Insert implements Store.
func (s *RedisStore) Insert(ctx context.Context, rec model.Record) error {
	defer observe(BackendRedis, "insert", time.Now())
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := s.client.HSet(ctx, s.key, rec.VIN, data).Err(); err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, vin string) (model.Record, error) {
	defer observe(BackendRedis, "get", time.Now())
	data, err := s.client.HGet(ctx, s.key, vin).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Record{}, ErrNotFound
	}
	if err != nil {
		return model.Record{}, fmt.Errorf("get record: %w", err)
	}
	var rec model.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.Record{}, fmt.Errorf("decode record %s: %w", vin, err)
	}
	return rec, nil
}

// Remove implements Store.
func (s *RedisStore) Remove(ctx context.Context, vin string) error {
	defer observe(BackendRedis, "remove", time.Now())
	n, err := s.client.HDel(ctx, s.key, vin).Result()
	if err != nil {
		return fmt.Errorf("remove record: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// List implements Store.
func (s *RedisStore) List(ctx context.Context) ([]model.Record, error) {
	defer observe(BackendRedis, "list", time.Now())
	all, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	out := make([]model.Record, 0, len(all))
	for vin, data := range all {
		var rec model.Record
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("decode record %s: %w", vin, err)
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VIN < out[j].VIN })
	metrics.UpdateStoredRecords(len(out))
	return out, nil
}

// Count implements Store.
func (s *RedisStore) Count(ctx context.Context) (int, error) {
	defer observe(BackendRedis, "count", time.Now())
	n, err := s.client.HLen(ctx, s.key).Result()
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return int(n), nil
}

// Ping implements Store.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client.
func (s *RedisStore) Close() error {
	if s.log != nil {
		s.log.Info(context.Background(), "closing redis store", logger.String("key", s.key))
	}
	return s.client.Close()
}
