package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"thanwia-dashboard/cache"
	"thanwia-dashboard/metrics"
	"thanwia-dashboard/models"
)

const (
	datasetsKey       = "datasets"  // Set: IDs of all cached datasets
	datasetInfoPrefix = "dataset:"  // Hash prefix: dataset:{id}:info -> metadata
	datasetRowsPrefix = "dataset:"  // String prefix: dataset:{id}:records -> JSON records
)

// RedisService stores parsed datasets in Redis so several instances share one parse
type RedisService struct {
	Client *redis.Client
	TTL    time.Duration
	logger *slog.Logger
}

// NewRedisService creates a new RedisService instance
func NewRedisService(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisService{
		Client: client,
		TTL:    ttl,
		logger: logger.With(slog.String("component", "redis_store")),
	}
}

// Helper to generate dataset info key
func getDatasetInfoKey(id string) string {
	return datasetInfoPrefix + id + ":info"
}

// Helper to generate dataset records key
func getDatasetRowsKey(id string) string {
	return datasetRowsPrefix + id + ":records"
}

// Put stores the dataset metadata and records in one pipeline
func (s *RedisService) Put(ctx context.Context, ds *models.Dataset) error {
	if ds == nil || ds.ID == "" {
		return errors.New("dataset ID cannot be empty")
	}

	records, err := json.Marshal(ds.Records)
	if err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}
	columns, err := json.Marshal(ds.Columns)
	if err != nil {
		return fmt.Errorf("failed to encode columns: %w", err)
	}
	skipped, err := json.Marshal(ds.SkippedRows)
	if err != nil {
		return fmt.Errorf("failed to encode skipped rows: %w", err)
	}

	infoKey := getDatasetInfoKey(ds.ID)
	pipe := s.Client.TxPipeline()
	pipe.SAdd(ctx, datasetsKey, ds.ID)
	pipe.HSet(ctx, infoKey, map[string]interface{}{
		"id":       ds.ID,
		"fileName": ds.FileName,
		"sheet":    ds.Sheet,
		"columns":  string(columns),
		"skipped":  string(skipped),
		"loadedAt": ds.LoadedAt.Format(time.RFC3339Nano),
	})
	pipe.Set(ctx, getDatasetRowsKey(ds.ID), records, s.TTL)
	if s.TTL > 0 {
		pipe.Expire(ctx, infoKey, s.TTL)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.ErrorContext(ctx, "failed to cache dataset", slog.String("dataset_id", ds.ID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to add dataset to Redis: %w", err)
	}
	s.logger.InfoContext(ctx, "cached dataset", slog.String("dataset_id", ds.ID), slog.Int("records", len(ds.Records)))
	return nil
}

// Get loads a dataset; a missing or expired entry yields cache.ErrNotFound
func (s *RedisService) Get(ctx context.Context, id string) (*models.Dataset, error) {
	data, err := s.Client.HGetAll(ctx, getDatasetInfoKey(id)).Result()
	if err != nil {
		metrics.CacheLookups.WithLabelValues("redis", "error").Inc()
		return nil, fmt.Errorf("failed to get dataset info from Redis: %w", err)
	}
	if len(data) == 0 {
		metrics.CacheLookups.WithLabelValues("redis", "miss").Inc()
		return nil, cache.ErrNotFound
	}

	raw, err := s.Client.Get(ctx, getDatasetRowsKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.CacheLookups.WithLabelValues("redis", "miss").Inc()
			return nil, cache.ErrNotFound
		}
		metrics.CacheLookups.WithLabelValues("redis", "error").Inc()
		return nil, fmt.Errorf("failed to get dataset records from Redis: %w", err)
	}

	ds := &models.Dataset{
		ID:       data["id"],
		FileName: data["fileName"],
		Sheet:    data["sheet"],
	}
	if err := json.Unmarshal(raw, &ds.Records); err != nil {
		return nil, fmt.Errorf("failed to decode records for %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(data["columns"]), &ds.Columns); err != nil {
		return nil, fmt.Errorf("failed to decode columns for %s: %w", id, err)
	}
	if v := data["skipped"]; v != "" && v != "null" {
		if err := json.Unmarshal([]byte(v), &ds.SkippedRows); err != nil {
			return nil, fmt.Errorf("failed to decode skipped rows for %s: %w", id, err)
		}
	}
	if ds.LoadedAt, err = time.Parse(time.RFC3339Nano, data["loadedAt"]); err != nil {
		return nil, fmt.Errorf("failed to decode load time for %s: %w", id, err)
	}

	metrics.CacheLookups.WithLabelValues("redis", "hit").Inc()
	return ds, nil
}

// Delete removes a dataset and its index entry
func (s *RedisService) Delete(ctx context.Context, id string) error {
	pipe := s.Client.TxPipeline()
	pipe.SRem(ctx, datasetsKey, id)
	pipe.Del(ctx, getDatasetInfoKey(id), getDatasetRowsKey(id))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete dataset %s: %w", id, err)
	}
	return nil
}

// List returns the IDs of cached datasets, dropping index entries whose data expired
func (s *RedisService) List(ctx context.Context) ([]string, error) {
	ids, err := s.Client.SMembers(ctx, datasetsKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to get dataset IDs from Redis: %w", err)
	}

	live := make([]string, 0, len(ids))
	for _, id := range ids {
		n, err := s.Client.Exists(ctx, getDatasetRowsKey(id)).Result()
		if err != nil {
			s.logger.WarnContext(ctx, "failed to check dataset", slog.String("dataset_id", id), slog.String("error", err.Error()))
			continue
		}
		if n == 0 {
			s.Client.SRem(ctx, datasetsKey, id)
			continue
		}
		live = append(live, id)
	}
	return live, nil
}

var _ cache.Store = (*RedisService)(nil)

// --- Utility ---

// InitializeRedisClient creates and tests a Redis client connection
func InitializeRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Ping Redis to check connection
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("could not connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}
