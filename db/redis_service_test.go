package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thanwia-dashboard/cache"
	"thanwia-dashboard/models"
)

// newTestService uses an in-process miniredis, or REDIS_ADDR (database 15, flushed) when set
func newTestService(t *testing.T) *RedisService {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = miniredis.RunT(t).Addr()
	}

	ctx := context.Background()
	client, err := InitializeRedisClient(ctx, addr, "", 15)
	require.NoError(t, err)
	require.NoError(t, client.FlushDB(ctx).Err())
	t.Cleanup(func() {
		client.FlushDB(ctx)
		client.Close()
	})
	return NewRedisService(client, time.Minute, nil)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "dataset:abc:info", getDatasetInfoKey("abc"))
	assert.Equal(t, "dataset:abc:records", getDatasetRowsKey("abc"))
}

func TestRedisService_RoundTrip(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	name := "سارة"
	ds := &models.Dataset{
		ID:       "hash-1",
		FileName: "results.xlsx",
		Sheet:    "Sheet1",
		Columns:  models.ColumnMap{SeatingNumber: "seating_no", ArabicName: "arabic_name", TotalDegree: "total_degree"},
		Records: []models.StudentRecord{
			{SeatingNumber: "1", ArabicName: &name, TotalDegree: 410, Row: 2},
			{SeatingNumber: "2", TotalDegree: 99.5, Row: 3},
		},
		SkippedRows: []int{4},
		LoadedAt:    time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.Put(ctx, ds))

	got, err := s.Get(ctx, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, ds, got)

	ids, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"hash-1"}, ids)

	require.NoError(t, s.Delete(ctx, "hash-1"))
	_, err = s.Get(ctx, "hash-1")
	assert.ErrorIs(t, err, cache.ErrNotFound)
}

func TestRedisService_Miss(t *testing.T) {
	s := newTestService(t)
	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, cache.ErrNotFound)
}

func TestRedisService_ListPrunesExpired(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, &models.Dataset{ID: "live", LoadedAt: time.Now().UTC()}))
	require.NoError(t, s.Put(ctx, &models.Dataset{ID: "gone", LoadedAt: time.Now().UTC()}))

	ttl, err := s.Client.TTL(ctx, getDatasetRowsKey("live")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	// the records key expiring leaves a stale index entry behind
	require.NoError(t, s.Client.Del(ctx, getDatasetRowsKey("gone")).Err())

	ids, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"live"}, ids)

	members, err := s.Client.SMembers(ctx, datasetsKey).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"live"}, members)

	_, err = s.Get(ctx, "gone")
	assert.ErrorIs(t, err, cache.ErrNotFound, "info without records is a miss")
}

func TestRedisService_Tiered(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	name := "أحمد علي"
	ds := &models.Dataset{
		ID:       "shared",
		FileName: "results.xlsx",
		Records:  []models.StudentRecord{{SeatingNumber: "101", ArabicName: &name, TotalDegree: 350, Row: 2}},
		LoadedAt: time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC),
	}

	// one instance parses and publishes
	first := cache.Tiered{Near: cache.NewMemoryStore(4), Far: s}
	require.NoError(t, first.Put(ctx, ds))

	// another instance starts cold and back-fills from Redis
	near := cache.NewMemoryStore(4)
	second := cache.Tiered{Near: near, Far: s}
	got, err := second.Get(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, ds.Records, got.Records)
	assert.Equal(t, 1, near.Len())

	require.NoError(t, second.Delete(ctx, "shared"))
	_, err = s.Get(ctx, "shared")
	assert.ErrorIs(t, err, cache.ErrNotFound)
}

func TestRedisService_RejectsEmptyID(t *testing.T) {
	s := NewRedisService(nil, time.Minute, nil)
	assert.Error(t, s.Put(context.Background(), &models.Dataset{}))
}
