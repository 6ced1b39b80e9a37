// Package cache keeps parsed datasets keyed by file identity.
package cache

import (
	"context"
	"errors"

	lru "github.com/hashicorp/golang-lru/v2"
	"thanwia-dashboard/metrics"
	"thanwia-dashboard/models"
)

// ErrNotFound is returned on a cache miss
var ErrNotFound = errors.New("dataset not found")

// Store persists parsed datasets by ID
type Store interface {
	Get(ctx context.Context, id string) (*models.Dataset, error)
	Put(ctx context.Context, ds *models.Dataset) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore is a bounded LRU store
type MemoryStore struct {
	lru *lru.Cache[string, *models.Dataset]
}

// NewMemoryStore creates a store holding at most capacity datasets (minimum 1)
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity < 1 {
		capacity = 1
	}
	// lru.New only fails for a non-positive size
	c, _ := lru.New[string, *models.Dataset](capacity)
	return &MemoryStore{lru: c}
}

// Get returns the dataset and marks it recently used
func (s *MemoryStore) Get(_ context.Context, id string) (*models.Dataset, error) {
	ds, ok := s.lru.Get(id)
	if !ok {
		metrics.CacheLookups.WithLabelValues("memory", "miss").Inc()
		return nil, ErrNotFound
	}
	metrics.CacheLookups.WithLabelValues("memory", "hit").Inc()
	return ds, nil
}

// Put inserts or refreshes a dataset, evicting the least recently used one when full
func (s *MemoryStore) Put(_ context.Context, ds *models.Dataset) error {
	if ds == nil || ds.ID == "" {
		return errors.New("dataset must have an ID")
	}
	s.lru.Add(ds.ID, ds)
	return nil
}

// Delete removes a dataset; deleting a missing ID is not an error
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.lru.Remove(id)
	return nil
}

// Len returns the number of cached datasets
func (s *MemoryStore) Len() int {
	return s.lru.Len()
}

// Tiered reads through a fast store to a slower shared one
type Tiered struct {
	Near Store
	Far  Store
}

// Get checks Near first and back-fills it from Far
func (t Tiered) Get(ctx context.Context, id string) (*models.Dataset, error) {
	ds, err := t.Near.Get(ctx, id)
	if err == nil {
		return ds, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	ds, err = t.Far.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	_ = t.Near.Put(ctx, ds)
	return ds, nil
}

// Put writes to both tiers
func (t Tiered) Put(ctx context.Context, ds *models.Dataset) error {
	if err := t.Near.Put(ctx, ds); err != nil {
		return err
	}
	return t.Far.Put(ctx, ds)
}

// Delete removes from both tiers
func (t Tiered) Delete(ctx context.Context, id string) error {
	if err := t.Near.Delete(ctx, id); err != nil {
		return err
	}
	return t.Far.Delete(ctx, id)
}
