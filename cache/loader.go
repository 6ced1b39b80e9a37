package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
	"thanwia-dashboard/loader"
	"thanwia-dashboard/metrics"
	"thanwia-dashboard/models"
)

// Parser turns workbook bytes into a dataset
type Parser interface {
	LoadBytes(name string, data []byte) (*models.Dataset, error)
}

// Loader parses each distinct file once and serves repeats from the store
type Loader struct {
	parser Parser
	store  Store
	group  singleflight.Group
	logger *slog.Logger
}

// NewLoader wires a parser to a store
func NewLoader(parser Parser, store Store, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		parser: parser,
		store:  store,
		logger: logger.With(slog.String("component", "dataset_loader")),
	}
}

// Load returns the dataset for data, parsing it only when its hash is not cached.
// The second return value reports a cache hit.
func (l *Loader) Load(ctx context.Context, name string, data []byte) (*models.Dataset, bool, error) {
	if len(data) == 0 {
		metrics.Uploads.WithLabelValues("missing_input").Inc()
		return nil, false, loader.ErrMissingInput
	}
	id := loader.Identity(data)

	ds, err := l.store.Get(ctx, id)
	if err == nil {
		l.logger.DebugContext(ctx, "dataset cache hit", slog.String("dataset_id", id))
		metrics.Uploads.WithLabelValues("ok").Inc()
		return ds, true, nil
	}
	if !errors.Is(err, ErrNotFound) {
		// A broken store should not block parsing
		l.logger.WarnContext(ctx, "dataset cache lookup failed", slog.String("dataset_id", id), slog.String("error", err.Error()))
	}

	v, err, _ := l.group.Do(id, func() (interface{}, error) {
		start := time.Now()
		parsed, err := l.parser.LoadBytes(name, data)
		metrics.LoadDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			return nil, err
		}
		metrics.RecordsLoaded.Set(float64(len(parsed.Records)))
		if err := l.store.Put(ctx, parsed); err != nil {
			l.logger.WarnContext(ctx, "failed to cache dataset", slog.String("dataset_id", id), slog.String("error", err.Error()))
		}
		return parsed, nil
	})
	if err != nil {
		metrics.Uploads.WithLabelValues(outcome(err)).Inc()
		return nil, false, fmt.Errorf("load %s: %w", name, err)
	}

	metrics.Uploads.WithLabelValues("ok").Inc()
	return v.(*models.Dataset), false, nil
}

// Get fetches a previously loaded dataset
func (l *Loader) Get(ctx context.Context, id string) (*models.Dataset, error) {
	return l.store.Get(ctx, id)
}

func outcome(err error) string {
	switch {
	case errors.Is(err, loader.ErrMissingInput):
		return "missing_input"
	case errors.Is(err, loader.ErrSchema):
		return "schema_error"
	default:
		return "error"
	}
}
