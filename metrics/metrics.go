// Package metrics exposes Prometheus collectors for dataset loading and queries.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "thanwia"

var (
	// Uploads counts load attempts by outcome (ok, missing_input, schema_error, error)
	Uploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dataset_loads_total",
		Help:      "Dataset load attempts by outcome.",
	}, []string{"outcome"})

	// CacheLookups counts dataset cache lookups by store and result
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dataset_cache_lookups_total",
		Help:      "Dataset cache lookups by store and result (hit, miss, error).",
	}, []string{"store", "result"})

	// LoadDuration observes spreadsheet parse time
	LoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "dataset_parse_seconds",
		Help:      "Time spent parsing uploaded spreadsheets.",
		Buckets:   prometheus.DefBuckets,
	})

	// Queries counts dashboard queries by kind
	Queries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "queries_total",
		Help:      "Dashboard queries by kind.",
	}, []string{"kind"})

	// RecordsLoaded tracks records in the most recently parsed dataset
	RecordsLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "dataset_last_records",
		Help:      "Record count of the most recently parsed dataset.",
	})
)
