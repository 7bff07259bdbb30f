package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the fingerprinting engine.
type Metrics struct {
	// Ingest pipeline metrics
	IngestDuration      prometheus.HistogramVec
	IngestsTotal        prometheus.CounterVec
	FingerprintsEmitted prometheus.CounterVec

	// Query pipeline metrics
	QueryDuration          prometheus.HistogramVec
	QueriesTotal           prometheus.CounterVec
	CandidatesScannedTotal prometheus.HistogramVec
	HashTableHitsTotal     prometheus.CounterVec

	// Model store metrics
	StoreQueryDuration prometheus.HistogramVec
	StoreQueriesTotal  prometheus.CounterVec
	StoreConnsOpen     prometheus.GaugeVec

	// Hash-bucket cache metrics
	CacheHitsTotal         prometheus.CounterVec
	CacheMissesTotal       prometheus.CounterVec
	CacheOperationDuration prometheus.HistogramVec

	// Error metrics
	ErrorsTotal prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics.
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			IngestDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "ingest_duration_seconds",
					Help:    "Time to fingerprint one audio source, end to end",
					Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
				},
				[]string{"status"},
			),
			IngestsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "ingests_total",
					Help: "Total number of ingest operations",
				},
				[]string{"status"},
			),
			FingerprintsEmitted: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "fingerprints_emitted_total",
					Help: "Total number of sub-fingerprints produced by the ingest pipeline",
				},
				[]string{"track_id"},
			),

			QueryDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "query_duration_seconds",
					Help:    "Time to resolve one recognition query, end to end",
					Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
				},
				[]string{"status"},
			),
			QueriesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "queries_total",
					Help: "Total number of recognition queries by outcome",
				},
				[]string{"outcome"},
			),
			CandidatesScannedTotal: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "query_candidates_scanned",
					Help:    "Number of candidate sub-fingerprints gathered per query, summed over its query sub-fingerprints",
					Buckets: prometheus.ExponentialBuckets(1, 4, 10),
				},
				[]string{},
			),
			HashTableHitsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "hash_table_hits_total",
					Help: "Total number of LSH hash-table bucket hits during candidate gathering",
				},
				[]string{"table_index"},
			),

			StoreQueryDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "store_query_duration_seconds",
					Help:    "Model store query latency in seconds",
					Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"operation"},
			),
			StoreQueriesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "store_queries_total",
					Help: "Total number of model store operations",
				},
				[]string{"operation", "status"},
			),
			StoreConnsOpen: *promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "store_connections_open",
					Help: "Number of currently open model store connections",
				},
				[]string{"store"},
			),

			CacheHitsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "hash_bucket_cache_hits_total",
					Help: "Total number of hash-bucket cache hits",
				},
				[]string{},
			),
			CacheMissesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "hash_bucket_cache_misses_total",
					Help: "Total number of hash-bucket cache misses",
				},
				[]string{},
			),
			CacheOperationDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "hash_bucket_cache_operation_duration_seconds",
					Help:    "Hash-bucket cache operation latency in seconds",
					Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
				},
				[]string{"operation"},
			),

			ErrorsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "errors_total",
					Help: "Total number of errors by kind and operation",
				},
				[]string{"kind", "operation"},
			),
		}
	})
	return instance
}

// Get returns the global metrics instance, initializing it on first use.
func Get() *Metrics {
	if instance == nil {
		return Initialize()
	}
	return instance
}
