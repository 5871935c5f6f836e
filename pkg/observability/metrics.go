package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Graph metrics
	TreePersons  prometheus.Gauge
	TreeFamilies prometheus.Gauge

	// Sync metrics
	SyncPasses        prometheus.Counter
	SyncPassesSkipped prometheus.Counter
	SyncRecords       *prometheus.CounterVec
	SyncFailures      *prometheus.CounterVec
	SnapshotWrites    prometheus.Counter
	SnapshotFailures  prometheus.Counter
}

// NewCollector creates a metrics collector with its own registry
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	treePersons := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tree_persons",
			Help:      "Number of persons in the current tree",
		},
	)

	treeFamilies := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tree_families",
			Help:      "Number of families in the current tree",
		},
	)

	syncPasses := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_passes_total",
			Help:      "Total number of sync passes executed",
		},
	)

	syncPassesSkipped := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_passes_skipped_total",
			Help:      "Total number of sync passes skipped because nothing changed",
		},
	)

	syncRecords := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_records_total",
			Help:      "Total number of records processed by the sync engine",
		},
		[]string{"kind", "outcome"},
	)

	syncFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_record_failures_total",
			Help:      "Total number of record pushes rejected by the data service",
		},
		[]string{"kind"},
	)

	snapshotWrites := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_writes_total",
			Help:      "Total number of snapshot documents written to the blob store",
		},
	)

	snapshotFailures := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_write_failures_total",
			Help:      "Total number of failed snapshot writes",
		},
	)

	registry.MustRegister(
		httpRequests,
		httpDuration,
		treePersons,
		treeFamilies,
		syncPasses,
		syncPassesSkipped,
		syncRecords,
		syncFailures,
		snapshotWrites,
		snapshotFailures,
	)

	return &Collector{
		registry:          registry,
		HTTPRequests:      httpRequests,
		HTTPDuration:      httpDuration,
		TreePersons:       treePersons,
		TreeFamilies:      treeFamilies,
		SyncPasses:        syncPasses,
		SyncPassesSkipped: syncPassesSkipped,
		SyncRecords:       syncRecords,
		SyncFailures:      syncFailures,
		SnapshotWrites:    snapshotWrites,
		SnapshotFailures:  snapshotFailures,
	}
}

// Registry exposes the collector's registry for the metrics endpoint
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
