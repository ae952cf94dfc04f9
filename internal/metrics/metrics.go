package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "swapindexor"

var (
	// Sync metrics
	lastSyncedBlock = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_synced_block",
			Help:      "Highest block the downloader has fully delivered to indexers",
		},
	)

	logsFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logs_fetched_total",
			Help:      "Total number of logs fetched from the node",
		},
	)

	chunkFetchTime = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chunk_fetch_duration_seconds",
			Help:      "Time taken to fetch and route one block range",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// Indexing metrics
	lastIndexedBlock = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_indexed_block",
			Help:      "The last block number successfully projected",
		},
		[]string{"indexer"},
	)

	eventsProjected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_projected_total",
			Help:      "Total number of escrow events projected into entities",
		},
		[]string{"indexer", "event"},
	)

	projectionErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "projection_errors_total",
			Help:      "Total number of events that failed to project",
		},
		[]string{"indexer", "event"},
	)

	entitiesWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entities_written_total",
			Help:      "Total number of entity upserts",
		},
		[]string{"indexer", "entity"},
	)

	batchProcessingTime = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Time taken by an indexer to project a batch of logs",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"indexer"},
	)

	// System metrics
	uptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_seconds",
			Help:      "Application uptime in seconds",
		},
	)

	componentHealth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "component_health",
			Help:      "Component health status (1=healthy, 0=unhealthy)",
		},
		[]string{"component"},
	)

	goroutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "goroutines",
			Help:      "Number of active goroutines",
		},
	)

	memoryUsage = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "memory_usage_bytes",
			Help:      "Memory usage statistics",
		},
		[]string{"type"},
	)

	startTime = time.Now()
)

func LastSyncedBlockSet(blockNum uint64) {
	lastSyncedBlock.Set(float64(blockNum))
}

func LogsFetchedInc(count int) {
	logsFetched.Add(float64(count))
}

func ChunkFetchTimeLog(duration time.Duration) {
	chunkFetchTime.Observe(duration.Seconds())
}

func LastIndexedBlockSet(indexer string, blockNum uint64) {
	lastIndexedBlock.WithLabelValues(indexer).Set(float64(blockNum))
}

func EventProjectedInc(indexer, event string) {
	eventsProjected.WithLabelValues(indexer, event).Inc()
}

func ProjectionErrorInc(indexer, event string) {
	projectionErrors.WithLabelValues(indexer, event).Inc()
}

func EntityWrittenInc(indexer, entity string) {
	entitiesWritten.WithLabelValues(indexer, entity).Inc()
}

func BatchProcessingTimeLog(indexer string, duration time.Duration) {
	batchProcessingTime.WithLabelValues(indexer).Observe(duration.Seconds())
}

func ComponentHealthSet(component string, healthy bool) {
	value := float64(1)
	if !healthy {
		value = 0
	}

	componentHealth.WithLabelValues(component).Set(value)
}

// UpdateSystemMetrics refreshes runtime gauges. The metrics server calls it periodically.
func UpdateSystemMetrics() {
	uptime.Set(time.Since(startTime).Seconds())
	goroutines.Set(float64(runtime.NumGoroutine()))

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	memoryUsage.WithLabelValues("alloc").Set(float64(m.Alloc))
	memoryUsage.WithLabelValues("sys").Set(float64(m.Sys))
	memoryUsage.WithLabelValues("heap_inuse").Set(float64(m.HeapInuse))
}
