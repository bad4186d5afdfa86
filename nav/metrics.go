package nav

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// searchTotal counts finished searches by algorithm and terminal state
	searchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voxelnav_search_total",
		Help: "Total finished searches by algorithm and outcome",
	}, []string{"algorithm", "outcome"})

	// searchDuration tracks search latency
	searchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "voxelnav_search_duration_seconds",
		Help:    "Search duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~800ms
	}, []string{"algorithm"})

	// searchExplored tracks how many nodes a search expanded or discarded
	searchExplored = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voxelnav_search_explored_nodes",
		Help:    "Number of nodes explored per search",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})

	gridCellsClassified = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxelnav_grid_cells_classified_total",
		Help: "Total grid cells probed and classified",
	})

	probeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxelnav_grid_probe_failures_total",
		Help: "Total cells left open because the probe failed",
	})

	gridRegionUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxelnav_grid_region_updates_total",
		Help: "Total immediate region rebuilds",
	})

	gridBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voxelnav_grid_build_duration_seconds",
		Help:    "Full grid build duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	})
)

func recordSearch(algorithm Algorithm, state SearchState, elapsed time.Duration, explored int) {
	searchTotal.WithLabelValues(algorithm.String(), state.String()).Inc()
	searchDuration.WithLabelValues(algorithm.String()).Observe(elapsed.Seconds())
	searchExplored.Observe(float64(explored))
}
