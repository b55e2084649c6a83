package chunk

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const sourceLabel = "source"

var (
	tilesAllocated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planet_tiles_allocated_total",
		Help: "The number of tiles handed to builds, by source (pool or factory).",
	}, []string{
		sourceLabel,
	})

	tilesBuilt = promauto.NewCounter(prometheus.CounterOpts{
		Name: "planet_tiles_built_total",
		Help: "The number of tile builds that completed.",
	})

	tileBuildFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "planet_tile_build_failures_total",
		Help: "The number of tile builds that reported failure.",
	})

	tilesRetired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "planet_tiles_retired_total",
		Help: "The number of tiles released at the end of a drain cycle.",
	})

	drainCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "planet_drain_cycles_total",
		Help: "The number of completed drain cycles.",
	})

	drainCycleSteps = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "planet_drain_cycle_steps",
		Help:    "The number of scheduler steps a drain cycle took.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	buildQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "planet_build_queue_depth",
		Help: "The number of builds waiting in the current drain cycle.",
	})

	pooledTiles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "planet_pooled_tiles",
		Help: "The number of released tiles waiting for reuse.",
	})
)

func instrumentAllocation(fromPool bool) {
	source := "factory"
	if fromPool {
		source = "pool"
	}
	tilesAllocated.With(prometheus.Labels{
		sourceLabel: source,
	}).Inc()
}

func instrumentBuild(res StepResult) {
	switch res {
	case Done:
		tilesBuilt.Inc()
	case Failed:
		tileBuildFailures.Inc()
	}
}

func instrumentDrain(steps, retired, pooled int) {
	drainCycles.Inc()
	drainCycleSteps.Observe(float64(steps))
	tilesRetired.Add(float64(retired))
	pooledTiles.Set(float64(pooled))
}
