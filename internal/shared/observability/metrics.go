package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	FilesAnalyzed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "engineguard_files_analyzed_total",
		Help: "Total number of source files analyzed.",
	})

	AnalysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "engineguard_analysis_seconds",
		Help:    "Time spent analyzing a single source file.",
		Buckets: prometheus.DefBuckets,
	})

	ParseErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "engineguard_parse_errors_total",
		Help: "Total number of files that failed to parse.",
	})

	ViolationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engineguard_violations_total",
		Help: "Total number of boundary violations detected, by protection tier.",
	}, []string{"tier"})

	OracleQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engineguard_oracle_queries_total",
		Help: "Total number of model-access oracle queries, by outcome.",
	}, []string{"outcome"})

	OracleCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "engineguard_oracle_cache_hits_total",
		Help: "Total number of oracle answers served from the per-run memo.",
	})

	APICacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "engineguard_api_cache_hits_total",
		Help: "Total number of engine API artifact reads served from cache.",
	})

	APICacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "engineguard_api_cache_misses_total",
		Help: "Total number of engine API artifact reads that hit the filesystem.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "engineguard_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)
