package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StackEvaluations counts stack evaluations by outcome (evaluated,
	// inactive, outside_window, not_found).
	StackEvaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discount_stack_evaluations_total",
			Help: "Total number of discount stack evaluations by outcome",
		},
		[]string{"outcome"},
	)

	// RulesApplied counts rules that applied during evaluations, by rule type.
	RulesApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discount_rules_applied_total",
			Help: "Total number of discount rules applied during evaluations",
		},
		[]string{"type"},
	)

	// RulesSkipped counts rules skipped during evaluations, by rule type.
	RulesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discount_rules_skipped_total",
			Help: "Total number of discount rules skipped during evaluations",
		},
		[]string{"type"},
	)

	// EvaluationDuration observes end-to-end evaluation latency including
	// the stack load.
	EvaluationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "discount_stack_evaluation_duration_seconds",
			Help:    "Duration of discount stack evaluations in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// CacheHits counts stack cache hits.
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "discount_stack_cache_hits_total",
			Help: "Total number of stack cache hits",
		},
	)

	// CacheMisses counts stack cache misses.
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "discount_stack_cache_misses_total",
			Help: "Total number of stack cache misses",
		},
	)
)
