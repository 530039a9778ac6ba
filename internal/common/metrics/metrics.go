// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	EmbeddingRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedding_requests_total",
			Help: "Embedding generation attempts by outcome (ok, empty, error)",
		},
		[]string{"outcome"},
	)

	LLMScoringRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_scoring_requests_total",
			Help: "LLM match scoring attempts by outcome (ok, malformed, error)",
		},
		[]string{"outcome"},
	)

	LLMScoringDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "llm_scoring_duration_seconds",
			Help: "Duration of LLM scoring calls in seconds",
		},
	)

	RankingStrategyAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ranking_strategy_attempts_total",
			Help: "Ranking strategy attempts by strategy name and outcome",
		},
		[]string{"strategy", "outcome"},
	)

	ListingCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listing_cache_requests_total",
			Help: "Marketplace listing cache lookups by result (hit, miss)",
		},
		[]string{"result"},
	)
)
