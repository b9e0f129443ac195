// Package metrics exposes Prometheus collectors for the ingestion service.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pipelineRunsTotal     *prometheus.CounterVec
	sourcesExtractedTotal *prometheus.CounterVec
	blogsGeneratedTotal   *prometheus.CounterVec
	diagramsTotal         *prometheus.CounterVec
	llmCallSeconds        *prometheus.HistogramVec
	pipelineRunSeconds    prometheus.Histogram

	once sync.Once
)

// Init registers the collectors. Safe to call multiple times.
func Init() {
	once.Do(func() {
		pipelineRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "technews_pipeline_runs_total",
				Help: "Total pipeline invocations, labeled by outcome.",
			},
			[]string{"status"},
		)

		sourcesExtractedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "technews_sources_extracted_total",
				Help: "Total extraction attempts, labeled by outcome.",
			},
			[]string{"status"},
		)

		blogsGeneratedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "technews_blogs_generated_total",
				Help: "Total blog records written, labeled by change kind.",
			},
			[]string{"change"},
		)

		diagramsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "technews_diagrams_total",
				Help: "Total diagram workflow runs, labeled by terminal outcome.",
			},
			[]string{"outcome"},
		)

		llmCallSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "technews_llm_call_duration_seconds",
				Help:    "Latency of single-turn LLM invocations.",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"stage"},
		)

		pipelineRunSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "technews_pipeline_run_duration_seconds",
				Help:    "End-to-end duration of pipeline runs.",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
		)
	})
}

// RecordPipelineRun counts one run by outcome and observes its duration.
func RecordPipelineRun(status string, duration time.Duration) {
	if pipelineRunsTotal == nil {
		return
	}
	pipelineRunsTotal.WithLabelValues(status).Inc()
	pipelineRunSeconds.Observe(duration.Seconds())
}

// RecordExtraction counts one per-source extraction outcome.
func RecordExtraction(status string) {
	if sourcesExtractedTotal == nil {
		return
	}
	sourcesExtractedTotal.WithLabelValues(status).Inc()
}

// RecordBlogWrite counts one persisted blog by change kind.
func RecordBlogWrite(change string) {
	if blogsGeneratedTotal == nil {
		return
	}
	blogsGeneratedTotal.WithLabelValues(change).Inc()
}

// RecordDiagram counts one diagram workflow terminal outcome.
func RecordDiagram(outcome string) {
	if diagramsTotal == nil {
		return
	}
	diagramsTotal.WithLabelValues(outcome).Inc()
}

// ObserveLLMCall records the latency of one model invocation.
func ObserveLLMCall(stage string, duration time.Duration) {
	if llmCallSeconds == nil {
		return
	}
	llmCallSeconds.WithLabelValues(stage).Observe(duration.Seconds())
}
