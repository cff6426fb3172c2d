// Package metrics holds the Prometheus collectors for the indexing and
// question-answering pipelines.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeIndexed   = "indexed"
	OutcomeNoContent = "no_content"
	OutcomeAnswered  = "answered"
	OutcomeAdvisory  = "advisory"
	OutcomeError     = "error"
)

var (
	processTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rag_process_total",
		Help: "Indexing requests by outcome.",
	}, []string{"outcome"})

	askTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rag_ask_total",
		Help: "Question requests by outcome.",
	}, []string{"outcome"})

	chunksIndexed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rag_chunks_indexed_total",
		Help: "Chunks written to session indexes.",
	})

	pipelineDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rag_pipeline_duration_seconds",
		Help:    "Wall time of process and ask pipelines.",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"operation"})
)

func ObserveProcess(outcome string, chunks int, started time.Time) {
	processTotal.WithLabelValues(outcome).Inc()
	if chunks > 0 {
		chunksIndexed.Add(float64(chunks))
	}
	pipelineDuration.WithLabelValues("process").Observe(time.Since(started).Seconds())
}

func ObserveAsk(outcome string, started time.Time) {
	askTotal.WithLabelValues(outcome).Inc()
	pipelineDuration.WithLabelValues("ask").Observe(time.Since(started).Seconds())
}
