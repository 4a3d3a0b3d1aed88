// Package metrics exposes Prometheus counters for the memory pipeline.
// The external contract of the service is silent best-effort, so these
// counters are what keeps "nothing happened" and "everything failed"
// distinguishable for operators.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Entity processing outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

var (
	// MessagesTotal counts conversation messages handed to the orchestrator.
	MessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mnemos_memory_messages_total",
		Help: "Conversation messages processed by the memory service.",
	})

	// EntitiesProcessedTotal counts per-entity update attempts by outcome.
	EntitiesProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mnemos_memory_entities_processed_total",
		Help: "Per-entity update attempts, labeled by outcome.",
	}, []string{"outcome"})

	// ExtractionFailuresTotal counts extraction calls that produced no
	// usable output.
	ExtractionFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mnemos_memory_extraction_failures_total",
		Help: "Entity extraction failures (treated as no entities found).",
	})

	// ResolutionFallbacksTotal counts resolver failures that fell back to
	// the category's existing facts.
	ResolutionFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mnemos_memory_resolution_fallbacks_total",
		Help: "Resolver failures that fell back to current facts.",
	})

	// StoreFailuresTotal counts persistence failures by operation.
	StoreFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mnemos_memory_store_failures_total",
		Help: "Fact store failures, labeled by operation.",
	}, []string{"operation"})

	// FactOperationsTotal counts diff engine record operations.
	FactOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mnemos_memory_fact_operations_total",
		Help: "Fact record operations applied by the diff engine.",
	}, []string{"operation"})

	// RetrievalFailuresTotal counts read-side failures that degraded to an
	// empty result.
	RetrievalFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mnemos_memory_retrieval_failures_total",
		Help: "Read-side store failures degraded to empty results.",
	}, []string{"view"})
)
