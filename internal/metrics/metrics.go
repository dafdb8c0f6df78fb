package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "feedengine"

// Metrics groups the counters the engine reports. A nil *Metrics is valid
// and records nothing, which keeps tests free of registry setup.
type Metrics struct {
	decodeDropped      *prometheus.CounterVec
	fetches            *prometheus.CounterVec
	mutationFailures   *prometheus.CounterVec
	reconcileUpdates   prometheus.Counter
	reconcileFailures  prometheus.Counter
	blocklistPruned    prometheus.Counter
	suggestionsCapped  prometheus.Counter
	invalidationEvents *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		decodeDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_dropped_total",
			Help:      "Feed items dropped by the wire decoder.",
		}, []string{"type"}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_fetches_total",
			Help:      "Feed page fetches by result.",
		}, []string{"result"}),
		mutationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutation_failures_total",
			Help:      "Mutations the server did not confirm.",
		}, []string{"kind"}),
		reconcileUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_updates_total",
			Help:      "Items changed by reconciliation.",
		}),
		reconcileFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_failures_total",
			Help:      "Failed reconciliation passes.",
		}),
		blocklistPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocklist_pruned_total",
			Help:      "Items removed from the store by block actions.",
		}),
		suggestionsCapped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suggestions_capped_total",
			Help:      "Suggested users dropped by the frequency cap.",
		}),
		invalidationEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalidation_events_total",
			Help:      "Invalidation events handled by type.",
		}, []string{"type"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.decodeDropped,
			m.fetches,
			m.mutationFailures,
			m.reconcileUpdates,
			m.reconcileFailures,
			m.blocklistPruned,
			m.suggestionsCapped,
			m.invalidationEvents,
		)
	}

	return m
}

func (m *Metrics) DecodeDropped(itemType string) {
	if m == nil {
		return
	}
	m.decodeDropped.WithLabelValues(itemType).Inc()
}

func (m *Metrics) Fetch(result string) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(result).Inc()
}

func (m *Metrics) MutationFailed(kind string) {
	if m == nil {
		return
	}
	m.mutationFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) Reconciled(updated int) {
	if m == nil {
		return
	}
	m.reconcileUpdates.Add(float64(updated))
}

func (m *Metrics) ReconcileFailed() {
	if m == nil {
		return
	}
	m.reconcileFailures.Inc()
}

func (m *Metrics) Pruned(n int) {
	if m == nil {
		return
	}
	m.blocklistPruned.Add(float64(n))
}

func (m *Metrics) Capped(n int) {
	if m == nil {
		return
	}
	m.suggestionsCapped.Add(float64(n))
}

func (m *Metrics) Invalidation(eventType string) {
	if m == nil {
		return
	}
	m.invalidationEvents.WithLabelValues(eventType).Inc()
}
