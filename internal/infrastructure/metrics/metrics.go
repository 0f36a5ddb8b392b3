// Package metrics exposes ledger, reconciler, and provisioner counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "llmapp"

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	SubscriptionTransitionsTotal *prometheus.CounterVec
	BillingEventsTotal           *prometheus.CounterVec
	ProvisionerRequestsTotal     *prometheus.CounterVec
	PlanCacheLookupsTotal        *prometheus.CounterVec
	SweepRunsTotal               *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics on a private registry,
// together with the Go runtime and process collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		SubscriptionTransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "subscription_transitions_total",
				Help:      "Subscription ledger transitions by operation and provisioning outcome",
			},
			[]string{"operation", "outcome"},
		),
		BillingEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "billing_events_total",
				Help:      "Billing provider events by type and reconciliation result",
			},
			[]string{"type", "result"},
		),
		ProvisionerRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provisioner_requests_total",
				Help:      "Calls to the entitlement provisioning backend",
			},
			[]string{"op", "result"},
		),
		PlanCacheLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "plan_cache_lookups_total",
				Help:      "Plan cache lookups by tier and result",
			},
			[]string{"tier", "result"},
		),
		SweepRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sweep_runs_total",
				Help:      "Scheduled sweep runs by job and result",
			},
			[]string{"job", "result"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.SubscriptionTransitionsTotal,
		m.BillingEventsTotal,
		m.ProvisionerRequestsTotal,
		m.PlanCacheLookupsTotal,
		m.SweepRunsTotal,
	)

	return m
}

func (m *Metrics) RecordTransition(operation, outcome string) {
	m.SubscriptionTransitionsTotal.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) RecordBillingEvent(eventType, result string) {
	m.BillingEventsTotal.WithLabelValues(eventType, result).Inc()
}

func (m *Metrics) RecordProvisionerRequest(op, result string) {
	m.ProvisionerRequestsTotal.WithLabelValues(op, result).Inc()
}

func (m *Metrics) RecordPlanCacheLookup(tier string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.PlanCacheLookupsTotal.WithLabelValues(tier, result).Inc()
}

func (m *Metrics) RecordSweep(job string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.SweepRunsTotal.WithLabelValues(job, result).Inc()
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
