package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the policy administration core.
type Metrics struct {
	// Audit events by action and entity type
	AuditEvents *prometheus.CounterVec

	// Quotes priced by vehicle category and policy type
	Quotes *prometheus.CounterVec

	// Vehicle lookups by source and outcome
	VehicleLookups       *prometheus.CounterVec
	VehicleLookupLatency prometheus.Histogram

	// Registry unit-of-work commits by outcome
	RegistryCommits *prometheus.CounterVec

	// Login attempts by slot and outcome
	Logins *prometheus.CounterVec
}

// New creates a Metrics instance registered on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		AuditEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "swiftpolicy_audit_events_total",
			Help: "Total audited mutations by action and entity type",
		}, []string{"action", "entity"}),

		Quotes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "swiftpolicy_quotes_total",
			Help: "Total premium quotes by vehicle category and policy type",
		}, []string{"category", "policy_type"}),

		VehicleLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "swiftpolicy_vehicle_lookups_total",
			Help: "Total vehicle registration lookups by source and outcome",
		}, []string{"source", "outcome"}),

		VehicleLookupLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "swiftpolicy_vehicle_lookup_duration_seconds",
			Help:    "Duration of vehicle registration lookups",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),

		RegistryCommits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "swiftpolicy_registry_commits_total",
			Help: "Total registry transactions by outcome",
		}, []string{"outcome"}), // outcome: "committed", "conflict", "rolled_back"

		Logins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "swiftpolicy_logins_total",
			Help: "Total login attempts by session slot and outcome",
		}, []string{"slot", "outcome"}),
	}
}

// IncAuditEvent records an audited mutation.
func (m *Metrics) IncAuditEvent(action, entity string) {
	if m != nil {
		m.AuditEvents.WithLabelValues(action, entity).Inc()
	}
}

// IncQuote records a priced quote.
func (m *Metrics) IncQuote(category, policyType string) {
	if m != nil {
		m.Quotes.WithLabelValues(category, policyType).Inc()
	}
}

// ObserveVehicleLookup records a lookup outcome and its duration.
func (m *Metrics) ObserveVehicleLookup(source string, success bool, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.VehicleLookups.WithLabelValues(source, outcome).Inc()
	m.VehicleLookupLatency.Observe(d.Seconds())
}

// IncRegistryCommit records the outcome of a registry transaction.
func (m *Metrics) IncRegistryCommit(outcome string) {
	if m != nil {
		m.RegistryCommits.WithLabelValues(outcome).Inc()
	}
}

// IncLogin records a login attempt.
func (m *Metrics) IncLogin(slot string, success bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.Logins.WithLabelValues(slot, outcome).Inc()
}
