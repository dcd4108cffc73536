package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the authorization core.
type Metrics struct {
	SessionsResolved   *prometheus.CounterVec
	ForcedSignOuts     prometheus.Counter
	AuthzDecisions     *prometheus.CounterVec
	RoleAssignments    *prometheus.CounterVec
	AuditPageDuration  prometheus.Histogram
	AuditPagesDegraded prometheus.Counter
	IdentityLookups    *prometheus.CounterVec
	MFAVerifications   *prometheus.CounterVec
	EndpointLatency    *prometheus.HistogramVec
	Lockouts           *prometheus.CounterVec
}

// New registers every collector with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SessionsResolved: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gatekeeper_sessions_resolved_total",
			Help: "Session resolutions by outcome",
		}, []string{"status"}),
		ForcedSignOuts: factory.NewCounter(prometheus.CounterOpts{
			Name: "gatekeeper_forced_signouts_total",
			Help: "Sessions signed out for exceeding the maximum age",
		}),
		AuthzDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gatekeeper_authz_decisions_total",
			Help: "Authorization guard decisions",
		}, []string{"decision"}),
		RoleAssignments: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gatekeeper_role_assignments_total",
			Help: "Role assignment attempts by action and outcome",
		}, []string{"action", "outcome"}),
		AuditPageDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gatekeeper_audit_page_duration_seconds",
			Help:    "Time to build one audit page including identity resolution",
			Buckets: prometheus.DefBuckets,
		}),
		AuditPagesDegraded: factory.NewCounter(prometheus.CounterOpts{
			Name: "gatekeeper_audit_pages_degraded_total",
			Help: "Audit pages emptied because the store failed",
		}),
		IdentityLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gatekeeper_identity_lookups_total",
			Help: "Administrative identity lookups by outcome",
		}, []string{"outcome"}),
		MFAVerifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gatekeeper_mfa_verifications_total",
			Help: "Second-factor verifications by outcome",
		}, []string{"outcome"}),
		EndpointLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gatekeeper_endpoint_latency_seconds",
			Help:    "Latency of endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		Lockouts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gatekeeper_auth_lockouts_total",
			Help: "Keys locked after repeated failed attempts",
		}, []string{"scope"}),
	}
}

func (m *Metrics) IncSessionResolved(status string) {
	m.SessionsResolved.WithLabelValues(status).Inc()
}

func (m *Metrics) IncForcedSignOut() {
	m.ForcedSignOuts.Inc()
}

func (m *Metrics) IncAuthzDecision(decision string) {
	m.AuthzDecisions.WithLabelValues(decision).Inc()
}

func (m *Metrics) IncRoleAssignment(action, outcome string) {
	m.RoleAssignments.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) ObserveAuditPage(durationSeconds float64, degraded bool) {
	m.AuditPageDuration.Observe(durationSeconds)
	if degraded {
		m.AuditPagesDegraded.Inc()
	}
}

func (m *Metrics) IncIdentityLookup(outcome string) {
	m.IdentityLookups.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncMFAVerification(outcome string) {
	m.MFAVerifications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveEndpointLatency(endpoint string, durationSeconds float64) {
	m.EndpointLatency.WithLabelValues(endpoint).Observe(durationSeconds)
}

func (m *Metrics) IncLockout(scope string) {
	m.Lockouts.WithLabelValues(scope).Inc()
}
