package metrics

import "github.com/prometheus/client_golang/prometheus"

// Compensation outcomes.
const (
	CompensationSucceeded = "succeeded"
	CompensationFailed    = "failed"
)

// ConsistencyMetrics counts cross-store anomalies seen by the coordinator.
type ConsistencyMetrics struct {
	compensations *prometheus.CounterVec
	orphans       prometheus.Counter
	missing       prometheus.Counter
	fired         *prometheus.CounterVec
}

// NewConsistencyMetrics registers the coordinator counters. A nil registerer
// yields a no-op collector.
func NewConsistencyMetrics(reg prometheus.Registerer) *ConsistencyMetrics {
	if reg == nil {
		return &ConsistencyMetrics{}
	}
	compensations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "compensations_total",
		Help:      "Compensating deletes issued after a partial create.",
	}, []string{"outcome"})
	orphans := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orphan_documents_total",
		Help:      "Notification documents removed because no reminder referenced them.",
	})
	missing := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "missing_bodies_total",
		Help:      "Reminders whose notification document could not be found during a lookup.",
	})
	fired := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reminders_fired_total",
		Help:      "Reminders dispatched by the scheduler, by action.",
	}, []string{"action"})
	reg.MustRegister(compensations, orphans, missing, fired)
	return &ConsistencyMetrics{
		compensations: compensations,
		orphans:       orphans,
		missing:       missing,
		fired:         fired,
	}
}

// IncCompensation records the outcome of a compensating delete.
func (c *ConsistencyMetrics) IncCompensation(outcome string) {
	if c == nil || c.compensations == nil {
		return
	}
	c.compensations.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// AddOrphans records documents removed by the orphan sweep.
func (c *ConsistencyMetrics) AddOrphans(n int) {
	if c == nil || c.orphans == nil || n <= 0 {
		return
	}
	c.orphans.Add(float64(n))
}

// AddMissing records reminders that lost their document.
func (c *ConsistencyMetrics) AddMissing(n int) {
	if c == nil || c.missing == nil || n <= 0 {
		return
	}
	c.missing.Add(float64(n))
}

// IncFired records a dispatched action.
func (c *ConsistencyMetrics) IncFired(action string) {
	if c == nil || c.fired == nil {
		return
	}
	c.fired.WithLabelValues(normalizeLabel(action)).Inc()
}
