// Package metrics exposes Prometheus instrumentation for the engine,
// fed through domain.LifecycleHooks so the pipeline stays decoupled
// from the metrics backend.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/skillgate/skillgate/pkg/domain"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	ExecutionsTotal  *prometheus.CounterVec
	ApprovalsPending prometheus.Gauge
	DecisionsTotal   *prometheus.CounterVec
}

// New creates and registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ExecutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skillgate_executions_total",
				Help: "Terminal skill executions by skill and status",
			},
			[]string{"skill_id", "status"},
		),
		ApprovalsPending: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "skillgate_approvals_pending",
				Help: "Executions currently awaiting a human decision",
			},
		),
		DecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skillgate_approval_decisions_total",
				Help: "Approval decisions by resulting status",
			},
			[]string{"status"},
		),
	}
	reg.MustRegister(m.ExecutionsTotal, m.ApprovalsPending, m.DecisionsTotal)
	return m
}

// Hooks returns lifecycle hooks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPending: func(ctx context.Context, e *domain.ExecutionEvent) {
			m.ApprovalsPending.Inc()
		},
		OnDecision: func(ctx context.Context, e *domain.ExecutionEvent) {
			m.ApprovalsPending.Dec()
			m.DecisionsTotal.WithLabelValues(string(e.Status)).Inc()
		},
		OnTerminal: func(ctx context.Context, e *domain.ExecutionEvent) {
			m.ExecutionsTotal.WithLabelValues(e.SkillID, string(e.Status)).Inc()
		},
	}
}
