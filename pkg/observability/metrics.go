package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/remedyhq/remedy/pkg/domain"
)

// Metrics holds the Prometheus collectors for the engine. Register it
// once and attach Hooks() to the engine.
type Metrics struct {
	decisions    *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	stepFailures *prometheus.CounterVec
	suspensions  prometheus.Counter
	resumes      prometheus.Counter
	terminals    *prometheus.CounterVec
	activeCycles prometheus.Gauge
}

// NewMetrics creates the collectors under the given namespace
// (e.g. "remedy").
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "router_decisions_total",
			Help:      "Routing decisions, labeled by selected step.",
		}, []string{"step"}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Business step wall time.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"step"}),
		stepFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_failures_total",
			Help:      "Business step failures, labeled by step.",
		}, []string{"step"}),
		suspensions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suspensions_total",
			Help:      "Sessions suspended awaiting operator input.",
		}),
		resumes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resumes_total",
			Help:      "Suspended sessions resumed with operator input.",
		}),
		terminals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_terminated_total",
			Help:      "Sessions that reached terminal, labeled by reason.",
		}, []string{"reason"}),
		activeCycles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "router_cycle_depth",
			Help:      "Cycle counter of the most recent routing decision.",
		}),
	}
}

// Register adds all collectors to the registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.decisions, m.stepDuration, m.stepFailures,
		m.suspensions, m.resumes, m.terminals, m.activeCycles,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Hooks returns lifecycle hooks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnDecision: func(_ context.Context, e *domain.DecisionEvent) {
			m.decisions.WithLabelValues(string(e.Decision.NextStep)).Inc()
			m.activeCycles.Set(float64(e.Cycle))
		},
		OnStepEnd: func(_ context.Context, e *domain.StepEvent) {
			m.stepDuration.WithLabelValues(string(e.Step)).Observe(e.Duration.Seconds())
			if e.Failed {
				m.stepFailures.WithLabelValues(string(e.Step)).Inc()
			}
		},
		OnSuspend: func(_ context.Context, _ *domain.SuspendEvent) {
			m.suspensions.Inc()
		},
		OnResume: func(_ context.Context, _ *domain.SuspendEvent) {
			m.resumes.Inc()
		},
		OnTerminal: func(_ context.Context, e *domain.TerminalEvent) {
			m.terminals.WithLabelValues(string(e.Reason)).Inc()
		},
	}
}
