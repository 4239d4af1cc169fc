package observability

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remedyhq/remedy/pkg/domain"
)

func TestMetricsHooks(t *testing.T) {
	m := NewMetrics("remedy_test")
	reg := prometheus.NewRegistry()
	require.NoError(t, m.Register(reg))

	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnDecision(ctx, &domain.DecisionEvent{
		Decision: domain.Decision{NextStep: domain.StepProcessAlert},
		Cycle:    3,
	})
	hooks.OnStepEnd(ctx, &domain.StepEvent{
		Step:     domain.StepProcessAlert,
		Duration: 50 * time.Millisecond,
		Failed:   true,
	})
	hooks.OnSuspend(ctx, &domain.SuspendEvent{Token: "tok"})
	hooks.OnResume(ctx, &domain.SuspendEvent{Token: "tok"})
	hooks.OnTerminal(ctx, &domain.TerminalEvent{Reason: domain.ReasonCompleted})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.decisions.WithLabelValues("process_alert")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.activeCycles))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stepFailures.WithLabelValues("process_alert")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.suspensions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.resumes))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.terminals.WithLabelValues("completed")))
}

func TestMetricsRegisterTwiceFails(t *testing.T) {
	m := NewMetrics("remedy_test")
	reg := prometheus.NewRegistry()
	require.NoError(t, m.Register(reg))
	assert.Error(t, m.Register(reg))
}
