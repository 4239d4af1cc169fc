package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remedyhq/remedy/pkg/domain"
	"github.com/remedyhq/remedy/pkg/ports"
)

func TestRunAlertToTerminal(t *testing.T) {
	stubs := &stubAdapters{}
	eng := NewEngine(stubs.set())
	st := alertState("s1")
	st.Symptoms = []string{"cpu 98% on web-1"}

	res, err := eng.Run(context.Background(), st)
	require.NoError(t, err)
	require.Nil(t, res.Prompt)

	assert.Equal(t, []string{"classify", "diagnose", "plan", "execute", "report"}, stubs.calls)
	assert.Equal(t, domain.StatusTerminated, res.State.Status)
	assert.Equal(t, domain.ReasonCompleted, res.State.TerminalReason)
	require.NotNil(t, res.State.Report)
	assert.False(t, res.State.Report.Degraded)
	assert.Empty(t, res.State.Errors)
	assert.NotEmpty(t, res.State.Conversation, "each step narrates progress")
}

// A structured alert alone is enough to drive the whole pipeline: the
// session must complete without ever suspending to ask for symptoms.
func TestRunAlertOnlySeedReachesTerminal(t *testing.T) {
	stubs := &stubAdapters{}
	eng := NewEngine(stubs.set())
	st := testState("s1")
	st.AlertInfo = &domain.AlertInfo{ID: "cpu_1", Severity: "high"}

	res, err := eng.Run(context.Background(), st)
	require.NoError(t, err)
	require.Nil(t, res.Prompt, "no operator input is needed")

	assert.Equal(t, []string{"classify", "diagnose", "plan", "execute", "report"}, stubs.calls)
	assert.Equal(t, domain.StatusTerminated, res.State.Status)
	assert.Equal(t, domain.ReasonCompleted, res.State.TerminalReason)
	require.NotNil(t, res.State.Report)
	assert.False(t, res.State.Report.Degraded)
}

func TestRunTerminatedSessionIsRejected(t *testing.T) {
	stubs := &stubAdapters{}
	eng := NewEngine(stubs.set())
	st := testState("s1")
	st.Terminate(domain.ReasonCancelled, st.CreatedAt)

	_, err := eng.Run(context.Background(), st)
	assert.ErrorIs(t, err, domain.ErrSessionTerminated)
	assert.Empty(t, stubs.calls)
}

func TestRunEmptyStateSuspendsForInput(t *testing.T) {
	stubs := &stubAdapters{}
	eng := NewEngine(stubs.set())

	res, err := eng.Run(context.Background(), testState("s1"))
	require.NoError(t, err)
	require.NotNil(t, res.Prompt)
	assert.Equal(t, domain.StatusWaiting, res.State.Status)
	assert.NotEmpty(t, res.State.PendingCollection)
	assert.Empty(t, stubs.calls, "no adapter runs before information arrives")
}

func TestRunCycleLimitForcesTermination(t *testing.T) {
	stubs := &stubAdapters{}
	cfg := DefaultConfig()
	cfg.MaxCycles = 2
	eng := NewEngine(stubs.set(), WithConfig(cfg))
	st := alertState("s1")
	st.Symptoms = []string{"cpu spike"}

	res, err := eng.Run(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonCycleLimitExceeded, res.State.TerminalReason)
	require.NotEmpty(t, res.State.Errors)
	last := res.State.Errors[len(res.State.Errors)-1]
	assert.Equal(t, domain.KindCycleLimitExceeded, last.Kind)
}

func TestRunDegradesToReportAfterRetryExhaustion(t *testing.T) {
	stubs := &stubAdapters{}
	stubs.classify = func(domain.AlertInfo) (*domain.AnalysisResult, error) {
		return nil, errBoom
	}
	eng := NewEngine(stubs.set())

	res, err := eng.Run(context.Background(), alertState("s1"))
	require.NoError(t, err)

	cfg := eng.Config()
	assert.Equal(t, cfg.MaxStepAttempts, res.State.Attempts[domain.StepProcessAlert])
	assert.Equal(t, domain.ReasonCompleted, res.State.TerminalReason)
	require.NotNil(t, res.State.Report)
	assert.True(t, res.State.Report.Degraded, "report generated on partial data")

	failures := 0
	for _, e := range res.State.Errors {
		if e.Kind == domain.KindAdapterFailure && e.Step == domain.StepProcessAlert {
			failures++
		}
	}
	assert.Equal(t, cfg.MaxStepAttempts, failures, "every failed attempt is recorded")
}

func TestRunReporterFailureFallsBackToLocalReport(t *testing.T) {
	stubs := &stubAdapters{}
	stubs.report = func(domain.State) (*domain.Report, error) {
		return nil, errBoom
	}
	eng := NewEngine(stubs.set())
	st := alertState("s1")
	st.Symptoms = []string{"cpu spike"}

	res, err := eng.Run(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonCompleted, res.State.TerminalReason)
	require.NotNil(t, res.State.Report, "session completes even when the reporter is down")
	assert.True(t, res.State.Report.Degraded)
}

func TestRunAdapterErrorsAreTyped(t *testing.T) {
	stubs := &stubAdapters{}
	stubs.diagnose = func(ports.DiagnosticInput) (*domain.DiagnosticResult, error) {
		return nil, errBoom
	}
	eng := NewEngine(stubs.set())
	st := testState("s1")
	st.Symptoms = []string{"disk full"}

	res, err := eng.Run(context.Background(), st)
	require.NoError(t, err)

	var found bool
	for _, e := range res.State.Errors {
		if e.Step == domain.StepDiagnoseIssue && e.Kind == domain.KindAdapterFailure {
			found = true
			assert.Contains(t, e.Message, "diagnostics")
		}
	}
	assert.True(t, found)
}
