package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remedyhq/remedy/pkg/domain"
)

func checkpointFrom(res *RunResult, token string) *domain.Checkpoint {
	return &domain.Checkpoint{
		SessionID: res.State.SessionID,
		Token:     token,
		State:     res.State,
		Prompt:    res.Prompt,
		CreatedAt: res.State.UpdatedAt,
	}
}

// Free-text session: the engine suspends for details, the operator
// answers, extraction populates the record, and the flow runs through to
// the report.
func TestResumeRoundTrip(t *testing.T) {
	stubs := &stubAdapters{}
	stubs.extract = func(text string) (*domain.Extraction, error) {
		return &domain.Extraction{
			AlertInfo:  &domain.AlertInfo{ID: "alert-web-1", Severity: "high", Source: "web-1"},
			Symptoms:   []string{"cpu at 98% on web-1"},
			Confidence: 0.9,
		}, nil
	}
	eng := NewEngine(stubs.set())

	res, err := eng.Run(context.Background(), testState("s1"))
	require.NoError(t, err)
	require.NotNil(t, res.Prompt)

	res, err = eng.Resume(context.Background(), checkpointFrom(res, "tok-1"), "CPU is at 98% on web-1")
	require.NoError(t, err)
	require.Nil(t, res.Prompt)

	st := res.State
	assert.Equal(t, domain.ReasonCompleted, st.TerminalReason)
	assert.Equal(t, 1, st.CollectionAttempts)
	assert.Empty(t, st.PendingCollection, "answered requests are resolved")
	require.NotNil(t, st.Report)

	var sawUser bool
	for _, m := range st.Conversation {
		if m.Role == domain.RoleUser {
			sawUser = true
			assert.Equal(t, "CPU is at 98% on web-1", m.Content)
		}
	}
	assert.True(t, sawUser, "operator input is kept in the conversation")
}

func TestResumeGuards(t *testing.T) {
	eng := NewEngine((&stubAdapters{}).set())

	active := testState("s1")
	_, err := eng.Resume(context.Background(), &domain.Checkpoint{SessionID: "s1", State: active}, "hi")
	assert.ErrorIs(t, err, domain.ErrNotWaiting)

	done := testState("s2")
	done.Terminate(domain.ReasonCompleted, done.CreatedAt)
	_, err = eng.Resume(context.Background(), &domain.Checkpoint{SessionID: "s2", State: done}, "hi")
	assert.ErrorIs(t, err, domain.ErrSessionTerminated)
}

func TestResumeDoesNotMutateCheckpointState(t *testing.T) {
	eng := NewEngine((&stubAdapters{}).set())

	res, err := eng.Run(context.Background(), testState("s1"))
	require.NoError(t, err)
	cp := checkpointFrom(res, "tok-1")
	before := cp.State.Clone()

	_, err = eng.Resume(context.Background(), cp, "nothing useful")
	require.NoError(t, err)
	assert.Equal(t, before, cp.State)
}

// Unproductive answers burn collection attempts; at the cap the session
// terminates instead of suspending again.
func TestResumeCollectionExhaustion(t *testing.T) {
	stubs := &stubAdapters{} // extractor yields nothing by default
	cfg := DefaultConfig()
	cfg.MaxCollectionAttempts = 2
	eng := NewEngine(stubs.set(), WithConfig(cfg))

	res, err := eng.Run(context.Background(), testState("s1"))
	require.NoError(t, err)
	require.NotNil(t, res.Prompt)

	res, err = eng.Resume(context.Background(), checkpointFrom(res, "tok-1"), "no idea")
	require.NoError(t, err)
	require.NotNil(t, res.Prompt, "first unproductive answer suspends again")
	assert.Equal(t, 1, res.State.CollectionAttempts)

	res, err = eng.Resume(context.Background(), checkpointFrom(res, "tok-2"), "still no idea")
	require.NoError(t, err)
	assert.Nil(t, res.Prompt)
	assert.Equal(t, 2, res.State.CollectionAttempts)
	assert.Equal(t, domain.ReasonCollectionExhausted, res.State.TerminalReason)

	require.NotEmpty(t, res.State.Errors)
	last := res.State.Errors[len(res.State.Errors)-1]
	assert.Equal(t, domain.KindSuspensionExhausted, last.Kind)
}

func approvalCheckpoint(t *testing.T, eng *Engine, stubs *stubAdapters) *domain.Checkpoint {
	t.Helper()
	stubs.plan = func(d domain.DiagnosticResult) (*domain.ActionPlan, error) {
		return &domain.ActionPlan{
			ID:               "plan-1",
			IncidentID:       d.IncidentID,
			RiskLevel:        "high",
			ApprovalRequired: true,
			Steps:            []domain.ActionStep{{ID: "s1", ActionType: "rollback", Description: "roll back deploy"}},
		}, nil
	}
	st := testState("s1")
	st.Symptoms = []string{"error rate spike"}

	res, err := eng.Run(context.Background(), st)
	require.NoError(t, err)
	require.NotNil(t, res.Prompt)
	assert.Equal(t, promptKindApproval, res.Prompt.Context["kind"])
	return checkpointFrom(res, "tok-approve")
}

func TestResumeApprovalGranted(t *testing.T) {
	stubs := &stubAdapters{}
	eng := NewEngine(stubs.set())
	cp := approvalCheckpoint(t, eng, stubs)

	res, err := eng.Resume(context.Background(), cp, "approved")
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonCompleted, res.State.TerminalReason)
	require.NotNil(t, res.State.ExecutionResult)
	assert.Equal(t, domain.ExecutionSuccess, res.State.ExecutionResult.Status)
	assert.Contains(t, stubs.calls, "execute")
}

func TestResumeApprovalRejected(t *testing.T) {
	stubs := &stubAdapters{}
	eng := NewEngine(stubs.set())
	cp := approvalCheckpoint(t, eng, stubs)

	res, err := eng.Resume(context.Background(), cp, "rejected")
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonCompleted, res.State.TerminalReason)
	require.NotNil(t, res.State.ExecutionResult)
	assert.Equal(t, domain.ExecutionRejected, res.State.ExecutionResult.Status)
	assert.NotContains(t, stubs.calls, "execute", "rejected plans are never executed")
	require.NotNil(t, res.State.Report)
}

func TestResumeApprovalUnparseable(t *testing.T) {
	stubs := &stubAdapters{}
	eng := NewEngine(stubs.set())
	cp := approvalCheckpoint(t, eng, stubs)

	_, err := eng.Resume(context.Background(), cp, "maybe later")
	assert.ErrorIs(t, err, domain.ErrInvalidResumeInput)
}

func TestNormalizeInput(t *testing.T) {
	cases := []struct {
		name       string
		in         any
		text       string
		structured map[string]any
	}{
		{"plain string", "  hello ", "hello", nil},
		{"nil", nil, "", nil},
		{"response wrapper", map[string]any{"response": "restart it"}, "restart it", nil},
		{"input wrapper", map[string]any{"input": "ok"}, "ok", nil},
		{"nested wrapper", map[string]any{"response": map[string]any{"value": "deep"}}, "deep", nil},
		{"structured", map[string]any{"symptoms": []any{"a"}}, "", map[string]any{"symptoms": []any{"a"}}},
		{"wrapped structured", map[string]any{"value": map[string]any{"context": map[string]any{"env": "prod"}}}, "", map[string]any{"context": map[string]any{"env": "prod"}}},
		{"non-string scalar", 42, "42", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			text, structured := NormalizeInput(tc.in)
			assert.Equal(t, tc.text, text)
			assert.Equal(t, tc.structured, structured)
		})
	}
}
