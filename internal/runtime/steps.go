package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/remedyhq/remedy/pkg/domain"
	"github.com/remedyhq/remedy/pkg/ports"
)

// Business steps. Each step validates its preconditions, calls its
// adapter through the bounded gate, and confines every side effect to
// the returned partial update. A step never transitions to another step:
// control always returns to the router.

func (e *Engine) processAlert(ctx context.Context, st *domain.State) domain.StepResult {
	if st.AlertInfo == nil {
		return e.missingPrecondition(domain.StepProcessAlert, "structured alert details")
	}

	var analysis *domain.AnalysisResult
	err := e.invoke(ctx, "classifier", func(c context.Context) error {
		var aerr error
		analysis, aerr = e.adapters.Classifier.Classify(c, *st.AlertInfo)
		return aerr
	})
	if err != nil {
		return e.adapterFailure(domain.StepProcessAlert, err)
	}

	return domain.Continue(domain.Update{
		Analysis: analysis,
		Messages: []domain.Message{e.agentMessage(
			fmt.Sprintf("Alert %s classified as %s (%s priority).",
				st.AlertInfo.ID, analysis.Category, analysis.Priority))},
	})
}

func (e *Engine) diagnoseIssue(ctx context.Context, st *domain.State) domain.StepResult {
	if len(st.Symptoms) == 0 && st.AlertInfo == nil {
		return e.missingPrecondition(domain.StepDiagnoseIssue, "symptoms or alert details")
	}

	in := diagnosticInput(st)
	var diag *domain.DiagnosticResult
	err := e.invoke(ctx, "diagnostics", func(c context.Context) error {
		var derr error
		diag, derr = e.adapters.Diagnostics.Diagnose(c, in)
		return derr
	})
	if err != nil {
		return e.adapterFailure(domain.StepDiagnoseIssue, err)
	}

	return domain.Continue(domain.Update{
		Diagnostic: diag,
		Messages: []domain.Message{e.agentMessage(
			fmt.Sprintf("Diagnosis: %s (confidence %.2f).", diag.RootCause, diag.ConfidenceScore))},
	})
}

func (e *Engine) planActions(ctx context.Context, st *domain.State) domain.StepResult {
	if st.DiagnosticResult == nil {
		return e.missingPrecondition(domain.StepPlanActions, "a confirmed diagnosis")
	}

	var plan *domain.ActionPlan
	err := e.invoke(ctx, "planner", func(c context.Context) error {
		var perr error
		plan, perr = e.adapters.Planner.Plan(c, *st.DiagnosticResult, st.Context)
		return perr
	})
	if err != nil {
		return e.adapterFailure(domain.StepPlanActions, err)
	}

	return domain.Continue(domain.Update{
		Plan: plan,
		Messages: []domain.Message{e.agentMessage(
			fmt.Sprintf("Planned %d remediation step(s), risk %s.", len(plan.Steps), plan.RiskLevel))},
	})
}

func (e *Engine) executeActions(ctx context.Context, st *domain.State) domain.StepResult {
	if st.ActionPlan == nil {
		return e.missingPrecondition(domain.StepExecuteActions, "an action plan")
	}
	plan := st.ActionPlan

	if plan.ApprovalRequired {
		decision, _ := st.Context[approvalKey].(string)
		switch decision {
		case approvalGranted:
			// fall through to execution
		case approvalRejected:
			now := e.clock()
			return domain.Continue(domain.Update{
				Execution: &domain.ExecutionResult{
					PlanID:     plan.ID,
					Status:     domain.ExecutionRejected,
					StartedAt:  now,
					FinishedAt: now,
				},
				Messages: []domain.Message{e.agentMessage(
					"Execution rejected by operator; proceeding to report.")},
			})
		default:
			return e.requestApproval(plan)
		}
	}

	var exec *domain.ExecutionResult
	err := e.invoke(ctx, "executor", func(c context.Context) error {
		var xerr error
		exec, xerr = e.adapters.Executor.Execute(c, *plan)
		return xerr
	})
	if err != nil {
		return e.adapterFailure(domain.StepExecuteActions, err)
	}

	return domain.Continue(domain.Update{
		Execution: exec,
		Messages: []domain.Message{e.agentMessage(
			fmt.Sprintf("Execution %s: %d step outcome(s).", exec.Status, len(exec.Outcomes)))},
	})
}

func (e *Engine) generateReport(ctx context.Context, st *domain.State) domain.StepResult {
	var report *domain.Report
	err := e.invoke(ctx, "reporter", func(c context.Context) error {
		var rerr error
		report, rerr = e.adapters.Reporter.Generate(c, *st.Clone())
		return rerr
	})
	if err != nil {
		// The report step is the degradation target for every other
		// step, so it cannot itself stall: once its own retry budget is
		// spent, synthesize a minimal degraded report locally.
		if st.Attempts[domain.StepGenerateReport]+1 >= e.cfg.MaxStepAttempts {
			return domain.Continue(domain.Update{
				Report: e.fallbackReport(st),
				Errors: []domain.ErrorEntry{{
					Kind:    domain.KindAdapterFailure,
					Step:    domain.StepGenerateReport,
					Message: err.Error(),
					Time:    e.clock(),
				}},
			})
		}
		return e.adapterFailure(domain.StepGenerateReport, err)
	}

	report.Degraded = degraded(st)
	return domain.Continue(domain.Update{
		Report: report,
		Messages: []domain.Message{e.agentMessage(
			fmt.Sprintf("Incident report ready: %s", report.Title))},
	})
}

// collectInfo materializes the information requests implied by the
// current state and suspends the session. It performs no adapter call
// itself; resumption (suspend.go) handles the operator's answer.
func (e *Engine) collectInfo(st *domain.State) domain.StepResult {
	update := domain.Update{}
	requests := append([]domain.InfoRequest(nil), st.PendingCollection...)

	if len(requests) == 0 {
		added := e.newRequests(st)
		update.AddPending = added
		requests = added
		if st.DiagnosticResult != nil &&
			st.DiagnosticResult.ConfidenceScore < e.cfg.ConfidenceThreshold {
			yes := true
			update.SetClarification = &yes
		}
	}

	queries := make([]string, len(requests))
	for i, r := range requests {
		queries[i] = r.Query
	}

	prompt := domain.Prompt{
		Query:    strings.Join(queries, "; "),
		Requests: requests,
		Context:  map[string]any{"kind": promptKindCollect},
	}
	return domain.SuspendWith(update, prompt)
}

// newRequests derives what to ask for when nothing is pending yet.
func (e *Engine) newRequests(st *domain.State) []domain.InfoRequest {
	now := e.clock()
	req := func(query, reason string) domain.InfoRequest {
		return domain.InfoRequest{
			ID:        uuid.NewString(),
			Query:     query,
			Origin:    domain.StepCollectInfo,
			Reason:    reason,
			CreatedAt: now,
		}
	}

	if st.DiagnosticResult != nil && st.DiagnosticResult.ConfidenceScore < e.cfg.ConfidenceThreshold {
		return []domain.InfoRequest{req(
			fmt.Sprintf("The diagnosis %q has low confidence (%.2f). Please share any additional symptoms or context.",
				st.DiagnosticResult.RootCause, st.DiagnosticResult.ConfidenceScore),
			"low-confidence diagnosis")}
	}

	var out []domain.InfoRequest
	if st.AlertInfo == nil {
		out = append(out, req("Describe the alert or incident (system, severity, observed behavior).", "no alert details"))
	}
	if len(out) == 0 {
		// Malformed state reached the fail-safe route; ask broadly.
		out = append(out, req("Please provide more details about the incident.", "state incomplete"))
	}
	return out
}

func (e *Engine) requestApproval(plan *domain.ActionPlan) domain.StepResult {
	now := e.clock()
	steps := make([]string, len(plan.Steps))
	for i, s := range plan.Steps {
		steps[i] = fmt.Sprintf("%d. %s", i+1, s.Description)
	}
	req := domain.InfoRequest{
		ID:        uuid.NewString(),
		Query:     fmt.Sprintf("Approve execution of plan %s? (approved/rejected)", plan.ID),
		Origin:    domain.StepExecuteActions,
		Reason:    "execution approval required",
		CreatedAt: now,
	}
	prompt := domain.Prompt{
		Query:    req.Query,
		Requests: []domain.InfoRequest{req},
		Context: map[string]any{
			"kind":       promptKindApproval,
			"plan_id":    plan.ID,
			"risk_level": plan.RiskLevel,
			"steps":      strings.Join(steps, "\n"),
		},
	}
	return domain.SuspendWith(domain.Update{AddPending: []domain.InfoRequest{req}}, prompt)
}

// Shared step helpers.

func (e *Engine) missingPrecondition(step domain.Step, what string) domain.StepResult {
	now := e.clock()
	return domain.Continue(domain.Update{
		Errors: []domain.ErrorEntry{{
			Kind:    domain.KindPreconditionMissing,
			Step:    step,
			Message: fmt.Sprintf("missing %s", what),
			Time:    now,
		}},
		AddPending: []domain.InfoRequest{{
			ID:        uuid.NewString(),
			Query:     fmt.Sprintf("Please provide %s.", what),
			Origin:    step,
			Reason:    "precondition missing",
			CreatedAt: now,
		}},
	})
}

func (e *Engine) adapterFailure(step domain.Step, err error) domain.StepResult {
	return domain.Continue(domain.Update{
		Errors: []domain.ErrorEntry{{
			Kind:    domain.KindAdapterFailure,
			Step:    step,
			Message: err.Error(),
			Time:    e.clock(),
		}},
		FailedAttempt: step,
	})
}

func (e *Engine) agentMessage(content string) domain.Message {
	return domain.Message{Role: domain.RoleAgent, Content: content, Time: e.clock()}
}

// fallbackReport builds the minimal degraded report used when the
// reporter adapter is unavailable.
func (e *Engine) fallbackReport(st *domain.State) *domain.Report {
	incidentID := st.SessionID
	rootCause := "unknown"
	if st.DiagnosticResult != nil {
		incidentID = st.DiagnosticResult.IncidentID
		rootCause = st.DiagnosticResult.RootCause
	}
	return &domain.Report{
		IncidentID:  incidentID,
		Title:       "Incident report (degraded)",
		Summary:     fmt.Sprintf("Report generation degraded. Root cause: %s. %d error(s) recorded.", rootCause, len(st.Errors)),
		Degraded:    true,
		GeneratedAt: e.clock(),
	}
}

// degraded reports whether any upstream result is missing, meaning the
// report was generated on partial data.
func degraded(st *domain.State) bool {
	return st.AnalysisResult == nil && st.AlertInfo != nil ||
		st.DiagnosticResult == nil ||
		st.ActionPlan == nil ||
		st.ExecutionResult == nil
}

func diagnosticInput(st *domain.State) ports.DiagnosticInput {
	return ports.DiagnosticInput{
		Symptoms: st.Symptoms,
		Context:  st.Context,
		Alert:    st.AlertInfo,
		Analysis: st.AnalysisResult,
	}
}
