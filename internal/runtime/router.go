package runtime

import (
	"fmt"

	"github.com/remedyhq/remedy/pkg/domain"
)

// Decide selects the next step from the current state. It is a pure
// function: same state in, same decision out, no side effects beyond the
// advisory rationale. The priority rules are evaluated in order and the
// first match wins, so routing is fully deterministic.
func Decide(st *domain.State, threshold float64) domain.Decision {
	// 1. Outstanding information requests always win.
	if len(st.PendingCollection) > 0 {
		return domain.Decision{
			NextStep:   domain.StepCollectInfo,
			Rationale:  fmt.Sprintf("%d information request(s) pending", len(st.PendingCollection)),
			Confidence: 1.0,
		}
	}

	// 2. Alert received but not yet classified.
	if st.AlertInfo != nil && st.AnalysisResult == nil {
		return domain.Decision{
			NextStep:   domain.StepProcessAlert,
			Rationale:  "alert present without analysis",
			Confidence: 1.0,
		}
	}

	// 3. Symptoms reported, or alert already classified, but not yet
	// diagnosed. A classified alert alone is enough evidence to diagnose;
	// symptoms are not required.
	if (len(st.Symptoms) > 0 || st.AnalysisResult != nil) && st.DiagnosticResult == nil {
		return domain.Decision{
			NextStep:   domain.StepDiagnoseIssue,
			Rationale:  "symptoms or analysis present without diagnosis",
			Confidence: 1.0,
		}
	}

	// 4. Low-confidence diagnosis: consult the operator once per
	// diagnosis. The collect_info step materializes the request; the
	// router only routes.
	if st.DiagnosticResult != nil && st.DiagnosticResult.ConfidenceScore < threshold {
		if !st.ClarificationRequested {
			return domain.Decision{
				NextStep: domain.StepCollectInfo,
				Rationale: fmt.Sprintf("diagnosis confidence %.2f below threshold %.2f",
					st.DiagnosticResult.ConfidenceScore, threshold),
				Confidence: 1.0,
			}
		}
		// Clarification already collected: re-run the diagnosis with
		// the extra information. Only re-execution of the owning step
		// may overwrite the result.
		return domain.Decision{
			NextStep:   domain.StepDiagnoseIssue,
			Rationale:  "re-diagnosing with collected clarification",
			Confidence: 0.9,
		}
	}

	// 5-7. Pipeline order: diagnose -> plan -> execute -> report.
	if st.DiagnosticResult != nil && st.ActionPlan == nil {
		return domain.Decision{
			NextStep:   domain.StepPlanActions,
			Rationale:  "diagnosis confirmed without action plan",
			Confidence: 1.0,
		}
	}
	if st.ActionPlan != nil && st.ExecutionResult == nil {
		return domain.Decision{
			NextStep:   domain.StepExecuteActions,
			Rationale:  "action plan ready for execution",
			Confidence: 1.0,
		}
	}
	if st.ExecutionResult != nil && st.Report == nil {
		return domain.Decision{
			NextStep:   domain.StepGenerateReport,
			Rationale:  "execution finished without report",
			Confidence: 1.0,
		}
	}

	// 8. Report present: nothing left to do.
	if st.Report != nil {
		return domain.Decision{
			NextStep:   domain.StepTerminal,
			Rationale:  "report generated",
			Confidence: 1.0,
		}
	}

	// 9. Fail-safe: nothing matched (empty or malformed state). Ask for
	// information instead of failing.
	return domain.Decision{
		NextStep:   domain.StepCollectInfo,
		Rationale:  "no routable data in state",
		Confidence: 0.5,
	}
}
