package rules

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/remedyhq/remedy/pkg/domain"
)

// Reporter renders the final incident report from the session record.
type Reporter struct {
	clock func() time.Time
}

// NewReporter creates the report generator.
func NewReporter() *Reporter {
	return &Reporter{clock: time.Now}
}

// Generate implements ports.ReportGenerator.
func (r *Reporter) Generate(_ context.Context, state domain.State) (*domain.Report, error) {
	incidentID := state.SessionID
	if state.DiagnosticResult != nil {
		incidentID = state.DiagnosticResult.IncidentID
	}

	report := &domain.Report{
		IncidentID:  incidentID,
		Title:       title(state),
		Summary:     summary(state),
		Sections:    sections(state),
		Timeline:    timeline(state),
		GeneratedAt: r.clock(),
	}
	return report, nil
}

func title(state domain.State) string {
	if state.AlertInfo != nil && state.AlertInfo.Message != "" {
		return "Incident report: " + state.AlertInfo.Message
	}
	if state.DiagnosticResult != nil {
		return "Incident report: " + state.DiagnosticResult.RootCause
	}
	return "Incident report"
}

func summary(state domain.State) string {
	var parts []string
	if state.DiagnosticResult != nil {
		parts = append(parts, fmt.Sprintf("Root cause: %s (confidence %.0f%%).",
			state.DiagnosticResult.RootCause, state.DiagnosticResult.ConfidenceScore*100))
	}
	if state.ExecutionResult != nil {
		parts = append(parts, fmt.Sprintf("Remediation finished with status %q.", state.ExecutionResult.Status))
	}
	if len(state.Errors) > 0 {
		parts = append(parts, fmt.Sprintf("%d error(s) occurred during handling.", len(state.Errors)))
	}
	if len(parts) == 0 {
		parts = append(parts, "Session closed without a confirmed diagnosis.")
	}
	return strings.Join(parts, " ")
}

func sections(state domain.State) []domain.ReportSection {
	var out []domain.ReportSection

	if state.AlertInfo != nil {
		out = append(out, domain.ReportSection{
			Title: "Alert",
			Body: fmt.Sprintf("ID %s, severity %s, source %s: %s",
				state.AlertInfo.ID, state.AlertInfo.Severity, state.AlertInfo.Source, state.AlertInfo.Message),
		})
	}
	if len(state.Symptoms) > 0 {
		out = append(out, domain.ReportSection{
			Title: "Symptoms",
			Body:  "- " + strings.Join(state.Symptoms, "\n- "),
		})
	}
	if state.AnalysisResult != nil {
		out = append(out, domain.ReportSection{
			Title: "Classification",
			Body: fmt.Sprintf("Category %s, priority %s, severity score %.2f.",
				state.AnalysisResult.Category, state.AnalysisResult.Priority, state.AnalysisResult.SeverityScore),
		})
	}
	if state.DiagnosticResult != nil {
		body := fmt.Sprintf("Root cause: %s.\nImpact: %s.",
			state.DiagnosticResult.RootCause, state.DiagnosticResult.ImpactAssessment)
		if len(state.DiagnosticResult.Evidence) > 0 {
			body += "\nEvidence:\n- " + strings.Join(state.DiagnosticResult.Evidence, "\n- ")
		}
		out = append(out, domain.ReportSection{Title: "Diagnosis", Body: body})
	}
	if state.ActionPlan != nil {
		lines := make([]string, 0, len(state.ActionPlan.Steps))
		for i, s := range state.ActionPlan.Steps {
			lines = append(lines, fmt.Sprintf("%d. [%s] %s", i+1, s.ActionType, s.Description))
		}
		out = append(out, domain.ReportSection{
			Title: "Remediation plan",
			Body:  strings.Join(lines, "\n"),
		})
	}
	if state.ExecutionResult != nil {
		lines := make([]string, 0, len(state.ExecutionResult.Outcomes))
		for _, o := range state.ExecutionResult.Outcomes {
			lines = append(lines, fmt.Sprintf("%s: %s (%s)", o.StepID, o.Status, o.Output))
		}
		body := "Status: " + state.ExecutionResult.Status
		if len(lines) > 0 {
			body += "\n" + strings.Join(lines, "\n")
		}
		out = append(out, domain.ReportSection{Title: "Execution", Body: body})
	}
	if len(state.Errors) > 0 {
		lines := make([]string, 0, len(state.Errors))
		for _, e := range state.Errors {
			lines = append(lines, fmt.Sprintf("[%s] %s: %s", e.Kind, e.Step, e.Message))
		}
		out = append(out, domain.ReportSection{
			Title: "Errors",
			Body:  strings.Join(lines, "\n"),
		})
	}
	return out
}

func timeline(state domain.State) []domain.TimelineEntry {
	var out []domain.TimelineEntry
	out = append(out, domain.TimelineEntry{Time: state.CreatedAt, Event: "session opened"})
	for _, m := range state.Conversation {
		out = append(out, domain.TimelineEntry{
			Time:  m.Time,
			Event: fmt.Sprintf("%s: %s", m.Role, m.Content),
		})
	}
	return out
}
