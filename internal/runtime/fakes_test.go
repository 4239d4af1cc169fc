package runtime

import (
	"context"
	"errors"
	"time"

	"github.com/remedyhq/remedy/pkg/domain"
	"github.com/remedyhq/remedy/pkg/ports"
)

// Function-backed adapter stubs. Each records how often it was called so
// tests can assert the step sequence.

type stubAdapters struct {
	classify func(domain.AlertInfo) (*domain.AnalysisResult, error)
	diagnose func(ports.DiagnosticInput) (*domain.DiagnosticResult, error)
	plan     func(domain.DiagnosticResult) (*domain.ActionPlan, error)
	execute  func(domain.ActionPlan) (*domain.ExecutionResult, error)
	report   func(domain.State) (*domain.Report, error)
	extract  func(string) (*domain.Extraction, error)

	calls []string
}

func (s *stubAdapters) Classify(_ context.Context, a domain.AlertInfo) (*domain.AnalysisResult, error) {
	s.calls = append(s.calls, "classify")
	if s.classify != nil {
		return s.classify(a)
	}
	return &domain.AnalysisResult{AlertID: a.ID, Category: "cpu", Priority: "high", SeverityScore: 0.8}, nil
}

func (s *stubAdapters) Diagnose(_ context.Context, in ports.DiagnosticInput) (*domain.DiagnosticResult, error) {
	s.calls = append(s.calls, "diagnose")
	if s.diagnose != nil {
		return s.diagnose(in)
	}
	return &domain.DiagnosticResult{IncidentID: "inc-1", RootCause: "runaway worker", ConfidenceScore: 0.9}, nil
}

func (s *stubAdapters) Plan(_ context.Context, d domain.DiagnosticResult, _ map[string]any) (*domain.ActionPlan, error) {
	s.calls = append(s.calls, "plan")
	if s.plan != nil {
		return s.plan(d)
	}
	return &domain.ActionPlan{
		ID:         "plan-1",
		IncidentID: d.IncidentID,
		RiskLevel:  "low",
		Steps:      []domain.ActionStep{{ID: "s1", ActionType: "restart_service", Description: "restart worker"}},
	}, nil
}

func (s *stubAdapters) Execute(_ context.Context, p domain.ActionPlan) (*domain.ExecutionResult, error) {
	s.calls = append(s.calls, "execute")
	if s.execute != nil {
		return s.execute(p)
	}
	return &domain.ExecutionResult{
		PlanID:   p.ID,
		Status:   domain.ExecutionSuccess,
		Outcomes: []domain.StepOutcome{{StepID: "s1", Status: "success"}},
	}, nil
}

func (s *stubAdapters) Generate(_ context.Context, st domain.State) (*domain.Report, error) {
	s.calls = append(s.calls, "report")
	if s.report != nil {
		return s.report(st)
	}
	return &domain.Report{IncidentID: "inc-1", Title: "Incident inc-1", Summary: "resolved"}, nil
}

func (s *stubAdapters) Extract(_ context.Context, text string) (*domain.Extraction, error) {
	s.calls = append(s.calls, "extract")
	if s.extract != nil {
		return s.extract(text)
	}
	return &domain.Extraction{}, nil
}

func (s *stubAdapters) set() ports.AdapterSet {
	return ports.AdapterSet{
		Classifier:  s,
		Diagnostics: s,
		Planner:     s,
		Executor:    s,
		Reporter:    s,
		Extractor:   s,
	}
}

var errBoom = errors.New("boom")

func testState(id string) *domain.State {
	return domain.NewState(id, time.Unix(1700000000, 0).UTC())
}

func alertState(id string) *domain.State {
	st := testState(id)
	st.AlertInfo = &domain.AlertInfo{ID: "alert-1", Severity: "critical", Source: "web-1", Message: "cpu 98%"}
	return st
}
