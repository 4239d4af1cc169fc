package ports

import (
	"context"

	"github.com/remedyhq/remedy/pkg/domain"
)

// Reasoning adapters are the pluggable external collaborators consumed
// by the business steps. The engine calls every adapter with a bounded
// timeout (via context) and expects failures as typed errors
// (domain.AdapterError), never panics. How an adapter produces its
// answer - LLM, rules, or a human behind an API - is out of scope here.

// AlertClassifier categorizes a structured alert.
type AlertClassifier interface {
	Classify(ctx context.Context, alert domain.AlertInfo) (*domain.AnalysisResult, error)
}

// DiagnosticInput aggregates everything the diagnostic engine may use.
// AlertInfo and Analysis are optional.
type DiagnosticInput struct {
	Symptoms []string
	Context  map[string]any
	Alert    *domain.AlertInfo
	Analysis *domain.AnalysisResult
}

// DiagnosticEngine produces a root-cause diagnosis with a confidence
// score in [0,1].
type DiagnosticEngine interface {
	Diagnose(ctx context.Context, in DiagnosticInput) (*domain.DiagnosticResult, error)
}

// ActionPlanner turns a diagnosis into a remediation plan.
type ActionPlanner interface {
	Plan(ctx context.Context, diag domain.DiagnosticResult, ctxData map[string]any) (*domain.ActionPlan, error)
}

// ExecutionBackend carries out an action plan and reports per-step
// outcomes. Side effects it performs are not rolled back on session
// cancellation.
type ExecutionBackend interface {
	Execute(ctx context.Context, plan domain.ActionPlan) (*domain.ExecutionResult, error)
}

// ReportGenerator renders the final incident report from the aggregate
// session state.
type ReportGenerator interface {
	Generate(ctx context.Context, state domain.State) (*domain.Report, error)
}

// TextExtractor pulls structured fields out of free text (seed input or
// operator replies). A low-confidence or empty extraction is not an
// error: it simply yields no fields.
type TextExtractor interface {
	Extract(ctx context.Context, text string) (*domain.Extraction, error)
}

// AdapterSet bundles one implementation of every reasoning adapter, as
// consumed by the engine. All fields are required.
type AdapterSet struct {
	Classifier  AlertClassifier
	Diagnostics DiagnosticEngine
	Planner     ActionPlanner
	Executor    ExecutionBackend
	Reporter    ReportGenerator
	Extractor   TextExtractor
}

// Complete reports whether every adapter slot is filled.
func (a AdapterSet) Complete() bool {
	return a.Classifier != nil && a.Diagnostics != nil && a.Planner != nil &&
		a.Executor != nil && a.Reporter != nil && a.Extractor != nil
}
