package domain

import (
	"maps"
	"slices"
	"time"
)

// AlertInfo is the structured alert that seeds a session.
type AlertInfo struct {
	ID        string         `json:"id" mapstructure:"id"`
	Timestamp string         `json:"timestamp,omitempty" mapstructure:"timestamp"`
	Severity  string         `json:"severity" mapstructure:"severity"`
	Source    string         `json:"source,omitempty" mapstructure:"source"`
	Message   string         `json:"message,omitempty" mapstructure:"message"`
	Metrics   map[string]any `json:"metrics,omitempty" mapstructure:"metrics"`
	Tags      []string       `json:"tags,omitempty" mapstructure:"tags"`
}

func (a AlertInfo) clone() AlertInfo {
	out := a
	out.Tags = slices.Clone(a.Tags)
	out.Metrics = maps.Clone(a.Metrics)
	return out
}

// AnalysisResult is the alert classification produced by process_alert.
type AnalysisResult struct {
	AlertID            string   `json:"alert_id"`
	Category           string   `json:"category"` // network, cpu, memory, disk, application
	Priority           string   `json:"priority"` // critical, high, medium, low
	SeverityScore      float64  `json:"severity_score"`
	CorrelationHints   []string `json:"correlation_hints,omitempty"`
	RecommendedActions []string `json:"recommended_actions,omitempty"`
}

// DiagnosticResult is the root-cause diagnosis produced by diagnose_issue.
type DiagnosticResult struct {
	IncidentID           string   `json:"incident_id"`
	RootCause            string   `json:"root_cause"`
	ConfidenceScore      float64  `json:"confidence_score"` // 0..1
	ImpactAssessment     string   `json:"impact_assessment,omitempty"`
	AffectedComponents   []string `json:"affected_components,omitempty"`
	Evidence             []string `json:"evidence,omitempty"`
	RecoveryTimeEstimate string   `json:"recovery_time_estimate,omitempty"`
}

// ActionStep is a single remediation action inside a plan.
type ActionStep struct {
	ID              string `json:"id"`
	ActionType      string `json:"action_type"` // restart_service, scale_resources, update_config, rollback, investigation, notification
	Description     string `json:"description"`
	Command         string `json:"command,omitempty"`
	TimeoutSeconds  int    `json:"timeout_seconds,omitempty"`
	RollbackCommand string `json:"rollback_command,omitempty"`
	RiskLevel       string `json:"risk_level,omitempty"` // low, medium, high, critical
}

// ActionPlan is the remediation plan produced by plan_actions.
type ActionPlan struct {
	ID               string       `json:"id"`
	IncidentID       string       `json:"incident_id"`
	RiskLevel        string       `json:"risk_level"`
	EstimatedMinutes int          `json:"estimated_minutes"`
	ApprovalRequired bool         `json:"approval_required"`
	Steps            []ActionStep `json:"steps"`
	RollbackPlan     []ActionStep `json:"rollback_plan,omitempty"`
	PreChecks        []string     `json:"pre_checks,omitempty"`
	PostChecks       []string     `json:"post_checks,omitempty"`
}

// StepOutcome records the result of one executed plan step.
type StepOutcome struct {
	StepID string `json:"step_id"`
	Status string `json:"status"` // success, failed, skipped
	Output string `json:"output,omitempty"`
}

// Execution statuses.
const (
	ExecutionSuccess  = "success"
	ExecutionFailed   = "failed"
	ExecutionPartial  = "partial"
	ExecutionRejected = "rejected" // operator rejected the approval prompt
)

// ExecutionResult is the outcome of execute_actions.
type ExecutionResult struct {
	PlanID           string        `json:"plan_id"`
	Status           string        `json:"status"`
	Outcomes         []StepOutcome `json:"outcomes,omitempty"`
	RollbackExecuted bool          `json:"rollback_executed,omitempty"`
	StartedAt        time.Time     `json:"started_at"`
	FinishedAt       time.Time     `json:"finished_at"`
}

// ReportSection is one named section of the final report.
type ReportSection struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// TimelineEntry is one event in the report timeline.
type TimelineEntry struct {
	Time  time.Time `json:"time"`
	Event string    `json:"event"`
}

// Report is the final incident report produced by generate_report.
// Degraded marks reports generated after a step exhausted its retries,
// meaning some result fields may be missing.
type Report struct {
	IncidentID  string          `json:"incident_id"`
	Title       string          `json:"title"`
	Summary     string          `json:"summary"`
	Sections    []ReportSection `json:"sections,omitempty"`
	Timeline    []TimelineEntry `json:"timeline,omitempty"`
	Degraded    bool            `json:"degraded,omitempty"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// Extraction is the structured output of the text extractor: the subset
// of state fields it recognized in free text, with an overall confidence.
type Extraction struct {
	AlertInfo  *AlertInfo     `json:"alert_info,omitempty"`
	Symptoms   []string       `json:"symptoms,omitempty"`
	Context    map[string]any `json:"context,omitempty"`
	Confidence float64        `json:"confidence"`
}

// Empty reports whether the extraction carries no structured fields.
func (e Extraction) Empty() bool {
	return e.AlertInfo == nil && len(e.Symptoms) == 0 && len(e.Context) == 0
}
