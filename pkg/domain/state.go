package domain

import (
	"maps"
	"slices"
	"time"
)

// Status defines the current mode of a session.
type Status string

const (
	StatusActive     Status = "active"     // Normal operation
	StatusWaiting    Status = "waiting"    // Suspended, waiting for operator input
	StatusTerminated Status = "terminated" // Terminal state reached
)

// TerminalReason explains why a session reached the terminal state.
type TerminalReason string

const (
	ReasonCompleted           TerminalReason = "completed"
	ReasonCollectionExhausted TerminalReason = "collection_exhausted"
	ReasonCycleLimitExceeded  TerminalReason = "cycle_limit_exceeded"
	ReasonCancelled           TerminalReason = "cancelled"
)

// InfoRequest describes one piece of information the engine is waiting on.
type InfoRequest struct {
	ID        string    `json:"id"`
	Query     string    `json:"query"`
	Origin    Step      `json:"origin"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// State represents the full record of one incident-handling session.
// It is mutated exclusively by Merge, one step output at a time.
type State struct {
	SessionID string `json:"session_id"`
	Status    Status `json:"status"`

	// Conversation is append-only. No entry is ever removed.
	Conversation []Message `json:"conversation"`

	// Seed/collected inputs.
	AlertInfo *AlertInfo     `json:"alert_info,omitempty"`
	Symptoms  []string       `json:"symptoms,omitempty"`
	Context   map[string]any `json:"context,omitempty"`

	// Owned result fields, each written by exactly one step.
	AnalysisResult   *AnalysisResult   `json:"analysis_result,omitempty"`
	DiagnosticResult *DiagnosticResult `json:"diagnostic_result,omitempty"`
	ActionPlan       *ActionPlan       `json:"action_plan,omitempty"`
	ExecutionResult  *ExecutionResult  `json:"execution_result,omitempty"`
	Report           *Report           `json:"report,omitempty"`

	// Errors is append-only. No entry is ever removed.
	Errors []ErrorEntry `json:"errors,omitempty"`

	// PendingCollection lists information requests awaiting operator input.
	PendingCollection []InfoRequest `json:"pending_collection,omitempty"`

	// ClarificationRequested marks that a low-confidence diagnosis has
	// already triggered an information request. It is cleared whenever
	// the diagnose step overwrites DiagnosticResult.
	ClarificationRequested bool `json:"clarification_requested,omitempty"`

	// Attempts counts failed executions per step, used for retry bounds.
	Attempts map[Step]int `json:"attempts,omitempty"`

	// CollectionAttempts counts suspend/resume cycles, used for the
	// collection-exhaustion guard.
	CollectionAttempts int `json:"collection_attempts"`

	TerminalReason TerminalReason `json:"terminal_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewState creates a clean active state for a session.
func NewState(sessionID string, now time.Time) *State {
	return &State{
		SessionID:    sessionID,
		Status:       StatusActive,
		Conversation: []Message{},
		Attempts:     make(map[Step]int),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Terminated reports whether the session reached a terminal state.
func (s *State) Terminated() bool {
	return s.Status == StatusTerminated
}

// Terminate moves the session into the terminal state. It is a no-op if
// the session is already terminal: a session transitions to terminal
// exactly once.
func (s *State) Terminate(reason TerminalReason, now time.Time) {
	if s.Status == StatusTerminated {
		return
	}
	s.Status = StatusTerminated
	s.TerminalReason = reason
	s.UpdatedAt = now
}

// Clone returns a deep copy of the state. The engine hands clones across
// boundaries so no caller can mutate the record mid-step.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := *s

	out.Conversation = slices.Clone(s.Conversation)
	out.Symptoms = slices.Clone(s.Symptoms)
	out.Errors = slices.Clone(s.Errors)
	out.PendingCollection = slices.Clone(s.PendingCollection)

	out.Context = maps.Clone(s.Context)
	out.Attempts = maps.Clone(s.Attempts)

	if s.AlertInfo != nil {
		ai := s.AlertInfo.clone()
		out.AlertInfo = &ai
	}
	if s.AnalysisResult != nil {
		ar := *s.AnalysisResult
		ar.CorrelationHints = slices.Clone(s.AnalysisResult.CorrelationHints)
		ar.RecommendedActions = slices.Clone(s.AnalysisResult.RecommendedActions)
		out.AnalysisResult = &ar
	}
	if s.DiagnosticResult != nil {
		dr := *s.DiagnosticResult
		dr.AffectedComponents = slices.Clone(s.DiagnosticResult.AffectedComponents)
		dr.Evidence = slices.Clone(s.DiagnosticResult.Evidence)
		out.DiagnosticResult = &dr
	}
	if s.ActionPlan != nil {
		ap := *s.ActionPlan
		ap.Steps = slices.Clone(s.ActionPlan.Steps)
		ap.RollbackPlan = slices.Clone(s.ActionPlan.RollbackPlan)
		ap.PreChecks = slices.Clone(s.ActionPlan.PreChecks)
		ap.PostChecks = slices.Clone(s.ActionPlan.PostChecks)
		out.ActionPlan = &ap
	}
	if s.ExecutionResult != nil {
		er := *s.ExecutionResult
		er.Outcomes = slices.Clone(s.ExecutionResult.Outcomes)
		out.ExecutionResult = &er
	}
	if s.Report != nil {
		rp := *s.Report
		rp.Sections = slices.Clone(s.Report.Sections)
		rp.Timeline = slices.Clone(s.Report.Timeline)
		out.Report = &rp
	}

	return &out
}

// Summary returns a compact progress view of the session, suitable for
// listings and the HTTP API.
func (s *State) Summary() map[string]any {
	return map[string]any{
		"session_id":          s.SessionID,
		"status":              string(s.Status),
		"terminal_reason":     string(s.TerminalReason),
		"has_alert":           s.AlertInfo != nil,
		"has_analysis":        s.AnalysisResult != nil,
		"has_diagnosis":       s.DiagnosticResult != nil,
		"has_plan":            s.ActionPlan != nil,
		"has_execution":       s.ExecutionResult != nil,
		"has_report":          s.Report != nil,
		"pending_requests":    len(s.PendingCollection),
		"collection_attempts": s.CollectionAttempts,
		"error_count":         len(s.Errors),
		"message_count":       len(s.Conversation),
		"updated_at":          s.UpdatedAt,
	}
}
