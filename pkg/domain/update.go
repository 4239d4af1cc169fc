package domain

import (
	"fmt"
	"slices"
	"time"
)

// Update is a step's partial output. Nil pointer fields mean "unchanged";
// list fields are appended, never replaced.
type Update struct {
	Messages []Message

	AlertInfo *AlertInfo
	Symptoms  []string
	Context   map[string]any

	Analysis   *AnalysisResult
	Diagnostic *DiagnosticResult
	Plan       *ActionPlan
	Execution  *ExecutionResult
	Report     *Report

	Errors []ErrorEntry

	// AddPending appends information requests; ResolvePending removes
	// requests by ID (used when resumed input satisfies them).
	AddPending     []InfoRequest
	ResolvePending []string

	// SetClarification, when non-nil, sets State.ClarificationRequested.
	SetClarification *bool

	// FailedAttempt increments the attempt counter for the named step.
	FailedAttempt Step
}

// Empty reports whether the update changes nothing.
func (u Update) Empty() bool {
	return len(u.Messages) == 0 && u.AlertInfo == nil && len(u.Symptoms) == 0 &&
		len(u.Context) == 0 && u.Analysis == nil && u.Diagnostic == nil &&
		u.Plan == nil && u.Execution == nil && u.Report == nil &&
		len(u.Errors) == 0 && len(u.AddPending) == 0 && len(u.ResolvePending) == 0 &&
		u.SetClarification == nil && u.FailedAttempt == ""
}

// Prompt is the payload of a suspension: what the engine needs from the
// operator before the session can continue.
type Prompt struct {
	Query    string         `json:"query"`
	Requests []InfoRequest  `json:"requests,omitempty"`
	Context  map[string]any `json:"context,omitempty"`
}

// StepResult is what a business step returns. Exactly one of the two
// outcomes applies: when Suspend is nil the Update is merged and control
// returns to the router; when Suspend is set the Update is merged first
// and then the session suspends with that prompt.
type StepResult struct {
	Update  Update
	Suspend *Prompt
}

// Continue wraps an update as a normal step result.
func Continue(u Update) StepResult {
	return StepResult{Update: u}
}

// SuspendWith returns a step result that suspends the session after
// merging the given update.
func SuspendWith(u Update, p Prompt) StepResult {
	return StepResult{Update: u, Suspend: &p}
}

// Checkpoint is a suspended (or stored) session: the state, the prompt
// the engine is waiting on, and the token that resumes it. Token and
// Prompt are empty for sessions that are not suspended.
type Checkpoint struct {
	SessionID string    `json:"session_id"`
	Token     string    `json:"token,omitempty"`
	State     *State    `json:"state"`
	Prompt    *Prompt   `json:"prompt,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ownedBy maps each owned result field to the step allowed to write it.
var ownedFields = map[string]Step{
	"analysis_result":   StepProcessAlert,
	"diagnostic_result": StepDiagnoseIssue,
	"action_plan":       StepPlanActions,
	"execution_result":  StepExecuteActions,
	"report":            StepGenerateReport,
}

// Merge applies a step's partial update to the state: field-level
// override for record fields, append/union for list fields, owned-field
// enforcement for results. Step outputs reach the state only through
// Merge; outside it the state is mutated only by seeding, engine-level
// error entries, and Terminate.
//
// Merge fails (leaving state untouched) when the session is terminal or
// when the update writes a result field the step does not own.
func Merge(state *State, step Step, u Update, now time.Time) error {
	if state.Terminated() {
		return ErrSessionTerminated
	}
	if err := checkOwnership(step, u); err != nil {
		return err
	}

	state.Conversation = append(state.Conversation, u.Messages...)
	state.Errors = append(state.Errors, u.Errors...)

	if u.AlertInfo != nil {
		ai := u.AlertInfo.clone()
		state.AlertInfo = &ai
	}
	for _, sym := range u.Symptoms {
		if !slices.Contains(state.Symptoms, sym) {
			state.Symptoms = append(state.Symptoms, sym)
		}
	}
	if len(u.Context) > 0 {
		if state.Context == nil {
			state.Context = make(map[string]any, len(u.Context))
		}
		for k, v := range u.Context {
			state.Context[k] = v
		}
	}

	if u.Analysis != nil {
		state.AnalysisResult = u.Analysis
	}
	if u.Diagnostic != nil {
		state.DiagnosticResult = u.Diagnostic
		// A fresh diagnosis resets the clarification marker so rule 4
		// can fire again for the new result.
		state.ClarificationRequested = false
	}
	if u.Plan != nil {
		state.ActionPlan = u.Plan
	}
	if u.Execution != nil {
		state.ExecutionResult = u.Execution
	}
	if u.Report != nil {
		state.Report = u.Report
	}

	state.PendingCollection = append(state.PendingCollection, u.AddPending...)
	for _, id := range u.ResolvePending {
		state.PendingCollection = removeRequest(state.PendingCollection, id)
	}

	if u.SetClarification != nil {
		state.ClarificationRequested = *u.SetClarification
	}
	if u.FailedAttempt != "" {
		if state.Attempts == nil {
			state.Attempts = make(map[Step]int)
		}
		state.Attempts[u.FailedAttempt]++
	}

	state.UpdatedAt = now
	return nil
}

func checkOwnership(step Step, u Update) error {
	writes := map[string]bool{
		"analysis_result":   u.Analysis != nil,
		"diagnostic_result": u.Diagnostic != nil,
		"action_plan":       u.Plan != nil,
		"execution_result":  u.Execution != nil,
		"report":            u.Report != nil,
	}
	for field, written := range writes {
		if written && ownedFields[field] != step {
			return fmt.Errorf("%w: %s writes %s (owned by %s)",
				ErrFieldNotOwned, step, field, ownedFields[field])
		}
	}
	return nil
}

func removeRequest(reqs []InfoRequest, id string) []InfoRequest {
	out := reqs[:0]
	for _, r := range reqs {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}
