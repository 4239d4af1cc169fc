package domain

import (
	"context"
	"time"
)

// EventType defines the category of a lifecycle event.
type EventType string

const (
	EventDecision  EventType = "decision"
	EventStepStart EventType = "step_start"
	EventStepEnd   EventType = "step_end"
	EventSuspend   EventType = "suspend"
	EventResume    EventType = "resume"
	EventTerminal  EventType = "terminal"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// DecisionEvent reports one router verdict.
type DecisionEvent struct {
	EventBase
	Decision Decision `json:"decision"`
	Cycle    int      `json:"cycle"`
}

// StepEvent reports entry to or exit from a business step.
type StepEvent struct {
	EventBase
	Step     Step          `json:"step"`
	Duration time.Duration `json:"duration,omitempty"` // set on step_end
	Failed   bool          `json:"failed,omitempty"`
}

// SuspendEvent reports a suspension or a resume.
type SuspendEvent struct {
	EventBase
	Token    string `json:"token"`
	Attempts int    `json:"attempts"`
}

// TerminalEvent reports session completion.
type TerminalEvent struct {
	EventBase
	Reason TerminalReason `json:"reason"`
}

// LifecycleHooks defines callbacks for engine observability. Any field
// may be nil. Hooks run synchronously on the session's goroutine and
// must not block.
type LifecycleHooks struct {
	OnDecision  func(context.Context, *DecisionEvent)
	OnStepStart func(context.Context, *StepEvent)
	OnStepEnd   func(context.Context, *StepEvent)
	OnSuspend   func(context.Context, *SuspendEvent)
	OnResume    func(context.Context, *SuspendEvent)
	OnTerminal  func(context.Context, *TerminalEvent)
}
