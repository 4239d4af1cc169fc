package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrTokenNotFound is returned when a resumption token has no matching checkpoint.
var ErrTokenNotFound = errors.New("resumption token not found")

// ErrSessionTerminated is returned when an operation targets a session
// that already reached the terminal state.
var ErrSessionTerminated = errors.New("session already terminated")

// ErrNotWaiting is returned when resuming a session that is not suspended.
var ErrNotWaiting = errors.New("session is not waiting for input")

// ErrFieldNotOwned is returned by Merge when a step writes a result
// field owned by another step.
var ErrFieldNotOwned = errors.New("step does not own result field")

// ErrInvalidResumeInput is returned when a resume payload cannot be
// interpreted for the prompt that suspended the session.
var ErrInvalidResumeInput = errors.New("invalid resume input")

// ErrSessionExists is returned when starting a session whose ID is
// already in use.
var ErrSessionExists = errors.New("session already exists")

// ErrInvalidSeed is returned when a structured start payload cannot be
// decoded into seed fields.
var ErrInvalidSeed = errors.New("invalid seed payload")

// ErrorKind classifies an error entry on the State Record.
type ErrorKind string

const (
	KindPreconditionMissing ErrorKind = "precondition_missing"
	KindAdapterFailure      ErrorKind = "adapter_failure"
	KindSuspensionExhausted ErrorKind = "suspension_exhausted"
	KindCycleLimitExceeded  ErrorKind = "cycle_limit_exceeded"
	KindInvalidInput        ErrorKind = "invalid_input"
)

// ErrorEntry is one structured error accumulated on the State Record.
// Entries are append-only; none are ever dropped.
type ErrorEntry struct {
	Kind    ErrorKind `json:"kind"`
	Step    Step      `json:"step,omitempty"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// AdapterError is the typed failure reported by reasoning adapters, so
// the owning step can record it without unwrapping transport details.
type AdapterError struct {
	Adapter string
	Err     error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("adapter %s: %v", e.Adapter, e.Err)
}

func (e *AdapterError) Unwrap() error { return e.Err }

// NewAdapterError wraps err as a typed adapter failure.
func NewAdapterError(adapter string, err error) *AdapterError {
	return &AdapterError{Adapter: adapter, Err: err}
}
