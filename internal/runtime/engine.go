package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/remedyhq/remedy/pkg/domain"
	"github.com/remedyhq/remedy/pkg/ports"
)

// Config holds the engine tunables. The zero value is not usable; start
// from DefaultConfig.
type Config struct {
	// ConfidenceThreshold is the diagnosis confidence below which the
	// router consults the operator.
	ConfidenceThreshold float64

	// MaxCycles is the hard iteration cap per run slice. The routing
	// policy alone does not guarantee termination under adversarial
	// inputs, so the engine force-terminates past this bound.
	MaxCycles int

	// MaxStepAttempts bounds adapter retries per step before the engine
	// degrades to report generation.
	MaxStepAttempts int

	// MaxCollectionAttempts bounds suspend/resume cycles per session.
	MaxCollectionAttempts int

	// AdapterTimeout bounds every reasoning adapter call.
	AdapterTimeout time.Duration

	// MaxAdapterCalls bounds concurrent adapter calls across sessions.
	MaxAdapterCalls int
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold:   0.6,
		MaxCycles:             50,
		MaxStepAttempts:       3,
		MaxCollectionAttempts: 5,
		AdapterTimeout:        30 * time.Second,
		MaxAdapterCalls:       8,
	}
}

// Engine drives the router->step loop for sessions. It holds no session
// state itself: callers pass the State Record in and get it back, so one
// Engine serves any number of concurrent sessions.
type Engine struct {
	adapters ports.AdapterSet
	cfg      Config
	gate     *gate
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	clock    func() time.Time
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithConfig replaces the default tunables.
func WithConfig(cfg Config) EngineOption {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// WithHooks registers lifecycle hooks.
func WithHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock overrides the time source (tests).
func WithClock(clock func() time.Time) EngineOption {
	return func(e *Engine) {
		e.clock = clock
	}
}

// NewEngine creates an engine over the given adapter set.
func NewEngine(adapters ports.AdapterSet, opts ...EngineOption) *Engine {
	e := &Engine{
		adapters: adapters,
		cfg:      DefaultConfig(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.gate = newGate(e.cfg.MaxAdapterCalls, e.cfg.AdapterTimeout)
	return e
}

// Config returns the effective tunables.
func (e *Engine) Config() Config {
	return e.cfg
}

// RunResult is the outcome of one run slice: either the session reached
// terminal (Prompt nil) or it suspended with a prompt awaiting input.
type RunResult struct {
	State  *domain.State
	Prompt *domain.Prompt
}

// Run advances the session until terminal or suspension. The state is
// mutated in place; updates are applied atomically at step-return
// boundaries, so no partial state is ever observable.
func (e *Engine) Run(ctx context.Context, st *domain.State) (*RunResult, error) {
	if st.Terminated() {
		return nil, domain.ErrSessionTerminated
	}
	st.Status = domain.StatusActive

	for cycle := 1; ; cycle++ {
		if cycle > e.cfg.MaxCycles {
			// Engine-level fault, distinct from step errors: the loop
			// did not converge within the bound.
			e.recordError(st, domain.ErrorEntry{
				Kind:    domain.KindCycleLimitExceeded,
				Message: fmt.Sprintf("engine aborted after %d cycles", e.cfg.MaxCycles),
				Time:    e.clock(),
			})
			e.terminate(ctx, st, domain.ReasonCycleLimitExceeded)
			return &RunResult{State: st}, nil
		}

		decision := Decide(st, e.cfg.ConfidenceThreshold)
		if st.Report != nil && decision.NextStep != domain.StepTerminal {
			// A degraded run can hold a report while earlier result
			// fields are still missing, which would match an earlier
			// routing rule forever. The report is final either way.
			decision = domain.Decision{
				NextStep:   domain.StepTerminal,
				Rationale:  "report already generated",
				Confidence: 1.0,
			}
		}
		e.fireDecision(ctx, st, decision, cycle)
		e.logger.Debug("router decision",
			"session_id", st.SessionID,
			"cycle", cycle,
			"next_step", decision.NextStep,
			"rationale", decision.Rationale,
		)

		if decision.NextStep == domain.StepTerminal {
			e.terminate(ctx, st, domain.ReasonCompleted)
			return &RunResult{State: st}, nil
		}

		step := decision.NextStep
		if e.exhausted(st, step) {
			// Retry budget spent: degrade to reporting instead of
			// stalling on a step that keeps failing.
			e.logger.Warn("step attempts exhausted, degrading to report",
				"session_id", st.SessionID,
				"step", step,
				"attempts", st.Attempts[step],
			)
			step = domain.StepGenerateReport
		}

		result := e.runStep(ctx, step, st)

		if err := domain.Merge(st, step, result.Update, e.clock()); err != nil {
			return nil, fmt.Errorf("merge %s output: %w", step, err)
		}

		if result.Suspend != nil {
			if st.CollectionAttempts >= e.cfg.MaxCollectionAttempts {
				e.recordError(st, domain.ErrorEntry{
					Kind: domain.KindSuspensionExhausted,
					Step: step,
					Message: fmt.Sprintf("information collection abandoned after %d attempts",
						st.CollectionAttempts),
					Time: e.clock(),
				})
				e.terminate(ctx, st, domain.ReasonCollectionExhausted)
				return &RunResult{State: st}, nil
			}
			st.Status = domain.StatusWaiting
			st.UpdatedAt = e.clock()
			return &RunResult{State: st, Prompt: result.Suspend}, nil
		}
	}
}

// exhausted reports whether the step's retry budget is spent while its
// owned result is still missing. collect_info and generate_report are
// excluded: the former is bounded by the collection cap, the latter is
// the degradation target itself.
func (e *Engine) exhausted(st *domain.State, step domain.Step) bool {
	if step == domain.StepCollectInfo || step == domain.StepGenerateReport {
		return false
	}
	return st.Attempts[step] >= e.cfg.MaxStepAttempts
}

func (e *Engine) runStep(ctx context.Context, step domain.Step, st *domain.State) domain.StepResult {
	started := e.clock()
	e.fireStepStart(ctx, st, step)

	var result domain.StepResult
	switch step {
	case domain.StepProcessAlert:
		result = e.processAlert(ctx, st)
	case domain.StepDiagnoseIssue:
		result = e.diagnoseIssue(ctx, st)
	case domain.StepPlanActions:
		result = e.planActions(ctx, st)
	case domain.StepExecuteActions:
		result = e.executeActions(ctx, st)
	case domain.StepGenerateReport:
		result = e.generateReport(ctx, st)
	case domain.StepCollectInfo:
		result = e.collectInfo(st)
	default:
		// Unknown step from a corrupted decision: fail safe into
		// information collection rather than crashing the loop.
		result = e.collectInfo(st)
	}

	e.fireStepEnd(ctx, st, step, e.clock().Sub(started), result.Update.FailedAttempt != "")
	return result
}

// recordError appends an engine-level error entry directly. Step errors
// flow through Merge; this path is reserved for faults raised by the
// loop itself (cycle limit, suspension exhaustion).
func (e *Engine) recordError(st *domain.State, entry domain.ErrorEntry) {
	st.Errors = append(st.Errors, entry)
}

func (e *Engine) terminate(ctx context.Context, st *domain.State, reason domain.TerminalReason) {
	st.Terminate(reason, e.clock())
	e.fireTerminal(ctx, st, reason)
	e.logger.Info("session terminal",
		"session_id", st.SessionID,
		"reason", reason,
	)
}

// invoke runs an adapter call through the bounded gate, wrapping any
// failure as a typed adapter error.
func (e *Engine) invoke(ctx context.Context, adapter string, fn func(context.Context) error) error {
	err := e.gate.Do(ctx, fn)
	if err == nil {
		return nil
	}
	var ae *domain.AdapterError
	if errors.As(err, &ae) {
		return err
	}
	return domain.NewAdapterError(adapter, err)
}

// Hook dispatch. Hooks are optional and run synchronously.

func (e *Engine) fireDecision(ctx context.Context, st *domain.State, d domain.Decision, cycle int) {
	if e.hooks.OnDecision == nil {
		return
	}
	e.hooks.OnDecision(ctx, &domain.DecisionEvent{
		EventBase: e.eventBase(domain.EventDecision, st),
		Decision:  d,
		Cycle:     cycle,
	})
}

func (e *Engine) fireStepStart(ctx context.Context, st *domain.State, step domain.Step) {
	if e.hooks.OnStepStart == nil {
		return
	}
	e.hooks.OnStepStart(ctx, &domain.StepEvent{
		EventBase: e.eventBase(domain.EventStepStart, st),
		Step:      step,
	})
}

func (e *Engine) fireStepEnd(ctx context.Context, st *domain.State, step domain.Step, d time.Duration, failed bool) {
	if e.hooks.OnStepEnd == nil {
		return
	}
	e.hooks.OnStepEnd(ctx, &domain.StepEvent{
		EventBase: e.eventBase(domain.EventStepEnd, st),
		Step:      step,
		Duration:  d,
		Failed:    failed,
	})
}

func (e *Engine) fireResume(ctx context.Context, st *domain.State, token string) {
	if e.hooks.OnResume == nil {
		return
	}
	e.hooks.OnResume(ctx, &domain.SuspendEvent{
		EventBase: e.eventBase(domain.EventResume, st),
		Token:     token,
		Attempts:  st.CollectionAttempts,
	})
}

func (e *Engine) fireTerminal(ctx context.Context, st *domain.State, reason domain.TerminalReason) {
	if e.hooks.OnTerminal == nil {
		return
	}
	e.hooks.OnTerminal(ctx, &domain.TerminalEvent{
		EventBase: e.eventBase(domain.EventTerminal, st),
		Reason:    reason,
	})
}

func (e *Engine) eventBase(t domain.EventType, st *domain.State) domain.EventBase {
	return domain.EventBase{
		Timestamp: e.clock(),
		Type:      t,
		SessionID: st.SessionID,
	}
}
