package remedy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/remedyhq/remedy/internal/logging"
	"github.com/remedyhq/remedy/internal/runtime"
	"github.com/remedyhq/remedy/pkg/domain"
	"github.com/remedyhq/remedy/pkg/ports"
	"github.com/remedyhq/remedy/pkg/session"
)

// Version is the library version, overridable at build time.
var Version = "0.1.0"

// Config re-exports the engine tunables.
type Config = runtime.Config

// DefaultConfig returns the documented engine defaults.
func DefaultConfig() Config { return runtime.DefaultConfig() }

// Engine is the high-level entry point for the library. It wires the
// internal runtime to a checkpoint store and serializes access per
// session, so concurrent callers never advance the same incident twice.
type Engine struct {
	runtime  *runtime.Engine
	sessions *session.Manager
	hooks    domain.LifecycleHooks
	cfg      Config
	logger   *slog.Logger
	locker   ports.DistributedLocker
	clock    func() time.Time
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithConfig replaces the default engine tunables.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLocker enables distributed session locking (multi-replica deployments).
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithClock overrides the time source (tests).
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// New initializes an Engine over the given checkpoint store and
// reasoning adapters. All adapter slots must be filled.
func New(store ports.CheckpointStore, adapters ports.AdapterSet, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("checkpoint store is required")
	}
	if !adapters.Complete() {
		return nil, fmt.Errorf("adapter set is incomplete: all six reasoning adapters are required")
	}

	eng := &Engine{
		cfg:    runtime.DefaultConfig(),
		logger: logging.NewNop(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(eng)
	}

	eng.runtime = runtime.NewEngine(adapters,
		runtime.WithConfig(eng.cfg),
		runtime.WithHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
		runtime.WithClock(eng.clock),
	)

	sessionOpts := []session.Option{session.WithLogger(eng.logger)}
	if eng.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(eng.locker))
	}
	eng.sessions = session.NewManager(store, sessionOpts...)

	return eng, nil
}

// Waiting describes a suspended session: the resumption token and the
// prompt the engine needs answered.
type Waiting struct {
	Token  string        `json:"token"`
	Prompt domain.Prompt `json:"prompt"`
}

// Result is the outcome of starting or resuming a session. Waiting is
// nil when the session reached terminal.
type Result struct {
	State   *domain.State `json:"state"`
	Waiting *Waiting      `json:"waiting,omitempty"`
}

// StartText opens a new session from a free-text incident description.
// The text is run through the extractor before the first routing cycle.
func (e *Engine) StartText(ctx context.Context, sessionID, text string) (*Result, error) {
	return e.start(ctx, sessionID, func(st *domain.State) error {
		return e.runtime.Ingest(ctx, st, text)
	})
}

// StartSeed opens a new session from a partial structured record, e.g. a
// webhook payload with alert_info and symptoms. Unknown fields are
// rejected.
func (e *Engine) StartSeed(ctx context.Context, sessionID string, raw map[string]any) (*Result, error) {
	seed, err := domain.DecodeSeed(raw)
	if err != nil {
		return nil, err
	}
	return e.start(ctx, sessionID, func(st *domain.State) error {
		seed.Apply(st, e.clock())
		return nil
	})
}

func (e *Engine) start(ctx context.Context, sessionID string, init func(*domain.State) error) (*Result, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	var result *Result
	err := e.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		if _, err := e.sessions.Store().Load(ctx, sessionID); err == nil {
			return fmt.Errorf("%w: %s", domain.ErrSessionExists, sessionID)
		} else if !errors.Is(err, domain.ErrSessionNotFound) {
			return err
		}

		st := domain.NewState(sessionID, e.clock())
		if err := init(st); err != nil {
			return err
		}

		run, err := e.runtime.Run(ctx, st)
		if err != nil {
			return err
		}
		result, err = e.persist(ctx, run)
		return err
	})
	return result, err
}

// Resume continues the suspended session identified by the resumption
// token with the operator's input.
func (e *Engine) Resume(ctx context.Context, token string, input any) (*Result, error) {
	cp, err := e.sessions.FindToken(ctx, token)
	if err != nil {
		return nil, err
	}

	var result *Result
	err = e.sessions.WithLock(ctx, cp.SessionID, func(ctx context.Context) error {
		// Re-load under the lock: the token may have been consumed by a
		// concurrent resume.
		cp, err := e.sessions.Store().FindToken(ctx, token)
		if err != nil {
			return err
		}

		run, err := e.runtime.Resume(ctx, cp, input)
		if err != nil {
			return err
		}
		result, err = e.persist(ctx, run)
		return err
	})
	return result, err
}

// persist checkpoints a run outcome, minting a resumption token when the
// session suspended. Must be called with the session lock held.
func (e *Engine) persist(ctx context.Context, run *runtime.RunResult) (*Result, error) {
	cp := &domain.Checkpoint{
		SessionID: run.State.SessionID,
		State:     run.State,
		CreatedAt: e.clock(),
	}
	result := &Result{State: run.State}

	if run.Prompt != nil {
		cp.Token = uuid.NewString()
		cp.Prompt = run.Prompt
		result.Waiting = &Waiting{Token: cp.Token, Prompt: *run.Prompt}

		if e.hooks.OnSuspend != nil {
			e.hooks.OnSuspend(ctx, &domain.SuspendEvent{
				EventBase: domain.EventBase{
					Timestamp: e.clock(),
					Type:      domain.EventSuspend,
					SessionID: run.State.SessionID,
				},
				Token:    cp.Token,
				Attempts: run.State.CollectionAttempts,
			})
		}
	}

	if err := e.sessions.Store().Save(ctx, cp.SessionID, cp); err != nil {
		return nil, fmt.Errorf("failed to checkpoint session: %w", err)
	}
	return result, nil
}

// Get returns the current state of a session.
func (e *Engine) Get(ctx context.Context, sessionID string) (*domain.State, error) {
	cp, err := e.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return cp.State, nil
}

// Prompt returns the open prompt of a suspended session, or nil.
func (e *Engine) Prompt(ctx context.Context, sessionID string) (*Waiting, error) {
	cp, err := e.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if cp.Token == "" || cp.Prompt == nil {
		return nil, nil
	}
	return &Waiting{Token: cp.Token, Prompt: *cp.Prompt}, nil
}

// Cancel terminates a session. In-flight external effects are not rolled
// back; the record is closed as cancelled and kept for audit.
func (e *Engine) Cancel(ctx context.Context, sessionID string) (*domain.State, error) {
	var state *domain.State
	err := e.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		cp, err := e.sessions.Store().Load(ctx, sessionID)
		if err != nil {
			return err
		}
		if cp.State.Terminated() {
			return domain.ErrSessionTerminated
		}

		cp.State.Terminate(domain.ReasonCancelled, e.clock())
		cp.Token = ""
		cp.Prompt = nil
		if e.hooks.OnTerminal != nil {
			e.hooks.OnTerminal(ctx, &domain.TerminalEvent{
				EventBase: domain.EventBase{
					Timestamp: e.clock(),
					Type:      domain.EventTerminal,
					SessionID: sessionID,
				},
				Reason: domain.ReasonCancelled,
			})
		}

		if err := e.sessions.Store().Save(ctx, sessionID, cp); err != nil {
			return err
		}
		state = cp.State
		return nil
	})
	return state, err
}

// Delete removes a session and its checkpoint entirely.
func (e *Engine) Delete(ctx context.Context, sessionID string) error {
	return e.sessions.Delete(ctx, sessionID)
}

// List returns compact summaries of all stored sessions.
func (e *Engine) List(ctx context.Context) ([]map[string]any, error) {
	ids, err := e.sessions.List(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		cp, err := e.sessions.Store().Load(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrSessionNotFound) {
				continue // deleted between List and Load
			}
			return nil, err
		}
		summaries = append(summaries, cp.State.Summary())
	}
	return summaries, nil
}

// Config returns the effective engine tunables.
func (e *Engine) Config() Config {
	return e.runtime.Config()
}
