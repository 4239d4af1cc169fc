package rules

import (
	"context"
	"time"

	"github.com/remedyhq/remedy/pkg/domain"
)

// Executor simulates plan execution: every step succeeds and reports a
// canned output. Wire a real execution backend (SSH runner, Kubernetes
// client, runbook automation) in its place for production use.
type Executor struct {
	clock func() time.Time
}

// NewExecutor creates the simulated execution backend.
func NewExecutor() *Executor {
	return &Executor{clock: time.Now}
}

// Execute implements ports.ExecutionBackend.
func (e *Executor) Execute(ctx context.Context, plan domain.ActionPlan) (*domain.ExecutionResult, error) {
	started := e.clock()
	outcomes := make([]domain.StepOutcome, 0, len(plan.Steps))
	for _, s := range plan.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		outcomes = append(outcomes, domain.StepOutcome{
			StepID: s.ID,
			Status: "success",
			Output: "simulated: " + s.Description,
		})
	}

	return &domain.ExecutionResult{
		PlanID:     plan.ID,
		Status:     domain.ExecutionSuccess,
		Outcomes:   outcomes,
		StartedAt:  started,
		FinishedAt: e.clock(),
	}, nil
}
