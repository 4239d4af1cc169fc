package rules

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/remedyhq/remedy/pkg/domain"
)

// Planner maps diagnosed root causes to remediation templates. Plans
// touching production state at high risk require operator approval.
type Planner struct{}

// NewPlanner creates the rule-based action planner.
func NewPlanner() *Planner { return &Planner{} }

// Plan implements ports.ActionPlanner.
func (p *Planner) Plan(_ context.Context, diag domain.DiagnosticResult, ctxData map[string]any) (*domain.ActionPlan, error) {
	steps, risk := templateFor(diag.RootCause)

	plan := &domain.ActionPlan{
		ID:               "plan-" + uuid.NewString()[:8],
		IncidentID:       diag.IncidentID,
		RiskLevel:        risk,
		EstimatedMinutes: 5 * len(steps),
		ApprovalRequired: risk == "high" || risk == "critical",
		Steps:            steps,
		PreChecks:        []string{"confirm current alert is still firing", "snapshot current metrics"},
		PostChecks:       []string{"verify alert clears", "watch error rate for 10 minutes"},
	}

	// Explicit environment override: production incidents always gate
	// execution behind an operator.
	if env, _ := ctxData["env"].(string); env == "prod" {
		plan.ApprovalRequired = true
	}

	return plan, nil
}

func templateFor(rootCause string) ([]domain.ActionStep, string) {
	rc := strings.ToLower(rootCause)
	step := func(n int, actionType, desc, cmd, rollback string) domain.ActionStep {
		return domain.ActionStep{
			ID:              fmt.Sprintf("step-%d", n),
			ActionType:      actionType,
			Description:     desc,
			Command:         cmd,
			TimeoutSeconds:  300,
			RollbackCommand: rollback,
		}
	}

	switch {
	case strings.Contains(rc, "exhaustion"), strings.Contains(rc, "leak"):
		return []domain.ActionStep{
			step(1, "investigation", "identify top resource consumers", "top -b -n1", ""),
			step(2, "restart_service", "restart the affected service", "systemctl restart app", ""),
			step(3, "scale_resources", "scale out by one replica", "scale up 1", "scale down 1"),
		}, "medium"
	case strings.Contains(rc, "disk"):
		return []domain.ActionStep{
			step(1, "investigation", "find largest directories", "du -sh /* | sort -h", ""),
			step(2, "update_config", "rotate and compress logs", "logrotate -f /etc/logrotate.conf", ""),
		}, "low"
	case strings.Contains(rc, "deployment"), strings.Contains(rc, "configuration"):
		return []domain.ActionStep{
			step(1, "rollback", "roll back to the previous release", "deploy rollback", "deploy redo"),
			step(2, "notification", "notify the owning team", "", ""),
		}, "high"
	case strings.Contains(rc, "network"):
		return []domain.ActionStep{
			step(1, "investigation", "trace the failing path", "traceroute dependency", ""),
			step(2, "notification", "escalate to the network team", "", ""),
		}, "medium"
	default:
		return []domain.ActionStep{
			step(1, "investigation", "gather logs around the incident window", "journalctl --since -1h", ""),
			step(2, "notification", "page the on-call owner", "", ""),
		}, "low"
	}
}
