package domain

// Step names a processing stage of the workflow.
type Step string

const (
	StepProcessAlert   Step = "process_alert"
	StepDiagnoseIssue  Step = "diagnose_issue"
	StepPlanActions    Step = "plan_actions"
	StepExecuteActions Step = "execute_actions"
	StepGenerateReport Step = "generate_report"
	StepCollectInfo    Step = "collect_info"

	// StepTerminal is the router's marker that the session is done.
	// It is not an executable step.
	StepTerminal Step = "terminal"
)

// BusinessSteps lists the executable steps in pipeline order.
var BusinessSteps = []Step{
	StepProcessAlert,
	StepDiagnoseIssue,
	StepPlanActions,
	StepExecuteActions,
	StepGenerateReport,
	StepCollectInfo,
}

// Decision is the router's verdict for one cycle. It is advisory,
// transient state: recomputed every cycle and never persisted as truth.
type Decision struct {
	NextStep   Step    `json:"next_step"`
	Rationale  string  `json:"rationale"`
	Confidence float64 `json:"confidence"`
}
