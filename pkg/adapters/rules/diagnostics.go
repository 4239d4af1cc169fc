package rules

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/remedyhq/remedy/pkg/domain"
	"github.com/remedyhq/remedy/pkg/ports"
)

// Diagnostics produces a root-cause hypothesis from symptoms and the
// alert classification. Confidence grows with the amount of evidence
// available, so sparse sessions naturally trigger clarification.
type Diagnostics struct{}

// NewDiagnostics creates the rule-based diagnostic engine.
func NewDiagnostics() *Diagnostics { return &Diagnostics{} }

type hypothesis struct {
	rootCause string
	words     []string
	recovery  string
}

var hypotheses = []hypothesis{
	{"resource exhaustion under load", []string{"cpu", "load", "slow", "98%", "spike"}, "15m"},
	{"memory leak in long-running process", []string{"memory", "oom", "leak", "heap"}, "30m"},
	{"disk capacity exhausted", []string{"disk", "full", "storage", "inode"}, "20m"},
	{"degraded network path or dependency", []string{"timeout", "latency", "unreachable", "connection"}, "25m"},
	{"faulty deployment or configuration change", []string{"deploy", "release", "config", "rollout"}, "10m"},
}

// Diagnose implements ports.DiagnosticEngine.
func (d *Diagnostics) Diagnose(_ context.Context, in ports.DiagnosticInput) (*domain.DiagnosticResult, error) {
	haystack := strings.ToLower(strings.Join(in.Symptoms, " "))
	if in.Alert != nil {
		haystack += " " + strings.ToLower(in.Alert.Message)
	}

	best := hypothesis{rootCause: "unclassified fault", recovery: "unknown"}
	bestHits := 0
	for _, h := range hypotheses {
		hits := 0
		for _, w := range h.words {
			if strings.Contains(haystack, w) {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = h, hits
		}
	}

	// Confidence: matched keywords carry most weight, corroborating
	// analysis and context add the rest.
	confidence := 0.25 + 0.15*float64(bestHits)
	if in.Analysis != nil {
		confidence += 0.1
	}
	if len(in.Context) > 0 {
		confidence += 0.05
	}
	if confidence > 0.95 {
		confidence = 0.95
	}

	var components []string
	if in.Alert != nil && in.Alert.Source != "" {
		components = append(components, in.Alert.Source)
	}

	evidence := make([]string, 0, len(in.Symptoms))
	for _, s := range in.Symptoms {
		evidence = append(evidence, "symptom: "+s)
	}

	return &domain.DiagnosticResult{
		IncidentID:           "inc-" + uuid.NewString()[:8],
		RootCause:            best.rootCause,
		ConfidenceScore:      confidence,
		ImpactAssessment:     impact(in),
		AffectedComponents:   components,
		Evidence:             evidence,
		RecoveryTimeEstimate: best.recovery,
	}, nil
}

func impact(in ports.DiagnosticInput) string {
	if in.Analysis != nil {
		return fmt.Sprintf("%s priority %s incident", in.Analysis.Priority, in.Analysis.Category)
	}
	return "impact not yet assessed"
}
