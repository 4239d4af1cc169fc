package rules

import (
	"context"
	"strings"

	"github.com/remedyhq/remedy/pkg/domain"
)

// Classifier categorizes alerts by keyword matching on the alert message
// and tags, and maps severity to priority.
type Classifier struct{}

// NewClassifier creates the rule-based classifier.
func NewClassifier() *Classifier { return &Classifier{} }

var categoryKeywords = []struct {
	category string
	words    []string
}{
	{"network", []string{"network", "latency", "timeout", "dns", "connection", "packet"}},
	{"cpu", []string{"cpu", "load", "throttl"}},
	{"memory", []string{"memory", "oom", "heap", "leak", "swap"}},
	{"disk", []string{"disk", "storage", "volume", "inode", "filesystem"}},
}

var severityPriority = map[string]string{
	"critical": "critical",
	"high":     "high",
	"warning":  "medium",
	"medium":   "medium",
	"low":      "low",
	"info":     "low",
}

var severityScore = map[string]float64{
	"critical": 0.95,
	"high":     0.8,
	"warning":  0.5,
	"medium":   0.5,
	"low":      0.2,
	"info":     0.1,
}

// Classify implements ports.AlertClassifier.
func (c *Classifier) Classify(_ context.Context, alert domain.AlertInfo) (*domain.AnalysisResult, error) {
	haystack := strings.ToLower(alert.Message + " " + strings.Join(alert.Tags, " "))

	category := "application"
	for _, ck := range categoryKeywords {
		if containsAny(haystack, ck.words) {
			category = ck.category
			break
		}
	}

	severity := strings.ToLower(alert.Severity)
	priority, ok := severityPriority[severity]
	if !ok {
		priority = "medium"
	}
	score, ok := severityScore[severity]
	if !ok {
		score = 0.5
	}

	return &domain.AnalysisResult{
		AlertID:            alert.ID,
		Category:           category,
		Priority:           priority,
		SeverityScore:      score,
		CorrelationHints:   correlationHints(category, alert),
		RecommendedActions: recommendedActions(category),
	}, nil
}

func correlationHints(category string, alert domain.AlertInfo) []string {
	var hints []string
	if alert.Source != "" {
		hints = append(hints, "check other alerts from "+alert.Source)
	}
	if category == "network" {
		hints = append(hints, "correlate with upstream dependency alerts")
	}
	return hints
}

func recommendedActions(category string) []string {
	switch category {
	case "network":
		return []string{"check connectivity", "inspect DNS resolution", "review firewall rules"}
	case "cpu":
		return []string{"identify top processes", "check recent deployments", "consider scaling out"}
	case "memory":
		return []string{"inspect heap usage", "check for leaks", "restart affected service"}
	case "disk":
		return []string{"check disk usage", "rotate logs", "expand volume"}
	default:
		return []string{"review application logs", "check recent changes"}
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
