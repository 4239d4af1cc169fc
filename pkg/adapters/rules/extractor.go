package rules

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/remedyhq/remedy/pkg/domain"
)

// Extractor pulls structured fields out of free operator text with
// regular expressions and keyword lists. It is intentionally shallow: a
// sentence that mentions an observable problem becomes a symptom, and a
// host plus severity hint becomes a synthetic alert.
type Extractor struct{}

// NewExtractor creates the rule-based text extractor.
func NewExtractor() *Extractor { return &Extractor{} }

var (
	hostPattern     = regexp.MustCompile(`\bon\s+([a-zA-Z][\w.-]*\d[\w.-]*)\b`)
	percentPattern  = regexp.MustCompile(`\b\d{1,3}\s?%`)
	envPattern      = regexp.MustCompile(`\b(prod|production|staging|stage|dev|development)\b`)
	symptomKeywords = []string{
		"cpu", "memory", "disk", "latency", "timeout", "error", "crash",
		"slow", "unreachable", "oom", "restart", "down", "full", "leak",
		"5xx", "spike",
	}
	severityKeywords = []string{"critical", "high", "medium", "low"}
)

// Extract implements ports.TextExtractor.
func (e *Extractor) Extract(_ context.Context, text string) (*domain.Extraction, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return &domain.Extraction{}, nil
	}
	lower := strings.ToLower(trimmed)

	out := &domain.Extraction{}

	// Sentences that mention an observable problem become symptoms.
	for _, sentence := range splitSentences(trimmed) {
		if containsAny(strings.ToLower(sentence), symptomKeywords) {
			out.Symptoms = append(out.Symptoms, strings.TrimSpace(sentence))
		}
	}

	host := ""
	if m := hostPattern.FindStringSubmatch(trimmed); m != nil {
		host = m[1]
	}

	severity := ""
	for _, s := range severityKeywords {
		if strings.Contains(lower, s) {
			severity = s
			break
		}
	}
	if severity == "" && (percentPattern.MatchString(trimmed) || strings.Contains(lower, "down")) {
		severity = "high"
	}

	// A host or explicit severity is enough to synthesize an alert from
	// the description.
	if host != "" || severity != "" {
		if severity == "" {
			severity = "medium"
		}
		out.AlertInfo = &domain.AlertInfo{
			ID:       "alert-" + uuid.NewString()[:8],
			Severity: severity,
			Source:   host,
			Message:  trimmed,
		}
	}

	if m := envPattern.FindString(lower); m != "" {
		out.Context = map[string]any{"env": normalizeEnv(m)}
	}

	switch {
	case out.AlertInfo != nil && len(out.Symptoms) > 0:
		out.Confidence = 0.8
	case out.AlertInfo != nil || len(out.Symptoms) > 0:
		out.Confidence = 0.6
	default:
		out.Confidence = 0.1
	}

	return out, nil
}

func splitSentences(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == ';' || r == '\n' || r == '!' || r == '?'
	})
}

func normalizeEnv(env string) string {
	switch env {
	case "production":
		return "prod"
	case "stage":
		return "staging"
	case "development":
		return "dev"
	default:
		return env
	}
}
