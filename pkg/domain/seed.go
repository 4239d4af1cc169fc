package domain

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Seed is the partial structured record a session can start from. Any
// subset of fields may be present.
type Seed struct {
	AlertInfo        *AlertInfo        `mapstructure:"alert_info"`
	Symptoms         []string          `mapstructure:"symptoms"`
	Context          map[string]any    `mapstructure:"context"`
	AnalysisResult   *AnalysisResult   `mapstructure:"analysis_result"`
	DiagnosticResult *DiagnosticResult `mapstructure:"diagnostic_result"`
	ActionPlan       *ActionPlan       `mapstructure:"action_plan"`
	ExecutionResult  *ExecutionResult  `mapstructure:"execution_result"`
}

// DecodeSeed converts a loose map into a typed Seed. Unknown fields are
// rejected rather than silently accepted, so a malformed payload is
// reported as InvalidInput instead of polluting the record.
func DecodeSeed(raw map[string]any) (*Seed, error) {
	var seed Seed
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &seed,
		ErrorUnused: true,
		TagName:     "mapstructure",
	})
	if err != nil {
		return nil, fmt.Errorf("seed decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}
	return &seed, nil
}

// Apply copies the seed's fields onto a fresh state. Seeding happens
// before any step runs, so it bypasses step ownership: the caller vouches
// for the partial record it hands in.
func (s *Seed) Apply(state *State, now time.Time) {
	if s.AlertInfo != nil {
		ai := s.AlertInfo.clone()
		state.AlertInfo = &ai
	}
	if len(s.Symptoms) > 0 {
		state.Symptoms = append(state.Symptoms, s.Symptoms...)
	}
	if len(s.Context) > 0 {
		if state.Context == nil {
			state.Context = make(map[string]any, len(s.Context))
		}
		for k, v := range s.Context {
			state.Context[k] = v
		}
	}
	state.AnalysisResult = s.AnalysisResult
	state.DiagnosticResult = s.DiagnosticResult
	state.ActionPlan = s.ActionPlan
	state.ExecutionResult = s.ExecutionResult
	state.UpdatedAt = now
}
