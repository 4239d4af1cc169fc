package rules

import "github.com/remedyhq/remedy/pkg/ports"

// NewAdapterSet bundles the rule-based implementations into a complete
// adapter set.
func NewAdapterSet() ports.AdapterSet {
	return ports.AdapterSet{
		Classifier:  NewClassifier(),
		Diagnostics: NewDiagnostics(),
		Planner:     NewPlanner(),
		Executor:    NewExecutor(),
		Reporter:    NewReporter(),
		Extractor:   NewExtractor(),
	}
}
