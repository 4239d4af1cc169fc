/*
Package rules provides deterministic, rule-based implementations of the
reasoning adapters.

They are useful on their own for keyword-driven triage, as a degraded
fallback when an external reasoning service is down, and as the default
adapter set for demos and tests. Every implementation is pure Go with no
network dependencies.
*/
package rules
