/*
Package observability provides tools for monitoring the engine.

It includes Prometheus collectors wired to the engine's lifecycle hooks:
routing decisions, step durations and failures, suspensions, resumes,
and terminal outcomes.
*/
package observability
