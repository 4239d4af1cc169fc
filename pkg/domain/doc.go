/*
Package domain contains the core models for the remedy incident-response
engine.

It defines the State Record threaded through a session, the typed result
records produced by the business steps, the partial Update structure with
its merge rules, and the routing/suspension value types. This package is
kept pure and free of external dependencies like I/O or persistence,
following Hexagonal Architecture principles.

# Key Entities

  - State: the full snapshot of one incident-handling session.
  - Update: a step's partial output, merged into State at step boundaries.
  - Decision: the router's verdict (next step, rationale, confidence).
  - StepResult: what a step returns (an Update to continue, or a Prompt
    to suspend the session for operator input).
  - Checkpoint: a suspended session (state + prompt + resumption token).
*/
package domain
