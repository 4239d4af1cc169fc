// Package remedy is a stateful incident-response orchestration engine.
//
// A session is a single incident record driven through classification,
// diagnosis, planning, execution, and reporting by a pure routing policy
// that inspects only the record itself. When information or approval is
// missing the session suspends with a resumption token; operator input
// folds back into the record and the loop continues where it left off.
//
// The engine is storage-agnostic: checkpoints go through the
// ports.CheckpointStore interface, with in-memory, Redis, and SQLite
// implementations under pkg/adapters and composable persistence
// middleware (PII masking, encryption at rest) under pkg/persistence.
package remedy
