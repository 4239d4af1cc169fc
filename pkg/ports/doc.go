/*
Package ports defines the boundary interfaces of the remedy engine.

Following Hexagonal Architecture, the engine core depends only on these
interfaces; concrete implementations live under pkg/adapters. The two
families of ports are:

  - Reasoning adapters (AlertClassifier, DiagnosticEngine, ActionPlanner,
    ExecutionBackend, ReportGenerator, TextExtractor): external
    collaborators the business steps call with a bounded timeout. Their
    accuracy is out of the engine's scope; their failure mode is not.
  - Infrastructure (CheckpointStore, DistributedLocker): persistence for
    session checkpoints and coordination across replicas.

The package also ships contract test suites so every adapter
implementation is verified against the same behavior.
*/
package ports
