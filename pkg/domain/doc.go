/*
Package domain contains the core domain models for the Skillgate engine.

It defines the fundamental entities of the execution state machine, such as
SkillDefinitions, SkillExecutions, Workflows and AuditEntries. This package is
kept pure and free of external dependencies like I/O or persistence, following
Hexagonal Architecture principles.

# Key Entities

  - SkillDefinition: A named, side-effecting action with a typed parameter signature.
  - SkillExecution: One invocation attempt, tracked through the
    Pending/Approved/Denied/Completed/Failed state machine.
  - Workflow: A directed graph of skill nodes and typed edges.
  - AuditEntry: An immutable record of one terminated execution.
*/
package domain
