/*
Package skillgate is an execution and approval engine for agent skills: typed,
validated actions an AI agent may invoke, with a human approval gate in front
of the dangerous ones.

It separates the skill catalog (Registry), the decision point (Approval Gate)
and the side effects (Action Executor), so that no sensitive action runs
before a human says yes, and every terminal outcome lands in an audit trail.

# Concept

Skills are declared with a typed parameter signature and registered in the
catalog. When an agent requests an execution, the pipeline validates the
parameters against the signature, classifies the skill's sensitivity, and
either runs the action immediately or parks it as a pending approval. The
architecture is hexagonal: stores, transports (HTTP, MCP, CLI) and notifiers
are adapters around the same core.

# Key Features

  - Typed signatures: parameter and output types are validated before any
    action is attempted.
  - Approval gating: sensitive skills suspend until approved or denied;
    denial guarantees the action never runs.
  - Workflow graphs: skills compose into DAGs with per-edge type checking,
    conditional edges and deterministic ordering.
  - Audit trail: exactly one terminal record per admitted execution,
    covering completions, failures and denials alike.

# Usage

Initialize the engine, register skills, and execute:

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/skillgate/skillgate"
		"github.com/skillgate/skillgate/pkg/domain"
	)

	func main() {
		eng, err := skillgate.New()
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()

		// Non-sensitive skills run straight through.
		exec, err := eng.Execute(ctx, domain.SkillReadFile, map[string]any{
			"path": "/etc/hostname",
		})
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(exec.Status, exec.Result)

		// Sensitive skills wait at the gate.
		id, _ := eng.Submit(ctx, domain.SkillDeleteFile, map[string]any{
			"path": "/tmp/scratch.txt",
		})

		// ... surface eng.Pending() to an operator, then:
		if err := eng.Approve(id); err != nil {
			log.Fatal(err)
		}
	}
*/
package skillgate
