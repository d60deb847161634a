package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/skillgate/skillgate"
	"github.com/skillgate/skillgate/internal/cli"
	"github.com/skillgate/skillgate/internal/presentation/graph"
	"github.com/skillgate/skillgate/pkg/domain"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var workflowCmd = &cobra.Command{
	Use:   "workflow",
	Short: "Validate and run workflow documents",
}

var workflowValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a workflow document without executing it",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := optionsFromFlags(cmd)
		logger := cli.CreateLogger(opts.Debug)

		engine, err := cli.CreateEngine(opts, logger)
		if err != nil {
			fmt.Printf("Error initializing skillgate: %v\n", err)
			os.Exit(1)
		}

		wf, err := loadWorkflowFile(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		if err := engine.ValidateWorkflow(wf); err != nil {
			fmt.Printf("Invalid: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Workflow %s is valid (%d nodes, %d edges).\n", wf.ID, len(wf.Nodes), len(wf.Edges))
	},
}

var workflowRunCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Execute a workflow document",
	Long: `Validates and executes a workflow from a YAML or JSON document.
Sensitive nodes prompt for approval in the terminal. The result is printed
as JSON; a failed workflow exits non-zero.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rawInputs, _ := cmd.Flags().GetStringArray("input")
		yes, _ := cmd.Flags().GetBool("yes")
		showGraph, _ := cmd.Flags().GetBool("graph")

		inputs, err := parseParams(rawInputs)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		opts := optionsFromFlags(cmd)
		opts.Interactive = true
		if yes {
			opts.Interactive = false
		}
		logger := cli.CreateLogger(opts.Debug)

		engine, err := cli.CreateEngine(opts, logger)
		if err != nil {
			fmt.Printf("Error initializing skillgate: %v\n", err)
			os.Exit(1)
		}

		wf, err := loadWorkflowFile(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		go decisionLoop(engine, yes)

		result, err := engine.RunWorkflow(context.Background(), wf, inputs)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		if showGraph {
			fmt.Print(graph.GenerateMermaid(wf, graph.RenderOptions{
				SensitiveSkills: sensitiveSkills(engine),
				Overlay: &graph.RunOverlay{
					ExecutedNodes: result.ExecutedNodes,
					SkippedNodes:  result.SkippedNodes,
					FailedNode:    result.FailedNode,
				},
			}))
		} else {
			out, _ := json.MarshalIndent(result, "", "  ")
			fmt.Println(string(out))
		}
		if !result.Success {
			os.Exit(1)
		}
	},
}

var workflowGraphCmd = &cobra.Command{
	Use:   "graph <file>",
	Short: "Render a workflow as a Mermaid flowchart",
	Long: `Prints a Mermaid flowchart of the workflow graph. Nodes backed by
sensitive skills render as subroutine shapes, data-binding edges are
labeled with the bound parameter.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := optionsFromFlags(cmd)
		logger := cli.CreateLogger(opts.Debug)

		engine, err := cli.CreateEngine(opts, logger)
		if err != nil {
			fmt.Printf("Error initializing skillgate: %v\n", err)
			os.Exit(1)
		}

		wf, err := loadWorkflowFile(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Print(graph.GenerateMermaid(wf, graph.RenderOptions{
			SensitiveSkills: sensitiveSkills(engine),
		}))
	},
}

func sensitiveSkills(engine *skillgate.Engine) map[string]bool {
	out := make(map[string]bool)
	for _, def := range engine.Skills() {
		if def.IsSensitive {
			out[def.ID] = true
		}
	}
	return out
}

// decisionLoop watches for executions parked at the gate and decides them.
// The workflow engine runs nodes sequentially, so one watcher is enough.
// With auto set, every pending execution is approved; otherwise the user
// answers y/N per execution.
func decisionLoop(engine *skillgate.Engine, auto bool) {
	for {
		for _, exec := range engine.Pending() {
			if auto {
				_ = engine.Approve(exec.ID)
				continue
			}
			fmt.Printf("Approve %s (%s)? [y/N] ", exec.SkillID, exec.ID)
			var answer string
			fmt.Scanln(&answer)
			if strings.EqualFold(strings.TrimSpace(answer), "y") {
				_ = engine.Approve(exec.ID)
			} else {
				_ = engine.Deny(exec.ID)
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
}

// loadWorkflowFile parses a workflow document from YAML or JSON.
func loadWorkflowFile(path string) (domain.Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Workflow{}, err
	}

	var wf domain.Workflow
	if json.Valid(data) {
		err = json.Unmarshal(data, &wf)
	} else {
		err = yaml.Unmarshal(data, &wf)
	}
	if err != nil {
		return domain.Workflow{}, fmt.Errorf("parse workflow %s: %w", path, err)
	}
	return wf, nil
}

func init() {
	rootCmd.AddCommand(workflowCmd)
	workflowCmd.AddCommand(workflowValidateCmd, workflowRunCmd, workflowGraphCmd)

	workflowRunCmd.Flags().StringArrayP("input", "i", nil, "Workflow input as key=value (repeatable)")
	workflowRunCmd.Flags().BoolP("yes", "y", false, "Approve all sensitive nodes without prompting")
	workflowRunCmd.Flags().Bool("graph", false, "Print a Mermaid chart of the run instead of JSON")
}
