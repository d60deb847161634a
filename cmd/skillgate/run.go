package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/skillgate/skillgate/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd executes a single skill locally, with an interactive approval
// prompt for sensitive ones.
var runCmd = &cobra.Command{
	Use:   "run <skill_id>",
	Short: "Execute a skill locally",
	Long: `Runs one skill in-process and prints the terminal execution record as JSON.
Sensitive skills print an approval prompt; confirm with y/N.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		skillID := args[0]
		rawParams, _ := cmd.Flags().GetStringArray("param")
		timeout := approvalTimeoutFlag(cmd)
		yes, _ := cmd.Flags().GetBool("yes")

		params, err := parseParams(rawParams)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		opts := optionsFromFlags(cmd)
		opts.ApprovalTimeout = timeout
		opts.Interactive = true
		logger := cli.CreateLogger(opts.Debug)

		engine, err := cli.CreateEngine(opts, logger)
		if err != nil {
			fmt.Printf("Error initializing skillgate: %v\n", err)
			os.Exit(1)
		}

		ctx := context.Background()

		id, err := engine.Submit(ctx, skillID, params)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		// Sensitive skills park at the gate; read the decision from the
		// terminal once the execution shows up as pending.
		exec := runToTerminal(engine, id, func() {
			if yes {
				_ = engine.Approve(id)
				return
			}
			fmt.Print("Approve? [y/N] ")
			var answer string
			fmt.Scanln(&answer)
			if strings.EqualFold(strings.TrimSpace(answer), "y") {
				_ = engine.Approve(id)
			} else {
				_ = engine.Deny(id)
			}
		})

		out, _ := json.MarshalIndent(exec, "", "  ")
		fmt.Println(string(out))
		if exec == nil || exec.Error != "" {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringArrayP("param", "P", nil, "Skill parameter as key=value (repeatable)")
	runCmd.Flags().Duration("approval-timeout", 0, "Deny the execution after this duration without a decision")
	runCmd.Flags().BoolP("yes", "y", false, "Approve sensitive executions without prompting")
}

// parseParams turns key=value pairs into a parameter map. Values that parse
// as JSON (numbers, booleans) keep their type; everything else is a string.
func parseParams(raw []string) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	params := make(map[string]any, len(raw))
	for _, pair := range raw {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid parameter %q: expected key=value", pair)
		}
		var typed any
		if err := json.Unmarshal([]byte(value), &typed); err == nil {
			switch typed.(type) {
			case float64, bool:
				params[key] = typed
				continue
			}
		}
		params[key] = value
	}
	return params, nil
}
