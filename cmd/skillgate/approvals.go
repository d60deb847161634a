package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/skillgate/skillgate/internal/cli"
	"github.com/spf13/cobra"
)

// The approval subcommands talk to a running `skillgate serve` process over
// its HTTP API: the pending executions live in that process, not here.

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List executions awaiting approval on a running server",
	Run: func(cmd *cobra.Command, args []string) {
		client := cli.NewClient(serverURL(cmd))
		pending, err := client.Pending(context.Background())
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		if len(pending) == 0 {
			fmt.Println("No pending approvals.")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "EXECUTION\tSKILL\tPARAMETERS\tSINCE")
		for _, exec := range pending {
			params, _ := json.Marshal(exec.Parameters)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				exec.ID, exec.SkillID, params, exec.StartedAt.Format("15:04:05"))
		}
		w.Flush()
	},
}

var approveCmd = &cobra.Command{
	Use:   "approve <execution_id>",
	Short: "Approve a pending execution on a running server",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := cli.NewClient(serverURL(cmd))
		if err := client.Approve(context.Background(), args[0]); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Execution %s approved.\n", args[0])
	},
}

var denyCmd = &cobra.Command{
	Use:   "deny <execution_id>",
	Short: "Deny a pending execution on a running server",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := cli.NewClient(serverURL(cmd))
		if err := client.Deny(context.Background(), args[0]); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Execution %s denied.\n", args[0])
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the audit trail of a running server",
	Run: func(cmd *cobra.Command, args []string) {
		skillID, _ := cmd.Flags().GetString("skill")
		client := cli.NewClient(serverURL(cmd))

		entries, err := client.History(context.Background(), skillID)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tEXECUTION\tSKILL\tSTATUS\tERROR")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				e.EndedAt.Format("2006-01-02 15:04:05"), e.ExecutionID, e.SkillID, e.Status, e.Error)
		}
		w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(pendingCmd, approveCmd, denyCmd, historyCmd)

	for _, cmd := range []*cobra.Command{pendingCmd, approveCmd, denyCmd, historyCmd} {
		addServerFlag(cmd)
	}
	historyCmd.Flags().String("skill", "", "Filter by skill id")
}
