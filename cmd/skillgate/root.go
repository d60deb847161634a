package main

import (
	"fmt"
	"os"
	"time"

	"github.com/skillgate/skillgate/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "skillgate",
	Short: "Skillgate is an execution and approval engine for agent skills",
	Long: `Skillgate registers typed agent skills, gates the sensitive ones behind
human approval, and records every outcome in an audit trail.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("store", "memory", "Persistence backend: memory, file or redis")
	rootCmd.PersistentFlags().String("data-dir", ".skillgate", "Base directory for the file backend")
	rootCmd.PersistentFlags().String("redis-addr", "localhost:6379", "Redis address for the redis backend")
	rootCmd.PersistentFlags().String("skills", "", "Path to a YAML/JSON skill pack to register at startup")
	rootCmd.PersistentFlags().String("workdir", "", "Working directory for file and terminal skills")
	rootCmd.PersistentFlags().StringArray("redact", nil, "Regex for parameter keys to mask in the audit trail (repeatable)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// optionsFromFlags builds the shared engine options from the persistent flags.
func optionsFromFlags(cmd *cobra.Command) cli.RunOptions {
	store, _ := cmd.Flags().GetString("store")
	dataDir, _ := cmd.Flags().GetString("data-dir")
	redisAddr, _ := cmd.Flags().GetString("redis-addr")
	pack, _ := cmd.Flags().GetString("skills")
	workDir, _ := cmd.Flags().GetString("workdir")
	redact, _ := cmd.Flags().GetStringArray("redact")
	debug, _ := cmd.Flags().GetBool("debug")

	return cli.RunOptions{
		Store:        store,
		DataDir:      dataDir,
		RedisAddr:    redisAddr,
		PackPath:     pack,
		WorkDir:      workDir,
		RedactParams: redact,
		// SKILLGATE_AUDIT_KEY stays out of the flag set so the key never
		// shows up in shell history or process listings.
		AuditKey: os.Getenv("SKILLGATE_AUDIT_KEY"),
		Debug:    debug,
	}
}

func serverURL(cmd *cobra.Command) string {
	url, _ := cmd.Flags().GetString("server")
	return url
}

func addServerFlag(cmd *cobra.Command) {
	cmd.Flags().String("server", "http://localhost:8080", "Base URL of the running skillgate server")
}

func approvalTimeoutFlag(cmd *cobra.Command) time.Duration {
	d, _ := cmd.Flags().GetDuration("approval-timeout")
	return d
}
