package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skillgate/skillgate"
	"github.com/skillgate/skillgate/internal/cli"
	"github.com/skillgate/skillgate/internal/presentation/tui"
	httpadapter "github.com/skillgate/skillgate/pkg/adapters/http"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Starts the Skillgate engine in server mode, exposing skills, executions,
approvals, workflows and Prometheus metrics over a JSON API.`,
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetString("port")

		opts := optionsFromFlags(cmd)
		opts.ApprovalTimeout = approvalTimeoutFlag(cmd)
		opts.Metrics = true
		logger := cli.CreateLogger(opts.Debug)

		engine, err := cli.CreateEngine(opts, logger)
		if err != nil {
			fmt.Printf("Error initializing skillgate: %v\n", err)
			os.Exit(1)
		}

		server := httpadapter.NewServer(
			engine.Registry(), engine.Pipeline(), engine.Workflows(),
			httpadapter.WithLogger(logger),
			httpadapter.WithVersion(skillgate.Version),
			httpadapter.WithStats(engine.Stats),
		)

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: server.Handler(),
		}

		tui.PrintBanner()

		serverErrors := make(chan error, 1)
		go func() {
			fmt.Printf("Starting Skillgate Server on %s\n", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}
			fmt.Println("Skillgate Server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().Duration("approval-timeout", 0, "Deny pending executions after this duration (0 waits forever)")
}
