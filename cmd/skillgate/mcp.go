package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/skillgate/skillgate"
	"github.com/skillgate/skillgate/internal/cli"
	mcpadapter "github.com/skillgate/skillgate/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the Skillgate engine as an MCP Server.
This allows AI agents (like Claude Desktop) to execute skills as tools, with
sensitive ones held for approval.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Run: func(cmd *cobra.Command, args []string) {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		opts := optionsFromFlags(cmd)
		logger := cli.CreateLogger(opts.Debug)

		engine, err := cli.CreateEngine(opts, logger)
		if err != nil {
			log.Fatalf("Error initializing skillgate: %v", err)
		}

		srv := mcpadapter.NewServer(engine.Registry(), engine.Pipeline(), skillgate.Version,
			mcpadapter.WithLogger(logger))

		switch transport {
		case "stdio":
			// Ensure logs don't corrupt JSON-RPC on Stdout
			log.SetOutput(os.Stderr)
			logger.Info("starting skillgate mcp server (stdio)")
			if err := srv.ServeStdio(); err != nil {
				logger.Error("mcp server execution failed", "err", err)
				os.Exit(1)
			}
		case "sse":
			logger.Info("starting skillgate mcp server (sse)", "port", port)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.ServeSSE(ctx, port); err != nil {
				if err != http.ErrServerClosed {
					logger.Error("mcp server execution failed", "err", err)
					os.Exit(1)
				}
			}
			logger.Info("mcp server stopped gracefully")
		default:
			log.Fatalf("Unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
