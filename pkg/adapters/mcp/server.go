// Package mcp exposes the skill engine as an MCP server, so an agent host
// can register, execute and approve skills over the Model Context Protocol.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"
	"github.com/skillgate/skillgate/internal/logging"
	"github.com/skillgate/skillgate/pkg/pipeline"
	"github.com/skillgate/skillgate/pkg/registry"
)

// Server wraps the execution pipeline and exposes it as an MCP server.
type Server struct {
	registry  *registry.Registry
	pipeline  *pipeline.Pipeline
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets a structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer creates an MCP server over the given collaborators.
func NewServer(reg *registry.Registry, pipe *pipeline.Pipeline, version string, opts ...Option) *Server {
	s := &Server{
		registry:  reg,
		pipeline:  pipe,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("skillgate-mcp", version),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("mcp server listening (sse)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

type executeArgs struct {
	SkillID string         `mapstructure:"skill_id"`
	Params  map[string]any `mapstructure:"params"`
	Wait    bool           `mapstructure:"wait"`
}

type decisionArgs struct {
	ExecutionID string `mapstructure:"execution_id"`
}

type historyArgs struct {
	SkillID string `mapstructure:"skill_id"`
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("execute_skill",
		mcp.WithDescription("Execute a registered skill. Sensitive skills are held for human approval; the returned execution id can be polled with get_execution."),
		mcp.WithString("skill_id", mcp.Required(), mcp.Description("The id of the skill to execute")),
		mcp.WithObject("params", mcp.Description("Skill parameters, matching the skill's declared signature")),
		mcp.WithBoolean("wait", mcp.Description("Block until the execution reaches a terminal state instead of returning the pending id")),
	), s.handleExecuteSkill)

	s.mcpServer.AddTool(mcp.NewTool("get_execution",
		mcp.WithDescription("Get the current state of an execution by id."),
		mcp.WithString("execution_id", mcp.Required(), mcp.Description("The execution id")),
	), s.handleGetExecution)

	s.mcpServer.AddTool(mcp.NewTool("approve_execution",
		mcp.WithDescription("Approve a pending sensitive execution. The action runs after approval."),
		mcp.WithString("execution_id", mcp.Required(), mcp.Description("The execution id to approve")),
	), s.handleApprove)

	s.mcpServer.AddTool(mcp.NewTool("deny_execution",
		mcp.WithDescription("Deny a pending sensitive execution. The action is never performed."),
		mcp.WithString("execution_id", mcp.Required(), mcp.Description("The execution id to deny")),
	), s.handleDeny)

	s.mcpServer.AddTool(mcp.NewTool("list_pending",
		mcp.WithDescription("List executions currently awaiting human approval, oldest first."),
	), s.handleListPending)

	s.mcpServer.AddTool(mcp.NewTool("execution_history",
		mcp.WithDescription("List the audit trail of terminal executions, optionally filtered by skill id."),
		mcp.WithString("skill_id", mcp.Description("Filter entries to one skill")),
	), s.handleHistory)

	s.mcpServer.AddTool(mcp.NewTool("list_skills",
		mcp.WithDescription("List registered skill definitions with their parameter signatures and sensitivity."),
	), s.handleListSkills)
}

func (s *Server) handleExecuteSkill(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args executeArgs
	if err := mapstructure.Decode(request.GetArguments(), &args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	if args.Wait {
		exec, err := s.pipeline.Execute(ctx, args.SkillID, args.Params)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(exec)
	}

	id, err := s.pipeline.Submit(ctx, args.SkillID, args.Params)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	exec, err := s.pipeline.Get(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(exec)
}

func (s *Server) handleGetExecution(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args decisionArgs
	if err := mapstructure.Decode(request.GetArguments(), &args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	exec, err := s.pipeline.Get(args.ExecutionID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(exec)
}

func (s *Server) handleApprove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args decisionArgs
	if err := mapstructure.Decode(request.GetArguments(), &args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	if err := s.pipeline.Approve(args.ExecutionID); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.logger.InfoContext(ctx, "execution approved via mcp", "execution_id", args.ExecutionID)
	return mcp.NewToolResultText(fmt.Sprintf("execution %s approved", args.ExecutionID)), nil
}

func (s *Server) handleDeny(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args decisionArgs
	if err := mapstructure.Decode(request.GetArguments(), &args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	if err := s.pipeline.Deny(args.ExecutionID); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.logger.InfoContext(ctx, "execution denied via mcp", "execution_id", args.ExecutionID)
	return mcp.NewToolResultText(fmt.Sprintf("execution %s denied", args.ExecutionID)), nil
}

func (s *Server) handleListPending(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.pipeline.Pending())
}

func (s *Server) handleHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args historyArgs
	if err := mapstructure.Decode(request.GetArguments(), &args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	entries, err := s.pipeline.History(ctx, args.SkillID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(entries)
}

func (s *Server) handleListSkills(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.registry.List())
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("skillgate://skills", "Registered Skills",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.registry.List())
		if err != nil {
			return nil, fmt.Errorf("marshal skills: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "skillgate://skills",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})

	s.mcpServer.AddResource(mcp.NewResource("skillgate://approvals", "Pending Approvals",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.pipeline.Pending())
		if err != nil {
			return nil, fmt.Errorf("marshal approvals: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "skillgate://approvals",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}
