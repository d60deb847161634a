// Package cli holds the shared plumbing for the skillgate command line:
// engine construction from flags and the HTTP client used by the approval
// subcommands.
package cli

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/skillgate/skillgate"
	"github.com/skillgate/skillgate/internal/logging"
	"github.com/skillgate/skillgate/internal/metrics"
	"github.com/skillgate/skillgate/internal/presentation/tui"
	fileadapter "github.com/skillgate/skillgate/pkg/adapters/file"
	"github.com/skillgate/skillgate/pkg/adapters/memory"
	redisadapter "github.com/skillgate/skillgate/pkg/adapters/redis"
	"github.com/skillgate/skillgate/pkg/persistence/middleware"
	"github.com/skillgate/skillgate/pkg/ports"
)

// RunOptions collects the flags shared by the CLI commands.
type RunOptions struct {
	// Store selects the persistence backend: "memory", "file" or "redis".
	Store string
	// DataDir is the base directory for the file backend.
	DataDir string
	// RedisAddr is the address for the redis backend.
	RedisAddr string
	// PackPath optionally points at a YAML/JSON skill pack to register.
	PackPath string
	// WorkDir anchors relative paths in file skills.
	WorkDir string
	// ApprovalTimeout bounds approval waits; zero waits forever.
	ApprovalTimeout time.Duration
	// RedactParams holds regex patterns for parameter keys to mask in the
	// audit trail (e.g. "(?i)password").
	RedactParams []string
	// AuditKey is a hex-encoded 32-byte AES-256 key. When set, audit
	// entries are encrypted at rest.
	AuditKey string
	// Debug enables debug-level logging.
	Debug bool
	// Interactive attaches the terminal approval notifier.
	Interactive bool
	// Metrics registers the Prometheus lifecycle hooks.
	Metrics bool
}

// CreateLogger configures the CLI logger. Logs go to stderr so they never
// corrupt stdout payloads (JSON output, MCP stdio framing).
func CreateLogger(debug bool) *slog.Logger {
	if debug {
		return logging.New(slog.LevelDebug)
	}
	return logging.New(slog.LevelInfo)
}

// CreateEngine initializes a Skillgate engine with standard CLI conventions.
func CreateEngine(opts RunOptions, logger *slog.Logger) (*skillgate.Engine, error) {
	engineOpts := []skillgate.Option{
		skillgate.WithLogger(logger),
	}

	var auditStore ports.AuditStore
	switch opts.Store {
	case "", "memory":
		auditStore = memory.NewAuditStore()
	case "file":
		dir := opts.DataDir
		if dir == "" {
			dir = ".skillgate"
		}
		auditStore = fileadapter.NewAuditStore(filepath.Join(dir, "audit.jsonl"))
		engineOpts = append(engineOpts,
			skillgate.WithWorkflowStore(fileadapter.NewWorkflowStore(filepath.Join(dir, "workflows"))),
		)
	case "redis":
		client := redisadapter.NewClient(opts.RedisAddr, "", 0)
		if err := client.Ping(context.Background()).Err(); err != nil {
			return nil, fmt.Errorf("redis at %s unreachable: %w", opts.RedisAddr, err)
		}
		auditStore = redisadapter.NewAuditStore(client)
		engineOpts = append(engineOpts,
			skillgate.WithWorkflowStore(redisadapter.NewWorkflowStore(client)),
		)
	default:
		return nil, fmt.Errorf("unknown store backend %q (supported: memory, file, redis)", opts.Store)
	}

	auditStore, err := wrapAuditStore(auditStore, opts)
	if err != nil {
		return nil, err
	}
	engineOpts = append(engineOpts, skillgate.WithAuditStore(auditStore))

	if opts.WorkDir != "" {
		engineOpts = append(engineOpts, skillgate.WithWorkDir(opts.WorkDir))
	}
	if opts.ApprovalTimeout > 0 {
		engineOpts = append(engineOpts, skillgate.WithApprovalTimeout(opts.ApprovalTimeout))
	}
	if opts.Interactive {
		engineOpts = append(engineOpts, skillgate.WithNotifier(tui.NewApprovalNotifier()))
	}
	if opts.Metrics {
		m := metrics.New(prometheus.DefaultRegisterer)
		engineOpts = append(engineOpts, skillgate.WithLifecycleHooks(m.Hooks()))
	}

	engine, err := skillgate.New(engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}

	if opts.PackPath != "" {
		if err := engine.Registry().RegisterPack(opts.PackPath); err != nil {
			return nil, err
		}
		logger.Info("skill pack loaded", "path", opts.PackPath)
	}

	return engine, nil
}

// wrapAuditStore applies the configured audit middlewares. Redaction sits
// outside encryption so values are masked before they are sealed.
func wrapAuditStore(store ports.AuditStore, opts RunOptions) (ports.AuditStore, error) {
	var mws []middleware.Middleware

	if len(opts.RedactParams) > 0 {
		mws = append(mws, middleware.NewRedactionMiddleware(opts.RedactParams))
	}

	if opts.AuditKey != "" {
		key, err := hex.DecodeString(opts.AuditKey)
		if err != nil {
			return nil, fmt.Errorf("audit key is not valid hex: %w", err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("audit key must be 32 bytes (64 hex chars), got %d", len(key))
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
	}

	return middleware.Chain(store, mws...), nil
}

