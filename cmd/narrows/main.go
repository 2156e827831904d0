package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guillermoBallester/narrows/internal/adapter/mcp"
	"github.com/guillermoBallester/narrows/internal/adapter/sqlite"
	"github.com/guillermoBallester/narrows/internal/audit"
	"github.com/guillermoBallester/narrows/internal/config"
	"github.com/guillermoBallester/narrows/internal/core/domain"
	"github.com/guillermoBallester/narrows/internal/core/port"
	"github.com/guillermoBallester/narrows/internal/core/service"
	"github.com/guillermoBallester/narrows/internal/policy"
	"github.com/guillermoBallester/narrows/internal/telemetry"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel"
)

var version = "dev"

func main() {
	overrides, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	if err := run(overrides); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// parseFlags parses CLI arguments into config overrides. Flags that were not
// passed stay nil so env vars and defaults apply.
func parseFlags(args []string) (config.Overrides, error) {
	fs := flag.NewFlagSet("narrows", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	databasePath := fs.String("database-path", "", "path to the SQLite database file")
	logLevel := fs.String("log-level", "", "log level: debug, info, warn, error")
	maxRows := fs.Int("max-rows", 0, "maximum rows returned per query")
	queryTimeout := fs.Duration("query-timeout", 0, "per-query timeout")
	policyFile := fs.String("policy-file", "", "path to policy YAML file")
	transport := fs.String("transport", "", "MCP transport: stdio or http")
	httpAddr := fs.String("http-addr", "", "listen address for HTTP transport")
	httpBearerToken := fs.String("http-bearer-token", "", "bearer token required for HTTP transport")
	otelEnabled := fs.Bool("otel", false, "enable OpenTelemetry tracing and metrics")
	auditLog := fs.String("audit-log", "", "path to NDJSON audit log file")
	poolMaxOpen := fs.Int("pool-max-open-conns", 0, "maximum open database connections")
	poolMaxIdle := fs.Int("pool-max-idle-conns", -1, "maximum idle database connections")
	poolConnLifetime := fs.Duration("pool-conn-max-lifetime", 0, "maximum connection lifetime")

	if err := fs.Parse(args); err != nil {
		return config.Overrides{}, err
	}

	var o config.Overrides
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "database-path":
			o.DatabasePath = databasePath
		case "log-level":
			o.LogLevel = logLevel
		case "max-rows":
			o.MaxRows = maxRows
		case "query-timeout":
			o.QueryTimeout = queryTimeout
		case "policy-file":
			o.PolicyFile = policyFile
		case "transport":
			o.Transport = transport
		case "http-addr":
			o.HTTPAddr = httpAddr
		case "http-bearer-token":
			o.HTTPBearerToken = httpBearerToken
		case "pool-max-open-conns":
			o.PoolMaxOpenConns = poolMaxOpen
		case "pool-max-idle-conns":
			o.PoolMaxIdleConns = poolMaxIdle
		case "pool-conn-max-lifetime":
			o.PoolConnMaxLifetime = poolConnLifetime
		}
	})
	o.OTelEnabled = *otelEnabled
	o.AuditLog = *auditLog

	return o, nil
}

func run(overrides config.Overrides) error {
	cfg, err := config.Load(overrides)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Logs go to stderr — stdout is reserved for the MCP stdio transport.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	logger.Info("starting narrows",
		slog.String("version", version),
		slog.String("log_level", cfg.LogLevel.String()),
		slog.String("database_path", cfg.DatabasePath),
		slog.Int("max_rows", cfg.MaxRows),
		slog.String("query_timeout", cfg.QueryTimeout.String()),
		slog.String("transport", cfg.Transport),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Observability (optional).
	tracer := telemetry.NoopTracer()
	var inst port.Instrumentation = port.NoopInstrumentation{}
	if cfg.OTelEnabled {
		provider, err := telemetry.Init(ctx, "narrows", version)
		if err != nil {
			return fmt.Errorf("initializing telemetry: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := provider.Shutdown(shutdownCtx); err != nil {
				logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
			}
		}()
		tracer = otel.Tracer("github.com/guillermoBallester/narrows")
		inst = telemetry.NewInstruments()
		logger.Info("telemetry enabled")
	}

	db, err := sqlite.Open(ctx, cfg.DatabasePath, sqlite.PoolConfig{
		MaxOpenConns:    cfg.PoolMaxOpenConns,
		MaxIdleConns:    cfg.PoolMaxIdleConns,
		ConnMaxLifetime: cfg.PoolConnMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	logger.Info("database opened", slog.String("db.system", "sqlite"))

	// Adapters.
	var explorer port.SchemaExplorer = sqlite.NewExplorer(db)
	executor := sqlite.NewExecutor(db, cfg.MaxRows, cfg.QueryTimeout)

	// Policy decorator (optional).
	var masks map[string]domain.MaskType
	if cfg.PolicyFile != "" {
		pol, err := policy.LoadFromFile(cfg.PolicyFile)
		if err != nil {
			return fmt.Errorf("loading policy: %w", err)
		}
		explorer = policy.NewPolicyExplorer(explorer, pol)
		masks = pol.ColumnMasks()
		logger.Info("policy loaded", slog.String("file", cfg.PolicyFile))
	}

	// Audit trail (optional).
	var auditor port.QueryAuditor = audit.NoopAuditor{}
	if cfg.AuditLog != "" {
		fileAuditor, err := audit.NewFileAuditor(cfg.AuditLog)
		if err != nil {
			return fmt.Errorf("opening audit log: %w", err)
		}
		defer fileAuditor.Close()
		auditor = fileAuditor
		logger.Info("audit log enabled", slog.String("file", cfg.AuditLog))
	}

	// Domain and services.
	validator := domain.NewSafetyValidator()
	querySvc := service.NewQueryService(validator, executor, auditor, logger, masks, tracer, inst)

	// MCP server with tool handlers.
	mcpServer := mcp.NewServer(version, explorer, querySvc, logger, tracer, inst)

	switch cfg.Transport {
	case "http":
		return serveHTTP(ctx, cfg, mcpServer, logger)
	default:
		return serveStdio(ctx, mcpServer, logger)
	}
}

// serveStdio runs the MCP server over stdin/stdout.
func serveStdio(ctx context.Context, mcpServer *mcpserver.MCPServer, logger *slog.Logger) error {
	stdioServer := mcpserver.NewStdioServer(mcpServer)

	logger.Info("serving MCP over stdio")
	if err := stdioServer.Listen(ctx, os.Stdin, os.Stdout); err != nil {
		return fmt.Errorf("stdio server: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// serveHTTP runs the MCP server over streamable HTTP with bearer auth,
// panic recovery, and a /health endpoint.
func serveHTTP(ctx context.Context, cfg *config.Config, mcpServer *mcpserver.MCPServer, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)

	httpSrv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: recoveryMiddleware(mux, logger),
	}

	streamableServer := mcpserver.NewStreamableHTTPServer(mcpServer,
		mcpserver.WithEndpointPath("/mcp"),
		mcpserver.WithStateLess(true),
		mcpserver.WithStreamableHTTPServer(httpSrv),
	)

	// Start() does not register the handler when a custom *http.Server is
	// provided, so register it on the mux ourselves.
	mux.Handle("/mcp", bearerAuthMiddleware(streamableServer, cfg.HTTPBearerToken))

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving MCP over HTTP", slog.String("addr", cfg.HTTPAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}
