package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sourcelens/semdiff/internal/mcpserver"
	redmetrics "github.com/sourcelens/semdiff/internal/observability"
	"github.com/sourcelens/semdiff/pkg/observability"
	"github.com/sourcelens/semdiff/pkg/version"
)

// NewMCPCommand creates the mcp command, which starts semdiff as a Model
// Context Protocol server on stdio transport.
func NewMCPCommand() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start an MCP server exposing semdiff as agent tools",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The MCP server exposes semdiff's structural diff capability as tools
that AI agents can discover and invoke:
  - diff_files: diff two in-memory source file versions
  - diff_refs: resolve a Git ref range and diff every changed file`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			return runMCP(cobraCmd.Context(), debug)
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging to stderr")

	return cmd
}

func runMCP(ctx context.Context, debug bool) error {
	providers, err := initMCPObservability(debug)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	defer func() {
		if shutdownErr := providers.Shutdown(context.Background()); shutdownErr != nil {
			providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
		}
	}()

	red, err := redmetrics.NewREDMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	deps := mcpserver.ServerDeps{Logger: providers.Logger, Metrics: red, Tracer: providers.Tracer}
	srv := mcpserver.NewServer(deps)

	return srv.Run(ctx)
}

func initMCPObservability(debug bool) (observability.Providers, error) {
	cfg := observability.DefaultConfig()
	cfg.ServiceVersion = version.Version
	cfg.OTLPEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	cfg.OTLPHeaders = observability.ParseOTLPHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))
	cfg.OTLPInsecure = os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true"
	cfg.Mode = observability.ModeMCP
	cfg.LogJSON = true

	if debug {
		cfg.LogLevel = slog.LevelDebug
		cfg.DebugTrace = true
	}

	return observability.Init(cfg)
}
