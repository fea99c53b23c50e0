package cli

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/askuser/askuser/internal/mcpserver"
	"github.com/askuser/askuser/internal/metrics"
	"github.com/askuser/askuser/internal/observability"
)

var (
	serveMode string
	serveAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server",
	Long: `Run the askuser MCP server in the foreground.

In stdio mode (the default) the MCP protocol runs over stdin/stdout, which is
how agent hosts usually launch it. In http mode the server listens on the
configured address using the streamable HTTP transport.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveMode, "mode", "", "transport mode: stdio or http (overrides config)")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address for http mode (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, loader, _, err := loadState()
	if err != nil {
		return err
	}

	if serveMode != "" {
		cfg.Server.Mode = serveMode
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid server configuration: %w", err)
	}

	// In stdio mode the terminal may be the MCP wire, so console logging
	// stays off and everything goes to the log file.
	lg, err := setupLogging(cfg, cfg.Server.Mode != "stdio")
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer lg.Close()

	if cfg.DataDir != "" {
		if err := observability.InitAuditLogger(filepath.Join(cfg.DataDir, "audit.log")); err != nil {
			lg.Warn().Err(err).Msg("Failed to open audit log")
		} else {
			defer observability.GetAuditLogger().Close()
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := mcpserver.New(cfg, loader, metrics.NewMetrics())
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
