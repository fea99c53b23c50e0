package mcpserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/askuser/askuser/internal/config"
	"github.com/askuser/askuser/internal/interact"
	"github.com/askuser/askuser/internal/metrics"
	"github.com/askuser/askuser/internal/registry"
	"github.com/askuser/askuser/internal/telegram"
)

const (
	// ServerName identifies this server to MCP clients.
	ServerName = "askuser"

	// ServerVersion is reported during the MCP handshake.
	ServerVersion = "1.0.0"
)

// TransportFactory builds a chat transport for a routed endpoint. Injected
// so tests can substitute an in-memory transport.
type TransportFactory func(ep registry.Endpoint) (interact.Transport, error)

// Server exposes the ask_user tool over MCP. It owns the channel registry
// for the lifetime of the process and persists registry changes through the
// config loader.
type Server struct {
	cfg     *config.Config
	loader  *config.Loader
	reg     *registry.Registry
	router  *registry.Router
	metrics *metrics.Metrics
	logger  zerolog.Logger

	newTransport TransportFactory

	mcpServer  *mcp.Server
	httpSrv    *http.Server
	metricsSrv *http.Server

	mu sync.Mutex
}

// New creates a server from loaded configuration. The loader may be nil, in
// which case registry changes are not persisted.
func New(cfg *config.Config, loader *config.Loader, m *metrics.Metrics) *Server {
	reg := registry.FromSnapshot(cfg.Channels)

	s := &Server{
		cfg:     cfg,
		loader:  loader,
		reg:     reg,
		router:  registry.NewRouter(reg),
		metrics: m,
		logger:  log.With().Str("component", "mcpserver").Logger(),
	}
	s.newTransport = func(ep registry.Endpoint) (interact.Transport, error) {
		return telegram.New(ep, m)
	}

	mcpSrv := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: ServerVersion,
	}, nil)
	s.registerTools(mcpSrv)
	s.mcpServer = mcpSrv

	return s
}

// registerTools registers all MCP tools with the server.
func (s *Server) registerTools(mcpSrv *mcp.Server) {
	mcp.AddTool(mcpSrv, &mcp.Tool{
		Name: "ask_user",
		Description: "Ask the user a question through their chat channel and wait for the reply. " +
			"Supports predefined options the user can toggle, free-form text, and a continue shortcut.",
	}, s.createAskUserHandler())
}

// Run starts the configured transport and blocks until the context is
// canceled or the transport ends.
func (s *Server) Run(ctx context.Context) error {
	if s.cfg.Metrics.Enabled {
		s.startMetrics()
		defer s.stopMetrics()
	}

	switch s.cfg.Server.Mode {
	case "stdio":
		return s.runStdio(ctx)
	case "http":
		return s.runHTTP(ctx)
	default:
		return fmt.Errorf("unknown server mode: %s", s.cfg.Server.Mode)
	}
}

func (s *Server) runStdio(ctx context.Context) error {
	s.logger.Info().Str("mode", "stdio").Msg("MCP server started")

	session, err := s.mcpServer.Connect(ctx, &mcp.StdioTransport{}, nil)
	if err != nil {
		return fmt.Errorf("failed to connect stdio transport: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- session.Wait() }()

	select {
	case <-ctx.Done():
		session.Close()
		<-done
		return ctx.Err()
	case err := <-done:
		s.logger.Info().Str("mode", "stdio").Msg("MCP server stopped")
		return err
	}
}

func (s *Server) runHTTP(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Server.Addr, err)
	}

	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcpServer
	}, nil)

	mux := http.NewServeMux()
	mux.Handle("/mcp", handler)

	s.mu.Lock()
	s.httpSrv = &http.Server{Handler: mux}
	s.mu.Unlock()

	s.logger.Info().
		Str("mode", "http").
		Str("addr", listener.Addr().String()).
		Msg("MCP server started")

	done := make(chan error, 1)
	go func() { done <- s.httpSrv.Serve(listener) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		<-done
		return ctx.Err()
	case err := <-done:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	}
}

func (s *Server) startMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.metrics.Handler())

	s.metricsSrv = &http.Server{Addr: s.cfg.Metrics.Addr, Handler: mux}
	go func() {
		if err := s.metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Metrics server error")
		}
	}()
	s.logger.Info().Str("addr", s.cfg.Metrics.Addr).Msg("Metrics server started")
}

func (s *Server) stopMetrics() {
	if s.metricsSrv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = s.metricsSrv.Shutdown(ctx)
}

// persist writes the current registry state back through the config loader.
func (s *Server) persist() {
	if s.loader == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cfg.Channels = s.reg.Snapshot()
	if err := s.loader.Save(s.cfg); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to persist registry state")
	}
}
