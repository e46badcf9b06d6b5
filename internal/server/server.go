// Package server exposes a running engine as Model Context Protocol tools,
// so agents can inspect and drive the tiler without shelling out.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/mj1618/droidtile/internal/model"
	"github.com/mj1618/droidtile/internal/reconcile"
	"github.com/mj1618/droidtile/internal/workspace"
)

// Transports accepted by Serve.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Controller is the part of the engine the tools drive.
type Controller interface {
	Snapshots() []model.Snapshot
	SwitchWorkspace(displayID, index int) error
	ForceRefreshLayout(displayID int) error
	WindowAction(pkg, action string) error
	Config() *workspace.Config
	Settings() reconcile.Settings
}

// Options configure the MCP server.
type Options struct {
	// Backend is reported by the status tool.
	Backend string
	Version string
	Logger  zerolog.Logger
}

// Server wraps the MCP server with the engine it controls.
type Server struct {
	ctl     Controller
	backend string
	log     zerolog.Logger
	mcp     *mcpserver.MCPServer
}

// New creates a server with every tool registered.
func New(ctl Controller, opts Options) *Server {
	if opts.Version == "" {
		opts.Version = "dev"
	}
	s := &Server{
		ctl:     ctl,
		backend: opts.Backend,
		log:     opts.Logger.With().Str("component", "mcp").Logger(),
	}
	s.mcp = mcpserver.NewMCPServer("droidtile", opts.Version)
	s.registerTools()
	return s
}

// MCP returns the underlying server.
func (s *Server) MCP() *mcpserver.MCPServer { return s.mcp }

// Serve blocks serving transport until ctx is cancelled or the transport
// fails. addr is only used by the http transport.
func (s *Server) Serve(ctx context.Context, transport, addr string) error {
	switch transport {
	case TransportStdio, "":
		s.log.Info().Msg("serving MCP on stdio")
		err := mcpserver.NewStdioServer(s.mcp).Listen(ctx, os.Stdin, os.Stdout)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("stdio transport: %w", err)
		}
		return nil
	case TransportHTTP:
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		errc := make(chan error, 1)
		go func() { errc <- httpServer.Start(addr) }()
		s.log.Info().Str("addr", addr).Msg("serving MCP on streamable http")

		select {
		case err := <-errc:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http transport: %w", err)
			}
			return nil
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("http shutdown: %w", err)
			}
			return nil
		}
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or http)", transport)
	}
}
