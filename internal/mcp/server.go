// Package mcp provides an MCP (Model Context Protocol) server that lets an
// agent drive one archsim session.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/archsim/internal/archetype"
	"github.com/nvandessel/archsim/internal/constants"
	"github.com/nvandessel/archsim/internal/logging"
	"github.com/nvandessel/archsim/internal/metrics"
	"github.com/nvandessel/archsim/internal/ratelimit"
)

// Server wraps the MCP SDK server and owns one simulation session.
type Server struct {
	server *sdk.Server
	root   string

	mu      sync.Mutex
	session *session

	economy      economy
	toolLimiters ratelimit.ToolLimiters
	auditLogger  *AuditLogger
	logger       *slog.Logger
	metrics      *metrics.Registry
	trace        *logging.TickTrace
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "archsim")
	Version string // Server version
	Root    string // Project root directory

	// Architecture seeds the first session. Topology, when set, overrides it.
	Architecture archetype.ArchitectureType
	Topology     string

	StartingMoney      float64
	StartingReputation float64

	// RatePerMinute and Burst size the per-tool limiters.
	RatePerMinute float64
	Burst         int

	Logger  *slog.Logger
	Metrics *metrics.Registry
	Trace   *logging.TickTrace
}

// NewServer creates a new MCP server with archsim tools.
func NewServer(cfg *Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.RatePerMinute <= 0 {
		cfg.RatePerMinute = 120
	}
	if cfg.Burst < 1 {
		cfg.Burst = 20
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	s := &Server{
		server: mcpServer,
		root:   cfg.Root,
		economy: economy{
			money:      cfg.StartingMoney,
			reputation: cfg.StartingReputation,
		},
		toolLimiters: ratelimit.NewToolLimiters(cfg.RatePerMinute, cfg.Burst),
		auditLogger:  NewAuditLogger(filepath.Join(cfg.Root, constants.DefaultDataDir)),
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
		trace:        cfg.Trace,
	}

	sess, err := s.newSession(cfg.Architecture, cfg.Topology)
	if err != nil {
		s.auditLogger.Close()
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	s.session = sess

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Run starts the MCP server over stdio transport.
// This blocks until the client disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	s.logger.Info("mcp server started", "root", s.root, "architecture", s.session.name)
	err := s.server.Run(ctx, &sdk.StdioTransport{})
	s.Close()
	return err
}

// Close releases the audit log. Safe to call more than once.
func (s *Server) Close() error {
	return s.auditLogger.Close()
}
