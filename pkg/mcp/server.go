// Package mcp exposes the class-name transform to editors and agents as an
// MCP server on stdio.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/classwrap/pkg/classnames"
	"github.com/gnana997/classwrap/pkg/mcplog"
	"github.com/gnana997/classwrap/pkg/parser"
	"github.com/gnana997/classwrap/pkg/parser/queries"
	"github.com/gnana997/classwrap/pkg/transform"
)

const serverVersion = "0.1.0-dev"

// Server implements the MCP server for classwrap. Every call builds its own
// rule from the server defaults overlaid with the call's options, so calls
// never share state.
type Server struct {
	mcpServer *server.MCPServer
	parsers   *parser.ParserManager
	queries   *queries.QueryManager
	defaults  classnames.Options
	logger    *mcplog.Logger // nil disables call logging
	log       *slog.Logger
}

// NewServer creates a server. defaults are the options used when a call
// passes none; callLog may be nil.
func NewServer(pm *parser.ParserManager, qm *queries.QueryManager, defaults classnames.Options, callLog *mcplog.Logger, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		parsers:  pm,
		queries:  qm,
		defaults: defaults,
		logger:   callLog,
		log:      logger,
	}

	opts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	}
	if callLog != nil {
		opts = append(opts, server.WithToolHandlerMiddleware(s.loggingMiddleware()))
	}

	s.mcpServer = server.NewMCPServer("classwrap", serverVersion, opts...)
	s.mcpServer.AddTools(
		server.ServerTool{Tool: transformCodeTool(), Handler: s.handleTransformCode},
		server.ServerTool{Tool: analyzeCodeTool(), Handler: s.handleAnalyzeCode},
		server.ServerTool{Tool: resolveOptionsTool(), Handler: s.handleResolveOptions},
	)

	return s
}

// host returns a transform host running the class-name rule for cfg.
func (s *Server) host(cfg classnames.Config) *transform.Host {
	return transform.NewHost(s.parsers, s.queries, s.log, classnames.NewRule(cfg))
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
