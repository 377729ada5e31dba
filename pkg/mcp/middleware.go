package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/classwrap/pkg/mcplog"
)

// loggingMiddleware records every tool call in the server's call log. Only
// installed when the log is non-nil.
func (s *Server) loggingMiddleware() server.ToolHandlerMiddleware {
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			start := mcplog.Now()
			result, err := next(ctx, req)

			if logErr := s.logger.Record(req.Params.Name, req.GetArguments(), start, result, err); logErr != nil {
				s.log.Warn("Failed to write call log", "tool", req.Params.Name, "error", logErr)
			}
			return result, err
		}
	}
}
