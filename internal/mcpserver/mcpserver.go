// Package mcpserver exposes the research agent as an MCP tool.
package mcpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ashureev/websearch-agent/internal/domain"
)

// ToolName is the MCP tool that produces research reports.
const ToolName = "research"

// Researcher produces a report for a query.
type Researcher interface {
	Research(ctx context.Context, query string, onEvent domain.EventFunc) (*domain.Report, error)
}

// New creates an MCP server with the research tool.
func New(name, version string, researcher Researcher) *server.MCPServer {
	s := server.NewMCPServer(
		name,
		version,
		server.WithToolCapabilities(true),
	)

	tool := mcp.NewTool(ToolName,
		mcp.WithDescription("Research a question on the web and return a sourced markdown report with an overview, sections and a conclusion."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Research question (e.g. 'Analyze renewable energy initiatives in Scandinavia')"),
		),
	)
	s.AddTool(tool, researchHandler(researcher))

	return s
}

// Handler returns the streamable HTTP transport for s.
func Handler(s *server.MCPServer) http.Handler {
	return server.NewStreamableHTTPServer(s)
}

func researchHandler(researcher Researcher) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := req.GetString("query", "")

		report, err := researcher.Research(ctx, query, nil)
		if errors.Is(err, domain.ErrEmptyQuery) {
			return mcp.NewToolResultError(domain.EmptyQueryNotice), nil
		}
		if err != nil {
			slog.Warn("mcp research failed", "error", err)
			return mcp.NewToolResultError("research failed: " + err.Error()), nil
		}

		return mcp.NewToolResultText(report.Markdown), nil
	}
}
