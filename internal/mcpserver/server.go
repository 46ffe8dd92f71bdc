// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes documentation intelligence tools for LLM integration
// via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ansuz/internal/engine"
	"github.com/starford/ansuz/internal/storage"
)

// Server wraps the MCP server with Ansuz tools.
type Server struct {
	mcp   *server.MCPServer
	eng   *engine.Engine
	store storage.Provider
}

// New creates an MCP server with all tools registered.
func New(eng *engine.Engine, store storage.Provider) *Server {
	s := &Server{eng: eng, store: store}

	s.mcp = server.NewMCPServer(
		"Ansuz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_docs",
		mcp.WithDescription("Intent-aware ranked search over the documentation corpus. "+
			"Combines semantic similarity, relationship graph expansion, exact keyword "+
			"matches, and freshness."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Natural language search query")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 10)")),
	), s.searchDocs)

	s.mcp.AddTool(mcp.NewTool("health_report",
		mcp.WithDescription("Returns the latest corpus health report: per-dimension "+
			"metrics, overall status, and recommendations."),
	), s.healthReport)

	s.mcp.AddTool(mcp.NewTool("read_document",
		mcp.WithDescription("Read the full content of a documentation file."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document (e.g. 4.x-transport/wal.md)")),
	), s.readDocument)

	s.mcp.AddTool(mcp.NewTool("graph_neighbors",
		mcp.WithDescription("List the documents most strongly related to the given one, "+
			"with relationship weights."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path of the document")),
	), s.graphNeighbors)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchDocs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := req.GetInt("limit", 10)

	results, intentName, err := s.eng.Search(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(map[string]any{
		"intent":  intentName,
		"results": results,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) healthReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := s.eng.Report()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(report, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.store.Read(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) graphNeighbors(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !s.eng.Corpus().Has(path) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	out, _ := json.MarshalIndent(s.eng.Graph().Neighbors(path), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
