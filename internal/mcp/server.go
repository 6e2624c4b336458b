package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/semantiq-dev/semantiq/internal/search"
	"github.com/semantiq-dev/semantiq/pkg/version"
)

// Server is the MCP server exposing semantiq's retrieval engine to AI
// clients over the Model Context Protocol. Every tool returns
// human-readable markdown, not structured JSON: the caller is an LLM, not
// a program parsing a schema.
type Server struct {
	mcp    *mcp.Server
	engine *search.Engine
	logger *slog.Logger
}

// NewServer builds an MCP server bound to engine and registers its four
// tools: semantiq_search, semantiq_find_refs, semantiq_deps, semantiq_explain.
func NewServer(engine *search.Engine) (*Server, error) {
	if engine == nil {
		return nil, errors.New("search engine is required")
	}

	s := &Server{
		engine: engine,
		logger: slog.Default(),
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "semantiq",
			Version: version.Version,
		},
		nil,
	)

	s.registerTools()

	return s, nil
}

// MCPServer returns the underlying SDK server, for transports that need
// to drive it directly.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// registerTools wires all four tools into the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "semantiq_search",
		Description: "Search the indexed codebase by symbol name, text, or meaning. Fuses semantic, symbol, and textual matches into one ranked result set.",
	}, s.mcpSearchHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "semantiq_find_refs",
		Description: "Find every definition and usage of a symbol across the indexed tree.",
	}, s.mcpFindRefsHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "semantiq_deps",
		Description: "List what a file imports and what imports it.",
	}, s.mcpDepsHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "semantiq_explain",
		Description: "Explain a symbol: its definitions, signatures, doc comments, usage count, and related symbols.",
	}, s.mcpExplainHandler)

	s.logger.Debug("registered MCP tools", slog.Int("count", 4))
}

// mcpSearchHandler is the MCP SDK handler for semantiq_search.
func (s *Server) mcpSearchHandler(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (
	*mcp.CallToolResult,
	SearchOutput,
	error,
) {
	requestID := generateRequestID()

	if input.Query == "" {
		return nil, SearchOutput{}, NewInvalidParamsError("query parameter is required")
	}
	limit := clampLimit(input.Limit, defaultSearchLimit, 1, 200)

	s.logger.Info("semantiq_search", slog.String("request_id", requestID), slog.String("query", input.Query), slog.Int("limit", limit))

	results, err := s.engine.Search(ctx, input.Query, limit, search.Options{})
	if err != nil {
		return nil, SearchOutput{}, MapError(err)
	}

	return nil, SearchOutput{Report: formatSearchResults(input.Query, results)}, nil
}

// mcpFindRefsHandler is the MCP SDK handler for semantiq_find_refs.
func (s *Server) mcpFindRefsHandler(_ context.Context, _ *mcp.CallToolRequest, input FindRefsInput) (
	*mcp.CallToolResult,
	FindRefsOutput,
	error,
) {
	requestID := generateRequestID()

	if input.Symbol == "" {
		return nil, FindRefsOutput{}, NewInvalidParamsError("symbol parameter is required")
	}
	limit := clampLimit(input.Limit, defaultFindRefsLimit, 1, 500)

	s.logger.Info("semantiq_find_refs", slog.String("request_id", requestID), slog.String("symbol", input.Symbol), slog.Int("limit", limit))

	results, err := s.engine.FindReferences(input.Symbol, limit)
	if err != nil {
		return nil, FindRefsOutput{}, MapError(err)
	}

	return nil, FindRefsOutput{Report: formatFindRefs(input.Symbol, results)}, nil
}

// mcpDepsHandler is the MCP SDK handler for semantiq_deps.
func (s *Server) mcpDepsHandler(_ context.Context, _ *mcp.CallToolRequest, input DepsInput) (
	*mcp.CallToolResult,
	DepsOutput,
	error,
) {
	requestID := generateRequestID()

	if input.FilePath == "" {
		return nil, DepsOutput{}, NewInvalidParamsError("file_path parameter is required")
	}

	s.logger.Info("semantiq_deps", slog.String("request_id", requestID), slog.String("file_path", input.FilePath))

	imports, err := s.engine.GetDependencies(input.FilePath)
	if err != nil {
		return nil, DepsOutput{}, MapError(err)
	}
	importedBy, err := s.engine.GetDependents(input.FilePath)
	if err != nil {
		return nil, DepsOutput{}, MapError(err)
	}

	return nil, DepsOutput{Report: formatDeps(input.FilePath, imports, importedBy)}, nil
}

// mcpExplainHandler is the MCP SDK handler for semantiq_explain.
func (s *Server) mcpExplainHandler(_ context.Context, _ *mcp.CallToolRequest, input ExplainInput) (
	*mcp.CallToolResult,
	ExplainOutput,
	error,
) {
	requestID := generateRequestID()

	if input.Symbol == "" {
		return nil, ExplainOutput{}, NewInvalidParamsError("symbol parameter is required")
	}

	s.logger.Info("semantiq_explain", slog.String("request_id", requestID), slog.String("symbol", input.Symbol))

	explanation, err := s.engine.ExplainSymbol(input.Symbol)
	if err != nil {
		return nil, ExplainOutput{}, MapError(err)
	}

	return nil, ExplainOutput{Report: formatExplain(explanation)}, nil
}

// Serve runs the server over stdio until ctx is canceled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting MCP server", slog.String("transport", "stdio"))
	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("MCP server stopped with error", slog.String("error", err.Error()))
		return fmt.Errorf("mcp serve: %w", err)
	}
	s.logger.Info("MCP server stopped")
	return nil
}

// generateRequestID creates a short unique request ID for log correlation.
func generateRequestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
