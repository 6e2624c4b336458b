package httpapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/semantiq-dev/semantiq/internal/search"
)

// health reports liveness; it never touches the store, so it stays
// responsive even if the database connection is wedged.
func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// stats reports index size counters.
func (s *Server) stats(c echo.Context) error {
	st, err := s.store.GetStats()
	if err != nil {
		s.logger.Error("stats failed", "error", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to read index stats"})
	}

	return c.JSON(http.StatusOK, statsResponse{
		FileCount:       st.FileCount,
		SymbolCount:     st.SymbolCount,
		ChunkCount:      st.ChunkCount,
		DependencyCount: st.DependencyCount,
	})
}

// search runs the fused retrieval pipeline and returns the raw Results.
func (s *Server) search(c echo.Context) error {
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	if strings.TrimSpace(req.Query) == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "query is required"})
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}

	results, err := s.engine.Search(c.Request().Context(), req.Query, limit, search.Options{})
	if err != nil {
		s.logger.Error("search failed", "query", req.Query, "error", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "search failed"})
	}

	return c.JSON(http.StatusOK, results)
}

// findRefs returns every definition and usage of a symbol.
func (s *Server) findRefs(c echo.Context) error {
	var req findRefsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	if strings.TrimSpace(req.Symbol) == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "symbol is required"})
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}

	results, err := s.engine.FindReferences(req.Symbol, limit)
	if err != nil {
		s.logger.Error("find-refs failed", "symbol", req.Symbol, "error", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "find-refs failed"})
	}

	return c.JSON(http.StatusOK, results)
}

// deps returns a file's import and importer edges.
func (s *Server) deps(c echo.Context) error {
	var req depsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	if strings.TrimSpace(req.FilePath) == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "file_path is required"})
	}

	imports, err := s.engine.GetDependencies(req.FilePath)
	if err != nil {
		s.logger.Error("deps failed", "file_path", req.FilePath, "error", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "deps failed"})
	}
	importedBy, err := s.engine.GetDependents(req.FilePath)
	if err != nil {
		s.logger.Error("deps failed", "file_path", req.FilePath, "error", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "deps failed"})
	}

	return c.JSON(http.StatusOK, depsResponse{
		FilePath:   req.FilePath,
		Imports:    toDepEdges(imports),
		ImportedBy: toDepEdges(importedBy),
	})
}

// explain returns a symbol's definitions, usage count, and related symbols.
func (s *Server) explain(c echo.Context) error {
	var req explainRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	if strings.TrimSpace(req.Symbol) == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "symbol is required"})
	}

	explanation, err := s.engine.ExplainSymbol(req.Symbol)
	if err != nil {
		s.logger.Error("explain failed", "symbol", req.Symbol, "error", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "explain failed"})
	}

	return c.JSON(http.StatusOK, explanation)
}

func toDepEdges(deps []search.DependencyInfo) []depEdge {
	edges := make([]depEdge, len(deps))
	for i, d := range deps {
		edges[i] = depEdge{TargetPath: d.TargetPath, ImportName: d.ImportName, Kind: d.Kind}
	}
	return edges
}
