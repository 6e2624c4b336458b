package mcp

// SearchInput is the input schema for the semantiq_search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query to execute"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 20"`
}

// SearchOutput wraps the formatted markdown report for semantiq_search.
type SearchOutput struct {
	Report string `json:"report" jsonschema:"human-readable search results"`
}

// FindRefsInput is the input schema for the semantiq_find_refs tool.
type FindRefsInput struct {
	Symbol string `json:"symbol" jsonschema:"the symbol name to find references for"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of references, default 50"`
}

// FindRefsOutput wraps the formatted markdown report for semantiq_find_refs.
type FindRefsOutput struct {
	Report string `json:"report" jsonschema:"human-readable reference listing"`
}

// DepsInput is the input schema for the semantiq_deps tool.
type DepsInput struct {
	FilePath string `json:"file_path" jsonschema:"the file path to analyze dependencies for"`
}

// DepsOutput wraps the formatted markdown report for semantiq_deps.
type DepsOutput struct {
	Report string `json:"report" jsonschema:"human-readable dependency analysis"`
}

// ExplainInput is the input schema for the semantiq_explain tool.
type ExplainInput struct {
	Symbol string `json:"symbol" jsonschema:"the symbol name to explain"`
}

// ExplainOutput wraps the formatted markdown report for semantiq_explain.
type ExplainOutput struct {
	Report string `json:"report" jsonschema:"human-readable symbol explanation"`
}

// defaultSearchLimit, defaultFindRefsLimit are applied when a caller omits
// (or supplies a non-positive) limit.
const (
	defaultSearchLimit   = 20
	defaultFindRefsLimit = 50
)

// clampLimit ensures limit is within [min,max], substituting defaultVal for
// anything non-positive.
func clampLimit(limit, defaultVal, min, max int) int {
	if limit <= 0 {
		return defaultVal
	}
	if limit < min {
		return min
	}
	if limit > max {
		return max
	}
	return limit
}
