package search

import (
	"fmt"
	"sort"
)

// ResultKind identifies which strategy produced a SearchResult.
type ResultKind string

const (
	ResultKindSymbol        ResultKind = "symbol"
	ResultKindTextMatch     ResultKind = "text_match"
	ResultKindSemanticMatch ResultKind = "semantic_match"
	ResultKindReference     ResultKind = "reference"
)

// ResultMetadata carries strategy-specific detail about a match.
type ResultMetadata struct {
	SymbolName *string `json:"symbol_name,omitempty"`
	SymbolKind *string `json:"symbol_kind,omitempty"`
	MatchType  *string `json:"match_type,omitempty"`
	Context    *string `json:"context,omitempty"`
}

// Result is one fused search hit.
type Result struct {
	Kind      ResultKind     `json:"kind"`
	FilePath  string         `json:"file_path"`
	StartLine int            `json:"start_line"`
	EndLine   int            `json:"end_line"`
	Content   string         `json:"content"`
	Score     float32        `json:"score"`
	Metadata  ResultMetadata `json:"metadata"`
}

// NewResult builds a Result with empty metadata.
func NewResult(kind ResultKind, filePath string, startLine, endLine int, content string, score float32) Result {
	return Result{
		Kind:      kind,
		FilePath:  filePath,
		StartLine: startLine,
		EndLine:   endLine,
		Content:   content,
		Score:     score,
	}
}

// WithMetadata returns a copy of r with its metadata replaced.
func (r Result) WithMetadata(metadata ResultMetadata) Result {
	r.Metadata = metadata
	return r
}

// Location formats the result's position as "path:line" or
// "path:start-end" for a multi-line span.
func (r Result) Location() string {
	if r.StartLine == r.EndLine {
		return fmt.Sprintf("%s:%d", r.FilePath, r.StartLine)
	}
	return fmt.Sprintf("%s:%d-%d", r.FilePath, r.StartLine, r.EndLine)
}

// Results is a scored, ordered batch of search hits for one query.
type Results struct {
	Query        string   `json:"query"`
	Results      []Result `json:"results"`
	TotalCount   int      `json:"total_count"`
	SearchTimeMs int64    `json:"search_time_ms"`
}

// NewResults wraps results with the query text and elapsed time.
func NewResults(query string, results []Result, searchTimeMs int64) Results {
	return Results{
		Query:        query,
		Results:      results,
		TotalCount:   len(results),
		SearchTimeMs: searchTimeMs,
	}
}

// IsEmpty reports whether no results were found.
func (r Results) IsEmpty() bool {
	return len(r.Results) == 0
}

// Top returns the first n results, or all of them if fewer than n exist.
func (r Results) Top(n int) []Result {
	if n > len(r.Results) {
		n = len(r.Results)
	}
	return r.Results[:n]
}

// Merge appends other's results into r and re-sorts by score descending,
// treating NaN scores as equal rather than panicking or misordering.
func (r *Results) Merge(other Results) {
	r.Results = append(r.Results, other.Results...)
	sortByScoreDescending(r.Results)
	r.TotalCount = len(r.Results)
}

// sortByScoreDescending orders results by score, highest first, with a
// stable tie-break so NaN scores (which compare false against everything)
// never produce a panic or an unstable order.
func sortByScoreDescending(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}
