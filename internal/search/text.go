package search

import (
	"path/filepath"
	"sort"
	"strings"
)

// textIndexCandidateFactor over-fetches from the bleve text index so that
// per-line regex scoring and extension filtering still have enough
// candidates left to fill limit after narrowing down.
const textIndexCandidateFactor = 4

// searchText queries the store's in-memory bleve text index for candidate
// chunks matching any of query's terms, then re-scores individual lines
// within each candidate with the same regex-based scorer textsearch.go
// uses, so ranking stays driven by exact/word-boundary/substring +
// position rather than bleve's own relevance score.
func (e *Engine) searchText(query Query, limit int, opts Options) ([]Result, error) {
	index := e.store.TextIndex()
	if index == nil {
		return nil, nil
	}

	seen := make(map[int64]bool)
	var results []Result

	for _, term := range query.AllTerms() {
		if len(results) >= limit {
			break
		}

		hits, err := index.Search(term, limit*textIndexCandidateFactor)
		if err != nil {
			continue
		}

		for _, hit := range hits {
			if seen[hit.ChunkID] {
				continue
			}
			seen[hit.ChunkID] = true

			filePath, err := e.store.GetFilePathByID(hit.FileID)
			if err != nil || filePath == "" {
				continue
			}

			ext := strings.TrimPrefix(filepath.Ext(filePath), ".")
			if ext != "" && !opts.AcceptsExtension(ext) {
				continue
			}

			for _, m := range e.findTextMatches(hit.Content, query) {
				results = append(results, NewResult(
					ResultKindTextMatch,
					filePath,
					m.lineNumber,
					m.lineNumber,
					m.lineContent,
					m.score,
				))
				if len(results) >= limit {
					break
				}
			}

			if len(results) >= limit {
				break
			}
		}
	}

	sortByScoreDescending(results)
	if len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

type textLineMatch struct {
	lineNumber  int
	lineContent string
	score       float32
}

// findTextMatches runs every expanded query term against content through
// the TextSearcher, keeping the highest-scoring match per distinct line
// and returning them sorted by score descending.
func (e *Engine) findTextMatches(content string, query Query) []textLineMatch {
	searcher := NewDefaultTextSearcher()
	seenLines := make(map[int]bool)
	var matches []textLineMatch

	for _, term := range query.AllTerms() {
		found, err := searcher.Search(content, term)
		if err != nil {
			continue
		}
		for _, m := range found {
			if seenLines[m.LineNumber] {
				continue
			}
			seenLines[m.LineNumber] = true
			matches = append(matches, textLineMatch{
				lineNumber:  m.LineNumber,
				lineContent: m.LineContent,
				score:       m.Score,
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score > matches[j].score })
	return matches
}
