package search

import (
	"path/filepath"
	"strings"
)

// searchSymbols runs the query's expanded terms through the store's FTS5
// symbol index, scoring each hit by name-match quality, a symbol-kind
// boost, and a slight bonus for shorter names.
func (e *Engine) searchSymbols(query Query, limit int, opts Options) ([]Result, error) {
	var results []Result

	for _, term := range query.AllTerms() {
		symbols, err := e.store.SearchSymbols(term, limit)
		if err != nil {
			return nil, err
		}

		for _, symbol := range symbols {
			if !opts.AcceptsSymbolKind(symbol.Kind) {
				continue
			}

			filePath, err := e.store.GetFilePathByID(symbol.FileID)
			if err != nil || filePath == "" {
				continue
			}

			ext := strings.TrimPrefix(filepath.Ext(filePath), ".")
			if ext != "" && !opts.AcceptsExtension(ext) {
				continue
			}

			content := symbol.Signature
			if content == "" {
				content = symbol.Name
			}

			score := symbolNameScore(symbol.Name, term)
			score *= symbolKindBoost(symbol.Kind)
			score *= 1.0 + (1.0 / (float32(len(symbol.Name)) + 5.0))
			if score > 1.0 {
				score = 1.0
			}

			name := symbol.Name
			kind := symbol.Kind
			matchType := "symbol"
			var docComment *string
			if symbol.DocComment != "" {
				docComment = &symbol.DocComment
			}

			results = append(results, NewResult(
				ResultKindSymbol,
				filePath,
				int(symbol.StartLine),
				int(symbol.EndLine),
				content,
				score,
			).WithMetadata(ResultMetadata{
				SymbolName: &name,
				SymbolKind: &kind,
				MatchType:  &matchType,
				Context:    docComment,
			}))
		}
	}

	return results, nil
}

func symbolNameScore(name, term string) float32 {
	nameLower := strings.ToLower(name)
	termLower := strings.ToLower(term)

	switch {
	case nameLower == termLower:
		return 1.0
	case strings.HasPrefix(nameLower, termLower):
		return 0.85
	case strings.Contains(nameLower, termLower):
		return 0.7
	default:
		return 0.5
	}
}

func symbolKindBoost(kind string) float32 {
	switch kind {
	case "function", "method":
		return 1.15
	case "class", "struct", "trait", "interface":
		return 1.1
	case "enum", "type":
		return 1.05
	case "module":
		return 1.0
	case "constant":
		return 0.95
	case "variable":
		return 0.9
	default:
		return 1.0
	}
}
