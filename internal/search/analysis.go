package search

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DependencyInfo describes one import edge, either a dependency of a file
// or something that depends on it.
type DependencyInfo struct {
	TargetPath string
	ImportName string
	Kind       string
}

// SymbolDefinition is one definition site for a symbol, with its
// signature and doc comment when available.
type SymbolDefinition struct {
	FilePath   string
	Kind       string
	StartLine  int
	EndLine    int
	Signature  string
	DocComment string
}

// SymbolExplanation summarizes everything known about a symbol: its
// definitions, how often it's referenced, and what else lives alongside
// it in the same file.
type SymbolExplanation struct {
	Name           string
	Found          bool
	Definitions    []SymbolDefinition
	UsageCount     int
	RelatedSymbols []string
}

// FindReferences returns every definition of symbolName plus its textual
// usages elsewhere in the tree, capped at limit.
func (e *Engine) FindReferences(symbolName string, limit int) (Results, error) {
	start := time.Now()
	var results []Result

	symbols, err := e.store.FindSymbolByName(symbolName)
	if err != nil {
		return Results{}, err
	}

	for _, symbol := range symbols {
		filePath, err := e.store.GetFilePathByID(symbol.FileID)
		if err != nil || filePath == "" {
			continue
		}

		content, err := e.readFileLines(filePath, int(symbol.StartLine), int(symbol.EndLine))
		if err != nil {
			continue
		}

		name := symbol.Name
		kind := symbol.Kind
		matchType := "definition"
		var signature *string
		if symbol.Signature != "" {
			signature = &symbol.Signature
		}

		results = append(results, NewResult(
			ResultKindSymbol,
			filePath,
			int(symbol.StartLine),
			int(symbol.EndLine),
			content,
			1.0,
		).WithMetadata(ResultMetadata{
			SymbolName: &name,
			SymbolKind: &kind,
			MatchType:  &matchType,
			Context:    signature,
		}))
	}

	usageResults, err := e.searchText(NewQuery(symbolName), limit, Options{})
	if err != nil {
		return Results{}, err
	}
	for _, r := range usageResults {
		r.Kind = ResultKindReference
		usage := "usage"
		r.Metadata.MatchType = &usage
		results = append(results, r)
	}

	if len(results) > limit {
		results = results[:limit]
	}

	elapsed := time.Since(start).Milliseconds()
	return NewResults(symbolName, results, elapsed), nil
}

// GetDependencies returns what filePath imports.
func (e *Engine) GetDependencies(filePath string) ([]DependencyInfo, error) {
	file, err := e.store.GetFileByPath(filePath)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, nil
	}

	records, err := e.store.GetDependencies(file.ID)
	if err != nil {
		return nil, err
	}

	deps := make([]DependencyInfo, len(records))
	for i, r := range records {
		deps[i] = DependencyInfo{TargetPath: r.TargetPath, ImportName: r.ImportName, Kind: r.Kind}
	}
	return deps, nil
}

// GetDependents returns what imports filePath.
func (e *Engine) GetDependents(filePath string) ([]DependencyInfo, error) {
	records, err := e.store.GetDependents(filePath)
	if err != nil {
		return nil, err
	}

	deps := make([]DependencyInfo, 0, len(records))
	for _, r := range records {
		sourcePath, err := e.store.GetFilePathByID(r.SourceFileID)
		if err != nil || sourcePath == "" {
			continue
		}
		deps = append(deps, DependencyInfo{TargetPath: sourcePath, ImportName: r.ImportName, Kind: r.Kind})
	}
	return deps, nil
}

// ExplainSymbol gathers every definition of symbolName, counts its textual
// usages, and lists the other symbols defined alongside it.
func (e *Engine) ExplainSymbol(symbolName string) (SymbolExplanation, error) {
	symbols, err := e.store.FindSymbolByName(symbolName)
	if err != nil {
		return SymbolExplanation{}, err
	}
	if len(symbols) == 0 {
		return SymbolExplanation{Name: symbolName, Found: false}, nil
	}

	var definitions []SymbolDefinition
	related := make(map[string]bool)

	for _, symbol := range symbols {
		filePath, err := e.store.GetFilePathByID(symbol.FileID)
		if err != nil || filePath == "" {
			continue
		}

		definitions = append(definitions, SymbolDefinition{
			FilePath:   filePath,
			Kind:       symbol.Kind,
			StartLine:  int(symbol.StartLine),
			EndLine:    int(symbol.EndLine),
			Signature:  symbol.Signature,
			DocComment: symbol.DocComment,
		})

		fileSymbols, err := e.store.GetSymbolsByFile(symbol.FileID)
		if err != nil {
			continue
		}
		for _, fs := range fileSymbols {
			if fs.Name != symbolName {
				related[fs.Name] = true
			}
		}
	}

	usageResults, err := e.searchText(NewQuery(symbolName), 100, Options{})
	if err != nil {
		return SymbolExplanation{}, err
	}

	relatedNames := make([]string, 0, len(related))
	for name := range related {
		relatedNames = append(relatedNames, name)
	}

	return SymbolExplanation{
		Name:           symbolName,
		Found:          true,
		Definitions:    definitions,
		UsageCount:     len(usageResults),
		RelatedSymbols: relatedNames,
	}, nil
}

// readFileLines reads lines [start,end] (1-indexed, inclusive) from a
// file under the engine's project root.
func (e *Engine) readFileLines(relPath string, start, end int) (string, error) {
	content, err := os.ReadFile(filepath.Join(e.rootPath, relPath))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", relPath, err)
	}

	lines := strings.Split(string(content), "\n")
	startIdx := start - 1
	if startIdx < 0 {
		startIdx = 0
	}
	if startIdx > len(lines) {
		startIdx = len(lines)
	}
	endIdx := end
	if endIdx > len(lines) {
		endIdx = len(lines)
	}
	if startIdx >= endIdx {
		return "", nil
	}

	return strings.Join(lines[startIdx:endIdx], "\n"), nil
}
