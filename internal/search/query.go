package search

import (
	"strings"
	"unicode"
)

// Query pairs the raw search text with the case-variant terms derived from
// it, plus optional structural filters.
type Query struct {
	Text          string
	ExpandedTerms []string
	Filters       QueryFilters
}

// QueryFilters narrows a search to particular languages, file glob
// patterns, symbol kinds, or whether test files are included.
type QueryFilters struct {
	Languages    []string
	FilePatterns []string
	SymbolKinds  []string
	IncludeTests bool
}

// NewQuery builds a Query, expanding text into its case-variant terms.
func NewQuery(text string) Query {
	return Query{
		Text:          text,
		ExpandedTerms: ExpandQuery(text),
		Filters:       QueryFilters{},
	}
}

// WithFilters returns a copy of q with its filters replaced.
func (q Query) WithFilters(filters QueryFilters) Query {
	q.Filters = filters
	return q
}

// AllTerms returns the original text followed by every expanded term.
func (q Query) AllTerms() []string {
	terms := make([]string, 0, 1+len(q.ExpandedTerms))
	terms = append(terms, q.Text)
	terms = append(terms, q.ExpandedTerms...)
	return terms
}

// ExpandQuery splits text on whitespace and generates case-variant forms
// of each term (snake_case, camelCase, PascalCase, kebab-case), deduped
// case-insensitively and excluding the original text itself.
func ExpandQuery(text string) []string {
	var expanded []string

	for _, term := range strings.Fields(text) {
		expanded = append(expanded, caseVariations(term)...)
	}

	seen := make(map[string]bool)
	textLower := strings.ToLower(text)
	result := make([]string, 0, len(expanded))
	for _, variant := range expanded {
		normalized := strings.ToLower(variant)
		if seen[normalized] || normalized == textLower {
			continue
		}
		seen[normalized] = true
		result = append(result, variant)
	}
	return result
}

func caseVariations(term string) []string {
	var variations []string

	if strings.Contains(term, "_") {
		variations = append(variations, snakeToCamel(term), snakeToPascal(term))
	}
	if isCamelCase(term) {
		variations = append(variations, camelToSnake(term))
	}
	if isPascalCase(term) {
		variations = append(variations, camelToSnake(term), pascalToCamel(term))
	}
	if strings.Contains(term, "-") {
		variations = append(variations, strings.ReplaceAll(term, "-", "_"), kebabToCamel(term))
	}

	return variations
}

func snakeToCamel(s string) string {
	var b strings.Builder
	capitalizeNext := false
	for _, c := range s {
		switch {
		case c == '_':
			capitalizeNext = true
		case capitalizeNext:
			b.WriteRune(unicode.ToUpper(c))
			capitalizeNext = false
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}

func snakeToPascal(s string) string {
	return capitalizeFirst(snakeToCamel(s))
}

func camelToSnake(s string) string {
	var b strings.Builder
	for i, c := range s {
		if unicode.IsUpper(c) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(c))
		} else {
			b.WriteRune(c)
		}
	}
	return b.String()
}

func pascalToCamel(s string) string {
	return lowerFirst(s)
}

func kebabToCamel(s string) string {
	return snakeToCamel(strings.ReplaceAll(s, "-", "_"))
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// isCamelCase reports whether s starts lowercase and contains at least
// one later uppercase letter.
func isCamelCase(s string) bool {
	runes := []rune(s)
	if len(runes) == 0 || !unicode.IsLower(runes[0]) {
		return false
	}
	for _, c := range runes[1:] {
		if unicode.IsUpper(c) {
			return true
		}
	}
	return false
}

// isPascalCase reports whether s starts uppercase and contains at least
// one more letter after it.
func isPascalCase(s string) bool {
	runes := []rune(s)
	if len(runes) == 0 || !unicode.IsUpper(runes[0]) {
		return false
	}
	for _, c := range runes[1:] {
		if unicode.IsUpper(c) || unicode.IsLower(c) {
			return true
		}
	}
	return false
}

// DefaultMinScore is the minimum fused score a result must clear to be
// returned when the caller doesn't specify one.
const DefaultMinScore float32 = 0.35

// excludedExtensions are file extensions skipped by default since they're
// rarely useful semantic-search targets (lockfiles, data, docs).
var excludedExtensions = map[string]bool{
	"json": true, "lock": true, "yaml": true, "yml": true,
	"md": true, "txt": true, "toml": true, "xml": true,
	"csv": true, "log": true, "env": true, "gitignore": true,
	"dockerignore": true, "editorconfig": true, "prettierrc": true,
	"eslintrc": true,
}

// ValidSymbolKinds lists the symbol kinds a caller may filter on.
var ValidSymbolKinds = []string{
	"function", "method", "class", "struct", "enum",
	"interface", "trait", "module", "variable", "constant", "type",
}

// Options configures one search call: score threshold plus optional file
// type and symbol kind filters.
type Options struct {
	MinScore    *float32
	FileTypes   []string
	SymbolKinds []string
}

// WithMinScore returns a copy of o with MinScore set, clamped to [0,1].
func (o Options) WithMinScore(score float32) Options {
	if score < 0 {
		score = 0
	} else if score > 1 {
		score = 1
	}
	o.MinScore = &score
	return o
}

// WithFileTypes returns a copy of o restricted to the given extensions.
func (o Options) WithFileTypes(fileTypes []string) Options {
	o.FileTypes = fileTypes
	return o
}

// WithSymbolKinds returns a copy of o restricted to the given symbol kinds.
func (o Options) WithSymbolKinds(symbolKinds []string) Options {
	o.SymbolKinds = symbolKinds
	return o
}

// EffectiveMinScore returns the configured MinScore, or DefaultMinScore.
func (o Options) EffectiveMinScore() float32 {
	if o.MinScore != nil {
		return *o.MinScore
	}
	return DefaultMinScore
}

// AcceptsExtension reports whether ext passes this Options' file type
// filter: if FileTypes is set, ext must appear in it (case-insensitively);
// otherwise ext must not be in the default excluded set.
func (o Options) AcceptsExtension(ext string) bool {
	extLower := strings.ToLower(ext)
	if o.FileTypes != nil {
		for _, ft := range o.FileTypes {
			if strings.ToLower(ft) == extLower {
				return true
			}
		}
		return false
	}
	return !excludedExtensions[extLower]
}

// AcceptsSymbolKind reports whether kind passes this Options' symbol kind
// filter, accepting everything when no filter is set.
func (o Options) AcceptsSymbolKind(kind string) bool {
	if o.SymbolKinds == nil {
		return true
	}
	kindLower := strings.ToLower(kind)
	for _, sk := range o.SymbolKinds {
		if strings.ToLower(sk) == kindLower {
			return true
		}
	}
	return false
}

// ParseCSV splits a comma-separated string into trimmed, lowercased,
// non-empty parts.
func ParseCSV(input string) []string {
	var result []string
	for _, part := range strings.Split(input, ",") {
		trimmed := strings.ToLower(strings.TrimSpace(part))
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
