package store

import (
	"regexp"
	"strings"
	"unicode"
)

// tokenRegex matches alphanumeric identifier runs, the first split pass
// before camelCase/snake_case are pulled apart.
var tokenRegex = regexp.MustCompile(`[a-zA-Z0-9_]+`)

// defaultCodeStopWords are filtered out of indexed and query tokens: common
// keywords and punctuation-adjacent words that would otherwise dominate
// every chunk's term frequency.
var defaultCodeStopWords = []string{
	"the", "a", "an", "is", "are", "was", "were", "be", "been", "being",
	"if", "else", "for", "while", "do", "return", "func", "function",
	"var", "let", "const", "this", "self", "null", "nil", "true", "false",
}

// TokenizeCode splits text with code-aware rules: camelCase, PascalCase,
// and snake_case identifiers are split into their constituent words,
// everything is lowercased, and tokens shorter than 2 characters are
// dropped.
func TokenizeCode(text string) []string {
	var tokens []string

	for _, word := range tokenRegex.FindAllString(text, -1) {
		for _, t := range splitCodeToken(word) {
			lower := strings.ToLower(t)
			if len(lower) >= 2 {
				tokens = append(tokens, lower)
			}
		}
	}

	return tokens
}

func splitCodeToken(token string) []string {
	if strings.Contains(token, "_") {
		var result []string
		for _, part := range strings.Split(token, "_") {
			if part != "" {
				result = append(result, splitCamelCase(part)...)
			}
		}
		return result
	}
	return splitCamelCase(token)
}

// splitCamelCase splits camelCase and PascalCase identifiers, treating a
// run of uppercase letters followed by a lowercase letter as an acronym
// boundary (e.g. "parseHTTPRequest" -> "parse", "HTTP", "Request").
func splitCamelCase(s string) []string {
	if s == "" {
		return []string{}
	}

	var result []string
	var current strings.Builder

	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevIsLower := unicode.IsLower(runes[i-1])
			nextIsLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevIsLower || nextIsLower {
				if current.Len() > 0 {
					result = append(result, current.String())
					current.Reset()
				}
			}
		}
		current.WriteRune(r)
	}
	if current.Len() > 0 {
		result = append(result, current.String())
	}

	return result
}

// buildStopWordMap converts a stop word slice to a lookup set.
func buildStopWordMap(stopWords []string) map[string]struct{} {
	m := make(map[string]struct{}, len(stopWords))
	for _, word := range stopWords {
		m[strings.ToLower(word)] = struct{}{}
	}
	return m
}
