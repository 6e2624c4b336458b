package search

import (
	"fmt"
	"regexp"
	"strings"
)

// TextMatch is one line-level hit from TextSearcher.
type TextMatch struct {
	LineNumber  int
	LineContent string
	MatchStart  int
	MatchEnd    int
	Score       float32
}

// TextSearcher scans file content for a literal pattern or raw regex,
// line by line, scoring each hit by match quality and position.
type TextSearcher struct {
	caseInsensitive bool
}

// NewTextSearcher builds a TextSearcher.
func NewTextSearcher(caseInsensitive bool) *TextSearcher {
	return &TextSearcher{caseInsensitive: caseInsensitive}
}

// NewDefaultTextSearcher builds a case-insensitive TextSearcher, the
// common case for code search.
func NewDefaultTextSearcher() *TextSearcher {
	return NewTextSearcher(true)
}

// Search finds every line in content containing pattern as a literal
// substring.
func (s *TextSearcher) Search(content, pattern string) ([]TextMatch, error) {
	return s.searchRegex(content, pattern, regexp.QuoteMeta(pattern))
}

// SearchWord finds every line where pattern appears as a whole word.
func (s *TextSearcher) SearchWord(content, pattern string) ([]TextMatch, error) {
	wordPattern := `\b` + regexp.QuoteMeta(pattern) + `\b`
	return s.searchRegex(content, pattern, wordPattern)
}

// SearchRegex finds every line matching the raw regex pattern.
func (s *TextSearcher) SearchRegex(content, pattern string) ([]TextMatch, error) {
	return s.searchRegex(content, pattern, pattern)
}

func (s *TextSearcher) searchRegex(content, displayPattern, regexPattern string) ([]TextMatch, error) {
	expr := regexPattern
	if s.caseInsensitive {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", regexPattern, err)
	}

	var matches []TextMatch
	lines := strings.Split(content, "\n")
	for i, rawLine := range lines {
		line := strings.TrimSpace(rawLine)
		if line == "" || strings.HasPrefix(line, "//") || strings.HasPrefix(line, "#") {
			continue
		}
		if !re.MatchString(line) {
			continue
		}

		matchStart := strings.Index(strings.ToLower(line), strings.ToLower(displayPattern))
		if matchStart < 0 {
			matchStart = 0
		}
		matchEnd := matchStart + len(displayPattern)

		matches = append(matches, TextMatch{
			LineNumber:  i + 1,
			LineContent: line,
			MatchStart:  matchStart,
			MatchEnd:    matchEnd,
			Score:       calculateTextScore(line, displayPattern, matchStart),
		})
	}

	return matches, nil
}

// calculateTextScore grades a line match: 0.9 for an exact line match,
// 0.7 for a word-boundary match, 0.5 for a plain substring match, then
// scales down slightly the further into the line the match starts.
func calculateTextScore(line, pattern string, matchStart int) float32 {
	lineLower := strings.ToLower(line)
	patternLower := strings.ToLower(pattern)

	var score float32
	switch {
	case lineLower == patternLower:
		score = 0.9
	case matchStart == 0 || !isAlphanumericByte(line, matchStart-1):
		score = 0.7
	default:
		score = 0.5
	}

	positionFactor := 1.0 - (float32(matchStart)/(float32(len(line))+10.0))*0.2
	score *= positionFactor

	if score > 1.0 {
		score = 1.0
	}
	return score
}

func isAlphanumericByte(s string, idx int) bool {
	if idx < 0 || idx >= len(s) {
		return false
	}
	c := s[idx]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
