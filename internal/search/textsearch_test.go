package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextSearcher_BasicSearch(t *testing.T) {
	searcher := NewTextSearcher(true)
	content := "fn main() {\n    println(\"Hello\");\n}"

	matches, err := searcher.Search(content, "main")
	require.NoError(t, err)

	require.Len(t, matches, 1)
	assert.Equal(t, 1, matches[0].LineNumber)
	assert.Contains(t, matches[0].LineContent, "main")
}

func TestTextSearcher_CaseInsensitive(t *testing.T) {
	searcher := NewTextSearcher(true)
	content := "fn Main() {}\nfn main() {}"

	matches, err := searcher.Search(content, "main")
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestTextSearcher_CaseSensitive(t *testing.T) {
	searcher := NewTextSearcher(false)
	content := "fn Main() {}\nfn main() {}"

	matches, err := searcher.Search(content, "main")
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestTextSearcher_SearchWord(t *testing.T) {
	searcher := NewTextSearcher(true)
	content := "let mainValue = 1;\nfn main() {}"

	matches, err := searcher.SearchWord(content, "main")
	require.NoError(t, err)

	require.Len(t, matches, 1)
	assert.Contains(t, matches[0].LineContent, "fn main")
}

func TestTextSearcher_SearchRegex(t *testing.T) {
	searcher := NewTextSearcher(true)
	content := "fn test_one() {}\nfn test_two() {}\nfn other() {}"

	matches, err := searcher.SearchRegex(content, `test_\w+`)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestTextSearcher_SkipsComments(t *testing.T) {
	searcher := NewTextSearcher(true)
	content := "// fn main() {}\nfn main() {}"

	matches, err := searcher.Search(content, "main")
	require.NoError(t, err)

	require.Len(t, matches, 1)
	assert.False(t, matches[0].LineContent[:2] == "//")
}

func TestTextSearcher_ScoreCalculation(t *testing.T) {
	searcher := NewTextSearcher(true)
	content := "main\nmain = 1\nlet main = 1"

	matches, err := searcher.Search(content, "main")
	require.NoError(t, err)
	require.Len(t, matches, 3)

	assert.Greater(t, matches[0].Score, matches[2].Score, "exact line match should outscore a substring match")
}
