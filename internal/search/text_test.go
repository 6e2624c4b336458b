package search

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/semantiq-dev/semantiq/internal/store"
)

func newTestEngine(t *testing.T) (*Engine, *store.Store) {
	t.Helper()
	st, err := store.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	return NewEngineWithOptions(st, t.TempDir(), nil, false), st
}

func indexTestFile(t *testing.T, st *store.Store, path, language, content string) {
	t.Helper()
	fileID, err := st.InsertFile(path, language, content, int64(len(content)), 0)
	require.NoError(t, err)

	err = st.InsertChunks(fileID, []store.ChunkRecord{
		{FileID: fileID, Content: content, StartLine: 1, EndLine: int64(len(content)) + 1},
	})
	require.NoError(t, err)
}

func TestSearchText_FindsMatchingChunk(t *testing.T) {
	e, st := newTestEngine(t)
	indexTestFile(t, st, "auth.go", "go", "func authenticateUser(token string) bool {\n\treturn validateToken(token)\n}")
	indexTestFile(t, st, "math.go", "go", "func add(a, b int) int {\n\treturn a + b\n}")

	results, err := e.searchText(NewQuery("authenticateUser"), 10, Options{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	require.Equal(t, "auth.go", results[0].FilePath)
}

func TestSearchText_RespectsExtensionFilter(t *testing.T) {
	e, st := newTestEngine(t)
	indexTestFile(t, st, "notes.md", "markdown", "authenticateUser is documented here")

	results, err := e.searchText(NewQuery("authenticateUser"), 10, Options{})
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestSearchText_NoMatchReturnsEmpty(t *testing.T) {
	e, st := newTestEngine(t)
	indexTestFile(t, st, "math.go", "go", "func add(a, b int) int {\n\treturn a + b\n}")

	results, err := e.searchText(NewQuery("nonexistentTerm"), 10, Options{})
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestSearchText_RespectsLimit(t *testing.T) {
	e, st := newTestEngine(t)
	for i := 0; i < 5; i++ {
		indexTestFile(t, st, "file"+string(rune('a'+i))+".go", "go", "func handleRequest() { handleRequest() }")
	}

	results, err := e.searchText(NewQuery("handleRequest"), 2, Options{})
	require.NoError(t, err)
	require.LessOrEqual(t, len(results), 2)
}
