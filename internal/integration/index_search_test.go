package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semantiq-dev/semantiq/internal/config"
	"github.com/semantiq-dev/semantiq/internal/embed"
	"github.com/semantiq-dev/semantiq/internal/indexer"
	"github.com/semantiq-dev/semantiq/internal/search"
	"github.com/semantiq-dev/semantiq/internal/store"
)

// Integration Tests - These test the full flow from indexing to search
// to verify components work together correctly.

// setupIndexedProject writes a small project to disk, runs the bulk
// indexer over it against an in-memory store, and returns both for the
// caller to search against.
func setupIndexedProject(t *testing.T, files map[string]string) (*store.Store, *search.Engine) {
	t.Helper()

	projectDir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(projectDir, name), []byte(content), 0644))
	}

	st, err := store.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	embedder, err := embed.NewEmbeddingModel(context.Background(), embed.ProviderStatic)
	require.NoError(t, err)

	_, err = indexer.NewBulkIndexer(st, embedder, projectDir).Run(context.Background(), false)
	require.NoError(t, err)

	engine := search.NewEngineWithOptions(st, projectDir, embedder, false)
	t.Cleanup(func() { _ = engine.Close() })

	return st, engine
}

func goProjectFiles() map[string]string {
	return map[string]string{
		"main.go": `package main

import "net/http"

// handleRequest is the main HTTP handler function
func handleRequest(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("Hello, World!"))
}

func main() {
	http.HandleFunc("/", handleRequest)
	http.ListenAndServe(":8080", nil)
}
`,
		"util.go": `package main

// formatMessage formats a message with a prefix
func formatMessage(msg string) string {
	return "[APP] " + msg
}

// validateInput checks if input is valid
func validateInput(input string) bool {
	return len(input) > 0
}
`,
	}
}

func multiLangProjectFiles() map[string]string {
	return map[string]string{
		"main.go": `package main

func main() {
	println("Hello from Go")
}
`,
		"index.js": `// JavaScript function
function greet(name) {
	console.log("Hello, " + name);
}
`,
		"script.py": `# Python function
def greet(name):
    print(f"Hello, {name}")
`,
	}
}

// TestIntegration_IndexAndSearch_FindsResults tests the complete flow:
// create files -> index -> search -> get results.
func TestIntegration_IndexAndSearch_FindsResults(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	_, engine := setupIndexedProject(t, goProjectFiles())

	results, err := engine.Search(context.Background(), "handleRequest", 10, search.Options{})
	require.NoError(t, err)
	assert.NotEmpty(t, results.Results, "Search should find results")

	foundHandler := false
	for _, r := range results.Results {
		if r.FilePath == "main.go" {
			foundHandler = true
			break
		}
	}
	assert.True(t, foundHandler, "Should find main.go with the handler function")
}

// TestIntegration_SearchAfterReindex_PicksUpChanges tests that reindexing
// after an edit updates what search returns.
func TestIntegration_SearchAfterReindex_PicksUpChanges(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	files := goProjectFiles()
	projectDir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(projectDir, name), []byte(content), 0644))
	}

	st, err := store.OpenInMemory()
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	embedder, err := embed.NewEmbeddingModel(context.Background(), embed.ProviderStatic)
	require.NoError(t, err)

	_, err = indexer.NewBulkIndexer(st, embedder, projectDir).Run(context.Background(), false)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(projectDir, "util.go")))
	_, err = indexer.NewBulkIndexer(st, embedder, projectDir).Run(context.Background(), false)
	require.NoError(t, err)

	engine := search.NewEngineWithOptions(st, projectDir, embedder, false)
	defer func() { _ = engine.Close() }()

	results, err := engine.Search(context.Background(), "formatMessage", 10, search.Options{})
	require.NoError(t, err)
	for _, r := range results.Results {
		assert.NotEqual(t, "util.go", r.FilePath, "Deleted file should not appear in results")
	}
}

// TestIntegration_EmptyIndex_ReturnsNoResults tests that an empty index
// returns empty results without error.
func TestIntegration_EmptyIndex_ReturnsNoResults(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	st, err := store.OpenInMemory()
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	embedder, err := embed.NewEmbeddingModel(context.Background(), embed.ProviderStatic)
	require.NoError(t, err)

	engine := search.NewEngineWithOptions(st, t.TempDir(), embedder, false)
	defer func() { _ = engine.Close() }()

	results, err := engine.Search(context.Background(), "any query", 10, search.Options{})
	require.NoError(t, err)
	assert.Empty(t, results.Results)
}

// TestIntegration_SearchWithFilters_FiltersResults tests that search
// filters (file type) work correctly.
func TestIntegration_SearchWithFilters_FiltersResults(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	_, engine := setupIndexedProject(t, multiLangProjectFiles())

	results, err := engine.Search(context.Background(), "greet", 10, search.Options{}.WithFileTypes([]string{".go"}))
	require.NoError(t, err)

	for _, r := range results.Results {
		if r.FilePath != "" {
			assert.Equal(t, ".go", filepath.Ext(r.FilePath), "Filtered results should only contain Go files")
		}
	}
}

// TestIntegration_ConcurrentSearches_NoRace tests that concurrent searches
// don't cause race conditions.
func TestIntegration_ConcurrentSearches_NoRace(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	_, engine := setupIndexedProject(t, goProjectFiles())

	done := make(chan bool, 20)
	for i := 0; i < 20; i++ {
		go func(query string) {
			_, err := engine.Search(context.Background(), query, 5, search.Options{})
			assert.NoError(t, err)
			done <- true
		}("test query " + string(rune('a'+i%26)))
	}

	timeout := time.After(10 * time.Second)
	for i := 0; i < 20; i++ {
		select {
		case <-done:
		case <-timeout:
			t.Fatal("Concurrent searches timed out")
		}
	}
}

// =============================================================================
// Config Integration Tests
// =============================================================================

// TestIntegration_ConfigLoad_AppliesDefaults tests that config loading
// works end-to-end with defaults.
func TestIntegration_ConfigLoad_AppliesDefaults(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := config.Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, "", cfg.Embeddings.Provider) // empty resolves to the static provider
}

// TestIntegration_ConfigLoad_WithFile_OverridesDefaults tests that
// config file values override defaults for YAML-accessible fields.
func TestIntegration_ConfigLoad_WithFile_OverridesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configContent := `
version: 1
search:
  chunk_size: 2000
embeddings:
  provider: static
`
	err := os.WriteFile(filepath.Join(tmpDir, ".semantiq.yaml"), []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := config.Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, 2000, cfg.Search.ChunkSize)
	assert.Equal(t, "static", cfg.Embeddings.Provider)
}
