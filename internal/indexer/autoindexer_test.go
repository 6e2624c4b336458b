package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semantiq-dev/semantiq/internal/store"
	"github.com/semantiq-dev/semantiq/internal/watcher"
)

// fakeWatcher is a Watcher whose PollEvents returns a fixed, pre-loaded
// batch exactly once, then empty batches thereafter.
type fakeWatcher struct {
	pending []watcher.FileEvent
}

func (f *fakeWatcher) Start(context.Context, string) error { return nil }
func (f *fakeWatcher) Stop() error                          { return nil }
func (f *fakeWatcher) Events() <-chan []watcher.FileEvent    { return nil }
func (f *fakeWatcher) Errors() <-chan error                  { return nil }

func (f *fakeWatcher) PollEvents(context.Context) []watcher.FileEvent {
	events := f.pending
	f.pending = nil
	return events
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAutoIndexer_ProcessEvents_IndexesCreatedFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte("package main\n\nfunc main() {}\n"), 0o644))

	s := newTestStore(t)
	w := &fakeWatcher{pending: []watcher.FileEvent{
		{Path: "main.go", Operation: watcher.OpCreate},
	}}

	idx := NewAutoIndexer(s, w, root)
	result, err := idx.ProcessEvents(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Indexed)
	assert.Equal(t, 0, result.Errors)

	rec, err := s.GetFileByPath("main.go")
	require.NoError(t, err)
	require.NotNil(t, rec)
}

func TestAutoIndexer_ProcessEvents_RemovesDeletedFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "old.go")
	require.NoError(t, os.WriteFile(path, []byte("package main\n"), 0o644))

	s := newTestStore(t)
	_, err := s.InsertFile("old.go", "go", "package main\n", 10, 0)
	require.NoError(t, err)

	w := &fakeWatcher{pending: []watcher.FileEvent{
		{Path: "old.go", Operation: watcher.OpDelete},
	}}

	idx := NewAutoIndexer(s, w, root)
	result, err := idx.ProcessEvents(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Removed)

	rec, err := s.GetFileByPath("old.go")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestAutoIndexer_ProcessEvents_NoEventsIsNoop(t *testing.T) {
	s := newTestStore(t)
	w := &fakeWatcher{}
	idx := NewAutoIndexer(s, w, t.TempDir())

	result, err := idx.ProcessEvents(context.Background())

	require.NoError(t, err)
	assert.Equal(t, ProcessResult{}, result)
}

func TestAutoIndexer_ProcessEvents_SkipsUnsupportedLanguage(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("just text"), 0o644))

	s := newTestStore(t)
	w := &fakeWatcher{pending: []watcher.FileEvent{
		{Path: "notes.txt", Operation: watcher.OpCreate},
	}}

	idx := NewAutoIndexer(s, w, root)
	result, err := idx.ProcessEvents(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Indexed, "unsupported language is a silent no-op, not an error")

	rec, err := s.GetFileByPath("notes.txt")
	require.NoError(t, err)
	assert.Nil(t, rec)
}
