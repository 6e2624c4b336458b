package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semantiq-dev/semantiq/internal/store"
)

func TestServeCmd_HasHTTPPortFlag(t *testing.T) {
	cmd := NewRootCmd()

	serveCmd, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)

	flag := serveCmd.Flags().Lookup("http-port")
	require.NotNil(t, flag, "serve should have --http-port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestServeCmd_HasCORSOriginFlag(t *testing.T) {
	cmd := NewRootCmd()

	serveCmd, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)

	flag := serveCmd.Flags().Lookup("cors-origin")
	require.NotNil(t, flag, "serve should have --cors-origin flag")
	assert.Equal(t, "", flag.DefValue)
}

func TestServeCmd_HasNoUpdateCheckFlag(t *testing.T) {
	cmd := NewRootCmd()

	serveCmd, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)

	flag := serveCmd.Flags().Lookup("no-update-check")
	require.NotNil(t, flag, "serve should have --no-update-check flag")
	assert.Equal(t, "false", flag.DefValue)
}

func TestRunServe_ErrorsWithoutIndex(t *testing.T) {
	tmpDir := t.TempDir()

	oldDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(tmpDir))
	defer func() { _ = os.Chdir(oldDir) }()

	err := runServe(context.Background(), 0, "", true, "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "semantiq index")
}

func TestRunServe_HTTPModeStartsAndStops(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, databaseFileName)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	oldDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(tmpDir))
	defer func() { _ = os.Chdir(oldDir) }()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	err = runServe(ctx, 18089, "", true, "", "")
	assert.NoError(t, err)
}
