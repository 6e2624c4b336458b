package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitCmd_CreatesMCPConfig(t *testing.T) {
	tmpDir := t.TempDir()
	createTestProject(t, tmpDir)

	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"init", tmpDir})

	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(filepath.Join(tmpDir, ".mcp.json"))
	require.NoError(t, err)

	var cfg MCPConfig
	require.NoError(t, json.Unmarshal(data, &cfg))

	server, ok := cfg.MCPServers["semantiq"]
	require.True(t, ok)
	assert.Equal(t, "serve", server.Args[0])
	assert.Equal(t, tmpDir, server.Cwd)
}

func TestInitCmd_CreatesProjectConfigTemplate(t *testing.T) {
	tmpDir := t.TempDir()
	createTestProject(t, tmpDir)

	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"init", tmpDir})

	require.NoError(t, cmd.Execute())
	assert.FileExists(t, filepath.Join(tmpDir, ".semantiq.yaml"))
}

func TestInitCmd_PreservesExistingProjectConfig(t *testing.T) {
	tmpDir := t.TempDir()
	createTestProject(t, tmpDir)

	yamlPath := filepath.Join(tmpDir, ".semantiq.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("version: 1\ncustom: true\n"), 0644))

	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"init", tmpDir})

	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(yamlPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "custom: true")
}

func TestInitCmd_AddsUsageGuideToClaudeMD(t *testing.T) {
	tmpDir := t.TempDir()
	createTestProject(t, tmpDir)

	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"init", tmpDir})

	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(filepath.Join(tmpDir, "CLAUDE.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), semantiqGuideStartMarker)
}

func TestInitCmd_AddsDatabaseToGitignore(t *testing.T) {
	tmpDir := t.TempDir()
	createTestProject(t, tmpDir)

	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"init", tmpDir})

	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(filepath.Join(tmpDir, ".gitignore"))
	require.NoError(t, err)
	assert.Contains(t, string(data), databaseFileName)
}

func TestInitCmd_RunsInitialIndex(t *testing.T) {
	tmpDir := t.TempDir()
	createTestProject(t, tmpDir)

	cmd := NewRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"init", tmpDir})

	require.NoError(t, cmd.Execute())
	assert.FileExists(t, filepath.Join(tmpDir, databaseFileName))
	assert.Contains(t, buf.String(), "Indexed")
}

func TestInitCmd_RunsPreflightChecksAndRecordsMarker(t *testing.T) {
	tmpDir := t.TempDir()
	createTestProject(t, tmpDir)

	cmd := NewRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"init", tmpDir})

	require.NoError(t, cmd.Execute())
	assert.FileExists(t, filepath.Join(tmpDir, ".semantiq", ".preflight-passed"))
}

func TestInitCmd_RefusesToReinitializeWithoutForce(t *testing.T) {
	tmpDir := t.TempDir()
	createTestProject(t, tmpDir)

	cmd1 := NewRootCmd()
	cmd1.SetOut(&bytes.Buffer{})
	cmd1.SetArgs([]string{"init", tmpDir})
	require.NoError(t, cmd1.Execute())

	cmd2 := NewRootCmd()
	buf := &bytes.Buffer{}
	cmd2.SetOut(buf)
	cmd2.SetArgs([]string{"init", tmpDir})
	require.NoError(t, cmd2.Execute())

	assert.Contains(t, buf.String(), "already initialized")
}

func TestInitCmd_ForceReinitializes(t *testing.T) {
	tmpDir := t.TempDir()
	createTestProject(t, tmpDir)

	cmd1 := NewRootCmd()
	cmd1.SetOut(&bytes.Buffer{})
	cmd1.SetArgs([]string{"init", tmpDir})
	require.NoError(t, cmd1.Execute())

	cmd2 := NewRootCmd()
	buf := &bytes.Buffer{}
	cmd2.SetOut(buf)
	cmd2.SetArgs([]string{"init", tmpDir, "--force"})
	require.NoError(t, cmd2.Execute())

	assert.Contains(t, buf.String(), "Indexed")
}
