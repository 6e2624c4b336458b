package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/semantiq-dev/semantiq/configs"
	"github.com/semantiq-dev/semantiq/internal/config"
	"github.com/semantiq-dev/semantiq/internal/embed"
	"github.com/semantiq-dev/semantiq/internal/indexer"
	"github.com/semantiq-dev/semantiq/internal/output"
	"github.com/semantiq-dev/semantiq/internal/preflight"
	"github.com/semantiq-dev/semantiq/internal/store"
	"github.com/semantiq-dev/semantiq/pkg/version"
)

// MCPServerConfig is one entry of .mcp.json's mcpServers map.
type MCPServerConfig struct {
	Type    string            `json:"type,omitempty"`
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Cwd     string            `json:"cwd,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// MCPConfig is the root .mcp.json structure.
type MCPConfig struct {
	MCPServers map[string]MCPServerConfig `json:"mcpServers"`
}

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Scaffold workspace config and run the initial index",
		Long: `Init prepares a project to be served by semantiq.

It configures MCP client integration (.mcp.json), writes a
.semantiq.yaml template with commented defaults, adds a usage guide to
CLAUDE.md, makes sure .semantiq.db is excluded from version control,
and then runs a full index of the project.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			return runInit(ctx, cmd, path, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing .mcp.json configuration")

	return cmd
}

const semantiqGuideStartMarker = "<!-- semantiq:start -->"

const semantiqGuideContent = `<!-- semantiq:start -->
## semantiq search (use by default)

**semantiq answers "WHAT implements this?"** - returns full symbols with context
**Grep answers "WHERE does this word appear?"** - returns line fragments only

| Need | Tool |
|------|------|
| Implementation | ` + "`semantiq_search`" + ` |
| References | ` + "`semantiq_find_refs`" + ` |
| Dependencies | ` + "`semantiq_deps`" + ` |
| Symbol explanation | ` + "`semantiq_explain`" + ` |
| Exact text | Grep |
| File paths | Glob |
<!-- semantiq:end -->
`

func hasSemantiqGuide(path string) (bool, error) {
	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading CLAUDE.md: %w", err)
	}
	return strings.Contains(string(content), semantiqGuideStartMarker), nil
}

func ensureSemantiqGuide(path string) (bool, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(path, []byte(semantiqGuideContent), 0644); err != nil {
			return false, fmt.Errorf("creating CLAUDE.md: %w", err)
		}
		return true, nil
	}

	hasGuide, err := hasSemantiqGuide(path)
	if err != nil {
		return false, err
	}
	if hasGuide {
		return false, nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return false, fmt.Errorf("opening CLAUDE.md: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString("\n\n" + semantiqGuideContent); err != nil {
		return false, fmt.Errorf("appending to CLAUDE.md: %w", err)
	}
	return true, nil
}

// hasDatabaseIgnore reports whether the index database is already excluded,
// tolerating the usual plain/leading-slash variants.
func hasDatabaseIgnore(content string) bool {
	patterns := []string{databaseFileName, "/" + databaseFileName}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		for _, p := range patterns {
			if line == p {
				return true
			}
		}
	}
	return false
}

func ensureGitignore(projectRoot string) (bool, error) {
	gitignorePath := filepath.Join(projectRoot, ".gitignore")

	content, err := os.ReadFile(gitignorePath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("reading .gitignore: %w", err)
	}

	if hasDatabaseIgnore(string(content)) {
		return false, nil
	}

	lineEnding := "\n"
	if bytes.Contains(content, []byte("\r\n")) {
		lineEnding = "\r\n"
	}
	if len(content) > 0 && !bytes.HasSuffix(content, []byte("\n")) {
		content = append(content, []byte(lineEnding)...)
	}

	var entry string
	if len(content) == 0 {
		entry = fmt.Sprintf("# semantiq index (auto-generated)%s%s%s", lineEnding, databaseFileName, lineEnding)
	} else {
		entry = fmt.Sprintf("%s# semantiq index (auto-generated)%s%s%s", lineEnding, lineEnding, databaseFileName, lineEnding)
	}
	content = append(content, []byte(entry)...)

	if err := os.WriteFile(gitignorePath, content, 0644); err != nil {
		return false, fmt.Errorf("writing .gitignore: %w", err)
	}
	return true, nil
}

// generateProjectConfig writes a template .semantiq.yaml unless one
// already exists (never overwrites user customizations).
func generateProjectConfig(out *output.Writer, projectRoot string) error {
	yamlPath := filepath.Join(projectRoot, ".semantiq.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		out.Status("i", "Existing .semantiq.yaml preserved")
		return nil
	}
	ymlPath := filepath.Join(projectRoot, ".semantiq.yml")
	if _, err := os.Stat(ymlPath); err == nil {
		out.Status("i", "Existing .semantiq.yml found, skipping template")
		return nil
	}

	if err := os.WriteFile(yamlPath, []byte(configs.ProjectConfigTemplate), 0644); err != nil {
		return fmt.Errorf("failed to write .semantiq.yaml: %w", err)
	}
	out.Status("+", "Created .semantiq.yaml (optional project configuration)")
	return nil
}

func validateExistingMCPConfig(mcpPath string) (bool, []string) {
	var warnings []string

	data, err := os.ReadFile(mcpPath)
	if err != nil {
		return false, nil
	}

	var cfg MCPConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return false, []string{"invalid JSON in .mcp.json"}
	}

	server, exists := cfg.MCPServers["semantiq"]
	if !exists {
		return false, []string{"semantiq not configured in .mcp.json"}
	}
	if server.Cwd == "" {
		warnings = append(warnings, "missing 'cwd' field - server may run from the wrong directory")
	}
	if server.Command == "" {
		warnings = append(warnings, "missing 'command' field")
	}
	return len(warnings) == 0, warnings
}

// configureMCPJSON creates or updates .mcp.json with a semantiq server entry.
func configureMCPJSON(out *output.Writer, projectRoot string, force bool) (bool, error) {
	mcpPath := filepath.Join(projectRoot, ".mcp.json")

	var cfg MCPConfig
	if data, err := os.ReadFile(mcpPath); err == nil {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return false, fmt.Errorf("failed to parse existing .mcp.json: %w", err)
		}
		if _, exists := cfg.MCPServers["semantiq"]; exists && !force {
			out.Status("i", "semantiq already configured in .mcp.json")
			return true, nil
		}
	} else {
		cfg = MCPConfig{MCPServers: make(map[string]MCPServerConfig)}
	}
	if cfg.MCPServers == nil {
		cfg.MCPServers = make(map[string]MCPServerConfig)
	}

	binPath, err := findSemantiqBinary()
	if err != nil {
		return false, fmt.Errorf("failed to find semantiq binary: %w", err)
	}

	cfg.MCPServers["semantiq"] = MCPServerConfig{
		Type:    "stdio",
		Command: binPath,
		Args:    []string{"serve"},
		Cwd:     projectRoot,
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return false, fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(mcpPath, data, 0644); err != nil {
		return false, fmt.Errorf("failed to write .mcp.json: %w", err)
	}
	out.Statusf("+", "Created %s", mcpPath)
	return true, nil
}

func findSemantiqBinary() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate running binary: %w", err)
	}
	if realPath, err := filepath.EvalSymlinks(execPath); err == nil {
		return realPath, nil
	}
	return execPath, nil
}

func runInit(ctx context.Context, cmd *cobra.Command, path string, force bool) error {
	out := output.New(cmd.OutOrStdout())

	out.Statusf(">", "semantiq %s - initializing...", version.Version)
	out.Newline()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	root, err := config.FindProjectRoot(absPath)
	if err != nil {
		root = absPath
	}

	out.Statusf("dir", "Project: %s", root)

	mcpConfigPath := filepath.Join(root, ".mcp.json")
	if !force {
		if _, err := os.Stat(mcpConfigPath); err == nil {
			isValid, warnings := validateExistingMCPConfig(mcpConfigPath)
			if !isValid && len(warnings) > 0 {
				out.Warning("Existing .mcp.json has configuration issues:")
				for _, w := range warnings {
					out.Statusf("!", "%s", w)
				}
				out.Status("tip", "Use --force to fix these issues")
				return nil
			}
			out.Warning("Project already initialized (.mcp.json exists)")
			out.Status("tip", "Use --force to reinitialize")
			return nil
		}
	}

	out.Newline()
	out.Status("cfg", "Configuring MCP integration...")
	mcpConfigured, err := configureMCPJSON(out, root, force)
	if err != nil {
		out.Warningf("MCP configuration failed: %v", err)
		out.Status("tip", "You can manually configure .mcp.json later")
	}

	if err := generateProjectConfig(out, root); err != nil {
		out.Warningf("Could not create .semantiq.yaml template: %v", err)
	}

	claudeMDPath := filepath.Join(root, "CLAUDE.md")
	if added, err := ensureSemantiqGuide(claudeMDPath); err != nil {
		out.Warningf("Could not update CLAUDE.md: %v", err)
	} else if added {
		out.Status("+", "Added semantiq usage guide to CLAUDE.md")
	} else {
		out.Status("i", "CLAUDE.md already has semantiq guide")
	}

	if added, err := ensureGitignore(root); err != nil {
		out.Warningf("Could not update .gitignore: %v", err)
	} else if added {
		out.Statusf("+", "Added %s to .gitignore", databaseFileName)
	}

	dataDir := filepath.Join(root, ".semantiq")
	if force || preflight.NeedsCheck(dataDir) {
		checker := preflight.New(preflight.WithOutput(cmd.OutOrStdout()))
		results := checker.RunAll(ctx, root)
		if checker.HasCriticalFailures(results) {
			checker.PrintResults(results)
			return fmt.Errorf("preflight checks failed")
		}
		for _, r := range results {
			if r.Status != preflight.StatusPass {
				out.Warningf("%s: %s", r.Name, r.Message)
			}
		}
		if err := preflight.MarkPassed(dataDir); err != nil {
			out.Warningf("Could not record preflight status: %v", err)
		}
	}

	out.Newline()
	out.Status("idx", "Indexing project...")

	start := time.Now()
	dbPath := filepath.Join(root, databaseFileName)
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	defer func() { _ = st.Close() }()

	embedder, err := embed.NewEmbeddingModel(ctx, embed.ProviderStatic)
	if err != nil {
		return fmt.Errorf("build embedder: %w", err)
	}

	cfg, err := config.Load(root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	result, err := indexer.NewBulkIndexer(st, embedder, root).WithWorkers(cfg.Performance.IndexWorkers).Run(ctx, force)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	out.Statusf("ok", "Indexed %d file(s), %d symbol(s), %d chunk(s) in %s",
		result.Files, result.Symbols, result.Chunks, time.Since(start).Round(time.Millisecond))

	out.Newline()
	out.Success("Initialization complete!")
	out.Status("next", "1. Restart your MCP client to pick up the new server")
	out.Status("next", "2. Or run 'semantiq serve --http-port 8080' for the HTTP API")

	if !mcpConfigured {
		out.Newline()
		out.Warning("MCP not auto-configured - manual setup required")
		out.Statusf("tip", "Add to .mcp.json: %s", mcpConfigPath)
	}

	return nil
}
