// Package cmd provides the CLI commands for semantiq.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/semantiq-dev/semantiq/internal/logging"
	"github.com/semantiq-dev/semantiq/internal/profiling"
	"github.com/semantiq-dev/semantiq/pkg/version"
)

var (
	profileCPU   string
	profileMem   string
	profileTrace string
	profiler     = profiling.NewProfiler()
	cpuCleanup   func()
	traceCleanup func()
)

var (
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the semantiq CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "semantiq",
		Short: "Local-first code-intelligence engine for AI coding assistants",
		Long: `semantiq ingests a source tree and keeps a persistent, incrementally
updated index of its syntactic and semantic structure: symbols, chunks,
imports, and embeddings, stored in a single database file at the
project root.

It answers four query kinds over that index - hybrid search, reference
lookup, dependency inspection, and symbol explanation - served over
the Model Context Protocol (stdio) or a plain JSON HTTP API.`,
		Version: version.Version,
	}

	cmd.SetVersionTemplate("semantiq version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&profileCPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileMem, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profileTrace, "profile-trace", "", "Write execution trace to file")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.semantiq/logs/")

	cmd.PersistentPreRunE = startProfilingAndLogging
	cmd.PersistentPostRunE = stopProfilingAndLogging

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newCalibrateCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func startProfilingAndLogging(_ *cobra.Command, _ []string) error {
	var err error

	if debugMode {
		logger, cleanup, err := logging.Setup(logging.DebugConfig())
		if err != nil {
			return fmt.Errorf("failed to setup debug logging: %w", err)
		}
		loggingCleanup = cleanup
		slog.SetDefault(logger)
		slog.Info("Debug logging enabled", slog.String("log_file", logging.DefaultLogPath()))
	}

	if profileCPU != "" {
		cpuCleanup, err = profiler.StartCPU(profileCPU)
		if err != nil {
			return fmt.Errorf("failed to start CPU profile: %w", err)
		}
	}

	if profileTrace != "" {
		traceCleanup, err = profiler.StartTrace(profileTrace)
		if err != nil {
			if cpuCleanup != nil {
				cpuCleanup()
			}
			return fmt.Errorf("failed to start trace: %w", err)
		}
	}

	return nil
}

func stopProfilingAndLogging(_ *cobra.Command, _ []string) error {
	if cpuCleanup != nil {
		cpuCleanup()
		cpuCleanup = nil
	}

	if traceCleanup != nil {
		traceCleanup()
		traceCleanup = nil
	}

	if profileMem != "" {
		if err := profiler.WriteHeap(profileMem); err != nil {
			return fmt.Errorf("failed to write memory profile: %w", err)
		}
	}

	if loggingCleanup != nil {
		slog.Info("Debug logging stopped")
		loggingCleanup()
		loggingCleanup = nil
	}

	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
