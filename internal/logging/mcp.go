package logging

import (
	"log/slog"
)

// SetupMCPMode initializes logging for MCP stdio serving: JSON to file
// only, at debug level, with stderr writes disabled since stdout is
// reserved exclusively for the JSON-RPC stream and some MCP clients
// treat any stray stderr output as a connection failure.
func SetupMCPMode() (func(), error) {
	cfg := Config{
		Level:         "debug",
		FilePath:      DefaultLogPath(),
		MaxSizeMB:     10,
		MaxFiles:      5,
		WriteToStderr: false,
	}

	logger, cleanup, err := Setup(cfg)
	if err != nil {
		return nil, err
	}

	slog.SetDefault(logger)
	slog.Info("MCP mode logging initialized",
		slog.String("log_file", cfg.FilePath),
		slog.String("level", cfg.Level))

	return cleanup, nil
}
