// Package logging provides opt-in file-based logging with rotation for semantiq.
// When the --debug flag is set, comprehensive logs are written to ~/.semantiq/logs/
// for debugging and troubleshooting.
//
// Without --debug, most commands set up no file logging; the serve command
// still logs to a file via SetupMCPMode and never writes logs to stderr.
package logging
