// Package main provides the entry point for the semantiq CLI.
package main

import (
	"os"

	"github.com/semantiq-dev/semantiq/cmd/semantiq/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
