// Package configs provides embedded configuration templates for semantiq.
//
// Templates are embedded at build time using Go's //go:embed directive so
// they ship inside the binary itself rather than living alongside it.
//
// The templates are used by:
//   - cmd/semantiq/cmd/init.go → generateProjectConfig() - creates .semantiq.yaml
//
// Configuration hierarchy (see internal/config/config.go Load()):
//  1. Hardcoded defaults (internal/config/config.go NewConfig())
//  2. User config (~/.config/semantiq/config.yaml)
//  3. Project config (.semantiq.yaml)
//  4. Environment variables (SEMANTIQ_*)
package configs

import _ "embed"

// UserConfigTemplate is the template for machine-level configuration,
// written to ~/.config/semantiq/config.yaml.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string

// ProjectConfigTemplate is the template written by `semantiq init` to
// .semantiq.yaml at the project root.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
