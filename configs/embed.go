// Package configs embeds the commented configuration templates written by
// `argus config init`.
//
// The templates hold the built-in defaults, so writing one changes nothing
// until it is edited. TOML files are generated from the defaults instead.
package configs

import _ "embed"

// UserConfigTemplate is written by `argus config init --global`.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string

// ProjectConfigTemplate is written by `argus config init` as .argus.yaml in
// the current directory.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
