// Package main provides the entry point for the rulesync CLI tool.
package main

import (
	"github.com/agentstation/rulesync/cmd/rulesync/cmd"
)

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
	builtBy = "unknown"
)

func main() {
	cmd.Execute(version, commit, date, builtBy)
}
