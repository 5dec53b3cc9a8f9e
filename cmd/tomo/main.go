// Package main provides the tomo CLI: a terminal client for realtime
// companion calls.
//
// Usage:
//
//	tomo [flags] <command> [args]
//
// Commands:
//
//	call      - Start a realtime call with a character
//	devices   - List audio input/output devices
//	emotions  - List emotion artwork keys
//	config    - Manage configuration
//
// Configuration lives in ~/.tomo/config.yaml.
package main

import (
	"fmt"
	"os"

	"github.com/tomoai/tomo/cmd/tomo/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
