// Package cli provides configuration file handling and terminal output
// helpers shared by the tomo commands.
package cli
