// Package cmd implements the command-line interface for tailortalk.
//
// This package provides the following commands:
//   - serve: Start the chat API or the MCP server exposing the calendar tools
//   - version: Display version information
//
// The serve command is the default command when no subcommand is specified.
package cmd
