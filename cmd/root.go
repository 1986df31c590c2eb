package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the tailortalk application
var rootCmd = &cobra.Command{
	Use:   "tailortalk",
	Short: "Conversational calendar assistant backed by a shared Google Calendar",
	Long: `tailortalk is a conversational assistant that books meetings, checks
availability and lists events on a shared Google Calendar. Users chat in
natural language; an OpenRouter-hosted model decides when to call the
calendar tools.

It can run as:
  - An HTTP chat API (default)
  - An MCP (Model Context Protocol) server exposing the calendar tools`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "tailortalk version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
}
