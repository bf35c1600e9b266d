package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the hh-mcp application
var rootCmd = &cobra.Command{
	Use:   "hh-mcp",
	Short: "MCP server for the HeadHunter (hh.ru) API",
	Long: `hh-mcp exposes the HeadHunter (hh.ru) job search API as an MCP
(Model Context Protocol) server, so AI assistants can search vacancies,
manage resumes and handle employer negotiations on the user's behalf.

It can run as:
  - An MCP server over stdio (default), authenticated via HH_ACCESS_TOKEN
  - An MCP server over streamable HTTP with a built-in OAuth 2.0
    authorization server in front of hh.ru`,
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
	rootCmd.SetVersionTemplate(`{{printf "hh-mcp version %s\n" .Version}}`)

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
