package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the joltsms-mcp application
var rootCmd = &cobra.Command{
	Use:   "joltsms-mcp",
	Short: "MCP server for JoltSMS phone numbers and SMS verification codes",
	Long: `joltsms-mcp is a Model Context Protocol server that lets AI assistants rent
dedicated US phone numbers from JoltSMS, read the SMS they receive and wait for
one-time passcodes.

Run "joltsms-mcp serve" with JOLTSMS_API_KEY set to start the server.`,
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
	rootCmd.SetVersionTemplate(`{{printf "joltsms-mcp version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
}
