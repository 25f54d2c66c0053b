// Package commands implements the CLI commands for the lodectl client.
package commands

import (
	"os"

	"github.com/lodestone-io/lodestone/internal/cli/output"
	"github.com/lodestone-io/lodestone/pkg/apiclient"
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	serverURL    string
	outputFormat string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "lodectl",
	Short: "Lodestone Control - Remote management client",
	Long: `lodectl is the command-line client for inspecting Lodestone servers
through the admin REST API.

Use this tool to list configured repositories, inspect their resolved
configuration and namespace bindings, and check server health.

Use "lodectl [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table|json|yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(repoCmd)
	rootCmd.AddCommand(healthCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// getClient builds an API client from the global flags.
func getClient() *apiclient.Client {
	return apiclient.New(serverURL)
}

// getPrinter builds a printer from the global flags.
func getPrinter() (*output.Printer, error) {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return nil, err
	}
	return output.NewPrinter(os.Stdout, format), nil
}
