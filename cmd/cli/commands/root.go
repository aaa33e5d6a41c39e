package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/milescrape/milescrape/internal/constants"
	"github.com/milescrape/milescrape/pkg/api/v1/client"
	"github.com/milescrape/milescrape/pkg/api/v1/routes"
)

// flag names
const (
	flagServerAddress = "server-address"
)

var (
	// apiClient is the shared API client instance
	apiClient client.Client
	// serverAddress holds the target API server address. Flag parsing sets this.
	serverAddress string
)

// initClient initializes the API client
func initClient() error {
	var err error
	// Use the serverAddress determined by PersistentPreRunE
	opts := client.DefaultOptions() // Start with defaults
	opts.BaseURL = serverAddress    // Override BaseURL

	apiClient, err = client.NewClient(opts)
	return err
}

func init() {
	// Set a basic default for the flag. PersistentPreRunE will handle env var override.
	RootCmd.PersistentFlags().StringVarP(&serverAddress, flagServerAddress, "s", routes.DefaultBaseURL,
		"Address of the milescrape API server (env: "+constants.EnvServerAddress+")")

	RootCmd.AddCommand(scansCmd)
	RootCmd.AddCommand(leadsCmd)
	RootCmd.AddCommand(statsCmd)
	RootCmd.AddCommand(healthCmd)
}

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "milescrape",
	Short: "milescrape CLI - A command line interface for the milescrape API",
	Long: `milescrape CLI starts and monitors milestone scans and browses the leads they produce.
Scans run on the server; the CLI only talks to its HTTP API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		// Check if the server address flag was explicitly set by the user.
		if !cmd.Flags().Changed(flagServerAddress) {
			if envAddr := os.Getenv(constants.EnvServerAddress); envAddr != "" {
				serverAddress = envAddr
			}
		}

		// Now serverAddress has the correct precedence: Flag > Env Var > Default
		if serverAddress == "" {
			return fmt.Errorf("server address cannot be empty")
		}
		return initClient()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return RootCmd.Execute()
}

// printJSON writes v to stdout as indented JSON
func printJSON(v interface{}) error {
	prettyJSON, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error formatting response: %w", err)
	}
	fmt.Println(string(prettyJSON))
	return nil
}
