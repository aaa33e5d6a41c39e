package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show dashboard counters across all scans and leads",
	RunE: func(_ *cobra.Command, _ []string) error {
		stats, err := apiClient.GetStats(context.Background())
		if err != nil {
			return fmt.Errorf("error getting stats: %w", err)
		}
		return printJSON(stats)
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the server is up and show its scan load",
	RunE: func(_ *cobra.Command, _ []string) error {
		health, err := apiClient.HealthCheck(context.Background())
		if err != nil {
			return fmt.Errorf("error checking health: %w", err)
		}
		return printJSON(health)
	},
}
