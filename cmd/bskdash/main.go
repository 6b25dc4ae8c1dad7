package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sevaops/bskdash/cmd/bskdash/commands"
	"github.com/sevaops/bskdash/logger"
)

var rootCmd = &cobra.Command{
	Use:   "bskdash",
	Short: "bskdash - BSK training-optimization dashboard API",
	Long: `bskdash - BSK Training Optimization dashboard API.

Serves the four reference collections (services, BSK training centers,
DEO field agents, service provisions) from flat files or the relational
store, plus underperforming-BSK analytics.

Available commands:
  server  - Start the dashboard API server
  db      - Manage the relational store (migrate, load, stats)
  verify  - Probe a deployed instance's endpoints
  version - Show version information

Examples:
  bskdash server                   # Serve from flat files
  bskdash server --backend sql     # Serve from the relational store
  bskdash db load                  # Seed the relational store from flat files
  bskdash verify --base-url https://bskdash.example.org`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		if err := logger.Initialize(jsonLogs); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("json-logs", false, "Emit JSON logs instead of console output")

	rootCmd.AddCommand(commands.ServerCmd)
	rootCmd.AddCommand(commands.DBCmd)
	rootCmd.AddCommand(commands.VerifyCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
