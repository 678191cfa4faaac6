package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hatchline/recruitpulse/cmd/recruitpulse/commands"
	"github.com/hatchline/recruitpulse/logger"
)

var jsonLogs bool

var rootCmd = &cobra.Command{
	Use:   "recruitpulse",
	Short: "Rate-limited outbound call scheduler for candidate screening",
	Long: `recruitpulse - AI-driven candidate screening over phone calls.

Ingests resume batches, queues rate-limited screening calls through a voice
agent provider, scores transcripts delivered by webhook, and walks qualified
candidates through assessment scheduling.

Available commands:
  serve  - Start the API server and dialing daemon
  db     - Manage database operations
  queue  - Inspect the call queue
  stats  - Show candidate pipeline statistics

Examples:
  recruitpulse serve           # Start server + daemon
  recruitpulse db migrate      # Apply pending migrations
  recruitpulse queue stats     # Show call queue depth
  recruitpulse stats           # Show candidate pipeline counters`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.Initialize(jsonLogs); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	// Env vars from .env feed viper's RECRUITPULSE_ bindings. Missing file
	// is fine, deployments set real environment variables.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Emit structured JSON logs instead of console output")

	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.DbCmd)
	rootCmd.AddCommand(commands.QueueCmd)
	rootCmd.AddCommand(commands.StatsCmd)
}

func main() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
