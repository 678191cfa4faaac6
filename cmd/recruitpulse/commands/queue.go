package commands

import (
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/hatchline/recruitpulse/errors"
	"github.com/hatchline/recruitpulse/queue"
)

// QueueCmd represents the queue command
var QueueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect the call queue",
	Long: `queue — Inspect the rate-limited call queue

Examples:
  recruitpulse queue stats    # Show queue depth and next call time`,
}

var queueStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show call queue depth by status",
	RunE:  runQueueStats,
}

func init() {
	QueueCmd.AddCommand(queueStatsCmd)
}

func runQueueStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	database, err := openDatabase(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to open database")
	}
	defer database.Close()

	stats, err := queue.NewStore(database).Stats()
	if err != nil {
		return errors.Wrap(err, "failed to compute queue stats")
	}

	pterm.DefaultSection.Println("Call Queue")

	table := pterm.TableData{
		{"Status", "Count"},
		{"Pending", fmt.Sprintf("%d", stats.Pending)},
		{"Processing", fmt.Sprintf("%d", stats.Processing)},
		{"Completed", fmt.Sprintf("%d", stats.Completed)},
		{"Failed", fmt.Sprintf("%d", stats.Failed)},
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(table).Render(); err != nil {
		return errors.Wrap(err, "failed to render queue table")
	}

	if stats.NextCallTime != nil {
		pterm.Info.Printf("Next call scheduled: %s\n", stats.NextCallTime.Local().Format(time.RFC1123))
	} else {
		pterm.Info.Println("No calls scheduled")
	}

	return nil
}
