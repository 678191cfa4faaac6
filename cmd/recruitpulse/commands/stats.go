package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/hatchline/recruitpulse/candidate"
	"github.com/hatchline/recruitpulse/errors"
)

// StatsCmd shows candidate pipeline statistics
var StatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show candidate pipeline statistics",
	Long: `stats — Show candidate counts by pipeline stage and the score
distribution, optionally scoped to one upload batch.

Examples:
  recruitpulse stats                          # All candidates
  recruitpulse stats --batch 1718000000000    # One batch`,
	RunE: runStats,
}

var statsBatchFlag string

func init() {
	StatsCmd.Flags().StringVar(&statsBatchFlag, "batch", "", "Scope to one batch ID")
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	database, err := openDatabase(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to open database")
	}
	defer database.Close()

	store := candidate.NewStore(database)

	stats, err := store.Stats(statsBatchFlag)
	if err != nil {
		return errors.Wrap(err, "failed to compute candidate stats")
	}
	distribution, err := store.ScoreDistribution(statsBatchFlag)
	if err != nil {
		return errors.Wrap(err, "failed to compute score distribution")
	}

	if statsBatchFlag != "" {
		pterm.DefaultSection.Printf("Candidates (batch %s)\n", statsBatchFlag)
	} else {
		pterm.DefaultSection.Println("Candidates")
	}

	table := pterm.TableData{
		{"Stage", "Count"},
		{"Total", fmt.Sprintf("%d", stats.Total)},
		{"New", fmt.Sprintf("%d", stats.New)},
		{"Calling", fmt.Sprintf("%d", stats.Calling)},
		{"Completed", fmt.Sprintf("%d", stats.Completed)},
		{"Qualified", fmt.Sprintf("%d", stats.Qualified)},
		{"Rejected", fmt.Sprintf("%d", stats.Rejected)},
		{"Scheduled", fmt.Sprintf("%d", stats.Scheduled)},
		{"Failed", fmt.Sprintf("%d", stats.Failed)},
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(table).Render(); err != nil {
		return errors.Wrap(err, "failed to render stats table")
	}

	pterm.DefaultSection.Println("Scores")
	if distribution.Scored == 0 {
		pterm.Info.Println("No scored candidates yet")
		return nil
	}

	scoreTable := pterm.TableData{
		{"Bucket", "Count"},
		{"Scored", fmt.Sprintf("%d", distribution.Scored)},
		{"High (>= 70)", fmt.Sprintf("%d", distribution.HighScorers)},
		{"Medium (45-69)", fmt.Sprintf("%d", distribution.MediumScorers)},
		{"Low (< 45)", fmt.Sprintf("%d", distribution.LowScorers)},
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(scoreTable).Render(); err != nil {
		return errors.Wrap(err, "failed to render score table")
	}

	if distribution.AvgScore != nil {
		pterm.Info.Printf("Average %.1f, min %.1f, max %.1f\n",
			*distribution.AvgScore, *distribution.MinScore, *distribution.MaxScore)
	}

	return nil
}
