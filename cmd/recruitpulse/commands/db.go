package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hatchline/recruitpulse/errors"
)

// DbCmd represents the db (database) command
var DbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage recruitpulse database",
	Long: `db — Manage recruitpulse database operations

Examples:
  recruitpulse db migrate    # Apply pending migrations
  recruitpulse db stats      # Show table counts`,
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE:  runDbMigrate,
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database table statistics",
	RunE:  runDbStats,
}

func init() {
	DbCmd.AddCommand(dbMigrateCmd)
	DbCmd.AddCommand(dbStatsCmd)
}

func runDbMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// openDatabase migrates as part of opening
	database, err := openDatabase(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to open database")
	}
	defer database.Close()

	fmt.Println("Migrations applied")
	return nil
}

func runDbStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	database, err := openDatabase(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to open database")
	}
	defer database.Close()

	tables := []string{"candidates", "batches", "call_queue", "call_logs", "processed_webhooks"}

	fmt.Println("Database Statistics")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("Database Path: %s\n\n", cfg.Database.Path)

	for _, table := range tables {
		var count int
		if err := database.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
			return errors.Wrapf(err, "failed to count %s", table)
		}
		fmt.Printf("%-20s %d\n", table, count)
	}

	return nil
}
