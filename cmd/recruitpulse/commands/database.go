package commands

import (
	"database/sql"

	"github.com/hatchline/recruitpulse/config"
	"github.com/hatchline/recruitpulse/db"
	"github.com/hatchline/recruitpulse/errors"
	"github.com/hatchline/recruitpulse/logger"
)

// openDatabase opens and migrates the database at the configured path.
// Uses logger.Logger for db operations.
func openDatabase(cfg *config.Config) (*sql.DB, error) {
	dbPath := cfg.Database.Path
	if dbPath == "" {
		dbPath = "recruitpulse.db"
	}

	database, err := db.Open(dbPath, logger.Logger)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database at %s", dbPath)
	}

	if err := db.Migrate(database, logger.Logger); err != nil {
		database.Close()
		return nil, errors.Wrapf(err, "failed to run migrations on %s", dbPath)
	}

	return database, nil
}

// loadConfig loads configuration, surfacing the path it failed on.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load configuration")
	}
	return cfg, nil
}
