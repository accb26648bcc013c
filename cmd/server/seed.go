package main

import (
	"errors"
	"fmt"
	"os"

	"gorm.io/gorm"

	"streamhub/internal/config"
	"streamhub/internal/logger"
	"streamhub/pkg/database"
)

func runSeed(reset bool) error {
	cfg, db, err := setup()
	if err != nil {
		return err
	}
	defer logger.CloseLogger()
	defer database.Close(db)

	if reset {
		if err := database.Reset(db); err != nil {
			return err
		}
		logger.Warning("cleared users and categories")
	}
	return seed(cfg, db)
}

// seed is idempotent; the server runs it on every start.
func seed(cfg *config.Config, db *gorm.DB) error {
	created, err := database.SeedAdmin(db, cfg.Seed.AdminUsername, cfg.Seed.AdminPassword, cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}
	if created {
		logger.Infof("created admin user %q", cfg.Seed.AdminUsername)
		if cfg.Seed.AdminPassword == "admin" {
			logger.Warning("admin password is the default, change SEED_ADMIN_PASSWORD")
		}
	}

	n, err := database.SeedCategories(db, cfg.Seed.Categories)
	if err != nil {
		return err
	}
	if n > 0 {
		logger.Infof("seeded %d categories", n)
	}

	if cfg.Seed.ShowsFile == "" {
		return nil
	}
	if _, err := os.Stat(cfg.Seed.ShowsFile); errors.Is(err, os.ErrNotExist) {
		logger.Debugf("shows file %s not found, skipping", cfg.Seed.ShowsFile)
		return nil
	}
	shows, err := database.LoadShowsFromJSON(cfg.Seed.ShowsFile)
	if err != nil {
		return err
	}
	n, err = database.SeedShows(db, shows)
	if err != nil {
		return fmt.Errorf("seed shows: %w", err)
	}
	if n > 0 {
		logger.Infof("seeded %d shows from %s", n, cfg.Seed.ShowsFile)
	}
	return nil
}
