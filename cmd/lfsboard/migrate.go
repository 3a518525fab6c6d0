package main

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/djh20/lfs-leaderboard/internal/config"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logger := newLogger(cfg)
			defer logger.Sync()

			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			if db == nil {
				return errors.New("DATABASE_URL is not set")
			}

			if err := migrate(db); err != nil {
				return err
			}
			logger.Info("Database migrated", zap.String("url", redactURL(cfg.DatabaseURL)))
			return nil
		},
	}
}
