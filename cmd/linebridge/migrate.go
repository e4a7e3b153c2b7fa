package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/manachat72/line-ai-chatbot/internal/repo"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the chat_records table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cfg.PersistenceEnabled() {
				return errors.New("DATABASE_URL is not set")
			}
			db, err := repo.Open(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}
			if err := repo.Ping(cmd.Context(), db); err != nil {
				return fmt.Errorf("ping database: %w", err)
			}
			if err := repo.AutoMigrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "chat_records is up to date")
			return nil
		},
	}
}
