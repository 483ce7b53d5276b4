package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/imobcrm/erpsync/internal/infra/providers"
)

func MigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := providers.NewDatabase(conf.Server)
			if err != nil {
				return err
			}
			if err := providers.MigrateDatabase(db); err != nil {
				return err
			}

			slog.Info("schema migrated", slog.String("database", conf.Server.Database), slog.String("module", "main"))
			return nil
		},
	}
}
