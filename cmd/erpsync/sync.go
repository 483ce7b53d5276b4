package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/imobcrm/erpsync/internal/infra/providers"
)

func SyncCmd() *cobra.Command {
	var licenses []string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one full import for each given license and print the summaries",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			conf, err := loadConfig()
			if err != nil {
				return err
			}

			shutdown, err := setupTracing(ctx, conf.Server)
			if err != nil {
				return err
			}
			defer shutdown()

			app, err := providers.NewApp(ctx, conf)
			if err != nil {
				return err
			}
			if err := providers.MigrateDatabase(app.DB); err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")

			var firstErr error
			for _, license := range licenses {
				summary, err := app.Runner.RunLicense(ctx, license)
				if encErr := enc.Encode(summary); encErr != nil {
					return encErr
				}
				if err != nil && firstErr == nil {
					firstErr = err
				}
			}
			return firstErr
		},
	}
	cmd.Flags().StringSliceVarP(&licenses, "license", "l", nil, "license id to sync (repeatable)")
	_ = cmd.MarkFlagRequired("license")

	return cmd
}
