package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/imobcrm/erpsync/internal/config"
	"github.com/imobcrm/erpsync/internal/infra/tracing"
)

var (
	version    = "dev"
	configPath string
	envFiles   []string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "erpsync",
		Short:        "Imports lease contracts from the ERP into the CRM database",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "/etc/erpsync/config.yaml", "path to the YAML config")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env", []string{".env"}, "dotenv files to load")

	rootCmd.AddCommand(
		ServeCmd(),
		SyncCmd(),
		MigrateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	conf, err := config.Load(configPath, envFiles...)
	if err != nil {
		return config.Config{}, err
	}
	setupLogger(conf.Server.LogLevel)
	return conf, nil
}

// setupTracing installs the exporter when enabled. The returned func is
// always safe to call.
func setupTracing(ctx context.Context, conf config.Server) (func(), error) {
	if !conf.EnableTrace {
		return func() {}, nil
	}
	return tracing.Setup(ctx, conf.TraceEndpoint, "erpsync", version)
}

func setupLogger(level string) {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: l})
	slog.SetDefault(slog.New(handler))
}
