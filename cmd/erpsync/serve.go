package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/imobcrm/erpsync/internal/infra/providers"
	"github.com/imobcrm/erpsync/internal/present/rest"
	restmw "github.com/imobcrm/erpsync/internal/present/rest/middleware"
)

func ServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

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

			var events rest.EventStream
			if app.Signal != nil {
				events = app.Signal
			}

			handler := rest.NewHandler(
				app.Runner,
				app.License,
				events,
				restmw.NewTokenAuth(conf.Server.APIToken),
				app.Ping,
			)

			e := echo.New()
			e.HideBanner = true
			e.Use(middleware.Logger())
			e.Use(middleware.Recover())
			if conf.Server.EnableTrace {
				e.Use(otelecho.Middleware("erpsync"))
				e.Use(restmw.TraceID)
			}
			handler.RegisterRoutes(e)

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				_ = e.Shutdown(shutdownCtx)
			}()

			slog.Info("listening", slog.String("addr", conf.Server.Listen), slog.String("module", "main"))
			if err := e.Start(conf.Server.Listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
}
