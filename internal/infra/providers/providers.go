package providers

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/imobcrm/erpsync/client"
	"github.com/imobcrm/erpsync/internal/config"
	"github.com/imobcrm/erpsync/internal/infra/archive"
	"github.com/imobcrm/erpsync/internal/infra/credential"
	"github.com/imobcrm/erpsync/internal/infra/database"
	"github.com/imobcrm/erpsync/internal/infra/gateway"
	"github.com/imobcrm/erpsync/internal/infra/lock"
	"github.com/imobcrm/erpsync/internal/infra/repository"
	"github.com/imobcrm/erpsync/internal/service"
	"github.com/imobcrm/erpsync/internal/usecase"
)

// NewDatabase opens the configured database.
func NewDatabase(conf config.Server) (*gorm.DB, error) {
	db, err := database.Open(conf.Database, conf.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	return db, nil
}

// MigrateDatabase applies migrations for the application models.
func MigrateDatabase(db *gorm.DB) error {
	return database.Migrate(db)
}

// NewClient constructs the HTTP client used to talk to the ERP.
func NewClient(conf config.ERP) *client.Client {
	return client.New(
		client.WithTimeout(conf.Timeout),
		client.WithUserAgent(conf.UserAgent),
	)
}

// NewERPGateway constructs the gateway backed by the HTTP client.
func NewERPGateway(cl *client.Client, conf config.ERP) *gateway.ERPGateway {
	return gateway.NewERPGateway(cl, gateway.ERPConfig{
		BaseURL:  conf.BaseURL,
		AppToken: conf.AppToken,
		PageSize: conf.PageSize,
	})
}

// NewCredentialProvider builds the configured credential source behind a
// TTL cache.
func NewCredentialProvider(ctx context.Context, conf config.Credentials) (usecase.CredentialProvider, error) {
	var next usecase.CredentialProvider
	switch conf.Source {
	case config.SourceSecretsManager:
		sm, err := credential.NewSecretsManager(ctx, conf.Region, conf.SecretPrefix)
		if err != nil {
			return nil, err
		}
		next = sm
	default:
		next = credential.NewStatic(conf.StaticCredentials())
	}
	return credential.NewCached(next, conf.CacheTTL), nil
}

// NewRunLock prefers memcached so that concurrent replicas see each other.
func NewRunLock(conf config.Server) usecase.RunLock {
	if conf.MemcachedAddr == "" {
		return lock.NewLocalLock()
	}
	return lock.NewMemcacheLock(database.NewMemcached(conf.MemcachedAddr))
}

// NewSignalService returns nil when redis is not configured.
func NewSignalService(ctx context.Context, conf config.Server) (*service.SignalService, error) {
	if conf.RedisAddr == "" {
		return nil, nil
	}
	rdb, err := database.NewRedis(ctx, conf.RedisAddr, conf.RedisPassword, conf.RedisDB)
	if err != nil {
		return nil, err
	}
	return service.NewSignalService(rdb), nil
}

// NewRawArchive returns nil when no bucket is configured.
func NewRawArchive(ctx context.Context, conf config.Archive) (usecase.RawArchive, error) {
	if conf.Bucket == "" {
		return nil, nil
	}
	a, err := archive.NewS3Archive(ctx, conf.Region, conf.Bucket, conf.Prefix)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// App holds everything the commands need.
type App struct {
	DB      *gorm.DB
	Runner  *usecase.SyncRunner
	License *usecase.LicenseUsecase
	Signal  *service.SignalService
}

// NewApp wires the sync pipeline from configuration.
func NewApp(ctx context.Context, conf config.Config) (*App, error) {
	db, err := NewDatabase(conf.Server)
	if err != nil {
		return nil, err
	}

	creds, err := NewCredentialProvider(ctx, conf.Credentials)
	if err != nil {
		return nil, err
	}

	signal, err := NewSignalService(ctx, conf.Server)
	if err != nil {
		return nil, err
	}

	raw, err := NewRawArchive(ctx, conf.Archive)
	if err != nil {
		return nil, err
	}

	runs := repository.NewSyncRunRepository(db)
	opts := []usecase.SyncRunnerOption{
		usecase.WithResource(conf.ERP.Resource),
		usecase.WithRunLock(NewRunLock(conf.Server), conf.Server.LockTTL),
		usecase.WithRunHistory(runs),
	}
	if signal != nil {
		opts = append(opts, usecase.WithEventPublisher(signal))
	}
	if raw != nil {
		opts = append(opts, usecase.WithRawArchive(raw))
	}

	runner := usecase.NewSyncRunner(
		NewERPGateway(NewClient(conf.ERP), conf.ERP),
		repository.NewSyncStore(db),
		usecase.NewContractReconciler(usecase.NewIdentityResolver()),
		creds,
		opts...,
	)

	slog.Info(
		"application wired",
		slog.String("database", conf.Server.Database),
		slog.String("credentials", conf.Credentials.Source),
		slog.Bool("realtime", signal != nil),
		slog.Bool("archive", raw != nil),
		slog.String("module", "providers"),
	)

	return &App{
		DB:      db,
		Runner:  runner,
		License: usecase.NewLicenseUsecase(runs, repository.NewContractRepository(db)),
		Signal:  signal,
	}, nil
}

// Ping checks the database connection.
func (a *App) Ping(ctx context.Context) error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
