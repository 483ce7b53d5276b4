package providers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imobcrm/erpsync/internal/config"
	"github.com/imobcrm/erpsync/internal/infra/lock"
)

func testConfig() config.Config {
	return config.Config{
		Server: config.Server{
			Database:   "sqlite",
			SQLitePath: "file::memory:",
			LockTTL:    time.Minute,
		},
		ERP: config.ERP{
			BaseURL:  "http://erp.invalid",
			PageSize: 10,
			Timeout:  time.Second,
			Resource: "contratos",
		},
		Credentials: config.Credentials{
			Source:   config.SourceStatic,
			CacheTTL: time.Minute,
			Licenses: []config.License{{ID: "acme", AccessToken: "tok"}},
		},
	}
}

func TestNewAppWithoutOptionalServices(t *testing.T) {
	ctx := context.Background()

	app, err := NewApp(ctx, testConfig())
	require.NoError(t, err)
	require.NoError(t, MigrateDatabase(app.DB))

	assert.Nil(t, app.Signal)
	assert.NoError(t, app.Ping(ctx))

	runs, err := app.License.Runs(ctx, "acme", 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestNewRunLockFallsBackToLocal(t *testing.T) {
	_, ok := NewRunLock(config.Server{}).(*lock.LocalLock)
	assert.True(t, ok)

	_, ok = NewRunLock(config.Server{MemcachedAddr: "127.0.0.1:11211"}).(*lock.MemcacheLock)
	assert.True(t, ok)
}

func TestNewCredentialProviderStatic(t *testing.T) {
	creds, err := NewCredentialProvider(context.Background(), testConfig().Credentials)
	require.NoError(t, err)

	cred, err := creds.Credential(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "tok", cred.AccessToken)
}

func TestNewDatabaseUnknownDriver(t *testing.T) {
	_, err := NewDatabase(config.Server{Database: "oracle"})
	assert.Error(t, err)
}
