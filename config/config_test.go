package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	conf, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", conf.Port)
	assert.Equal(t, DriverPostgres, conf.DatabaseDriver)
	assert.Equal(t, 5*time.Second, conf.DatabaseRetryDelay)
	assert.Equal(t, 3*time.Second, conf.PollInterval)
	assert.Equal(t, []string{"*"}, conf.CORSOrigins)
}

func TestLoadFallsBackToBareNames(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_URL", "file:test.db")
	t.Setenv("URBANGROW_DATABASE_DRIVER", "sqlite")
	t.Setenv("URBANGROW_POLL_INTERVAL", "5s")

	conf, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "file:test.db", conf.DatabaseURL)
	assert.Equal(t, DriverSQLite, conf.DatabaseDriver)
	assert.Equal(t, 5*time.Second, conf.PollInterval)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("URBANGROW_DATABASE_DRIVER", "oracle")

	_, err := Load()
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug", false)
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = NewLogger("loud", false)
	assert.Error(t, err)
}
