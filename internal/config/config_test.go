package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(values map[string]string) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := FromViper(newViper(nil))
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, ":3000", cfg.Addr())
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.False(t, cfg.InitializeDB)
	assert.Equal(t, CacheNone, cfg.Cache.Driver)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "*", cfg.CORSAllowOrigins)
	assert.Empty(t, cfg.RabbitMQURL)
}

func TestFromViper_Overrides(t *testing.T) {
	cfg, err := FromViper(newViper(map[string]string{
		"PORT":          "8080",
		"DB_DRIVER":     "SQLite",
		"INITIALIZE_DB": "true",
		"CACHE_DRIVER":  "redis",
		"CACHE_TTL":     "1m",
		"REDIS_DB":      "2",
		"LOG_LEVEL":     "debug",
	}))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.True(t, cfg.InitializeDB)
	assert.Equal(t, CacheRedis, cfg.Cache.Driver)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestFromViper_ReportsEveryInvalidKey(t *testing.T) {
	_, err := FromViper(newViper(map[string]string{
		"PORT":          "http",
		"DB_PORT":       "70000",
		"INITIALIZE_DB": "yes",
		"CACHE_DRIVER":  "memcached",
		"LOG_LEVEL":     "loud",
		"DB_HOST":       " ",
	}))
	require.Error(t, err)

	var invalid *InvalidError
	require.ErrorAs(t, err, &invalid)
	assert.ElementsMatch(t,
		[]string{"PORT", "DB_PORT", "INITIALIZE_DB", "CACHE_DRIVER", "LOG_LEVEL", "DB_HOST"},
		invalid.Keys)
	assert.Contains(t, err.Error(), "INITIALIZE_DB")
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg, err := FromViper(newViper(map[string]string{"DB_DATABASE": "shop", "DB_PASSWORD": "secret"}))
	require.NoError(t, err)
	assert.Equal(t, "host=localhost port=5432 user=postgres password=secret dbname=shop sslmode=disable", cfg.Database.DSN())
}

func TestLoad_EnvFileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("STATIC_DIR=frontend/dist\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("STATIC_DIR") })
	t.Setenv("PORT", "4000")

	cfg, err := Load(envFile, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.Port)
	assert.Equal(t, "frontend/dist", cfg.StaticDir)
}
