package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir keeps a stray config.yaml or .env in the package dir out of Load.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "yatube.db", cfg.Database.Path)
	assert.Empty(t, cfg.Database.Host)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 20*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "/media/", cfg.MediaURL)
	assert.Equal(t, 10, cfg.LoginRatePerMinute)
}

func TestLoadFromEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("ADDR", ":9090")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("CACHE_TTL", "1m")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadRejectsUnknownCacheBackend(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CACHE_BACKEND", "memcached")

	_, err := Load()
	assert.ErrorContains(t, err, "CACHE_BACKEND")
}

func TestLoadRejectsMalformedDurations(t *testing.T) {
	for _, key := range []string{"CACHE_TTL", "SHUTDOWN_TIMEOUT"} {
		t.Run(key, func(t *testing.T) {
			chdir(t, t.TempDir())
			t.Setenv(key, "abc")

			_, err := Load()
			assert.ErrorContains(t, err, key)
		})
	}
}

func TestValidateTTL(t *testing.T) {
	cfg := &Config{
		Cache:              Cache{Backend: "memory"},
		ShutdownTimeout:    time.Second,
		LoginRatePerMinute: 1,
		LoginBurst:         1,
	}
	assert.Error(t, cfg.Validate())

	cfg.Cache.TTL = time.Second
	assert.NoError(t, cfg.Validate())
}
