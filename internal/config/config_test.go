package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 3, cfg.Presales.AllocationAttempts)
	assert.Equal(t, 10*time.Second, cfg.Presales.WriteTimeout)
	assert.Equal(t, 5*time.Second, cfg.Presales.ReadTimeout)
	assert.Equal(t, "TOP_MGMT", cfg.Presales.PrivilegedGroup)
	assert.InDelta(t, 16500.0, cfg.Presales.USDRate, 0.001)
	assert.Equal(t, 1000, cfg.Presales.ActivityLogLimit)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	yaml := []byte(`
database:
  driver: sqlite
  sqlite_path: /tmp/leads.db
presales:
  allocation_attempts: 5
  usd_discounts:
    cisco: 0.4
`)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "configs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", "config.yaml"), yaml, 0o644))
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/leads.db", cfg.Database.SQLitePath)
	assert.Equal(t, 5, cfg.Presales.AllocationAttempts)
	assert.Equal(t, 9090, cfg.Server.Port)
	// viper lower-cases map keys
	assert.InDelta(t, 0.4, cfg.Presales.USDDiscounts["cisco"], 0.0001)
}

func TestPresalesLocationFallback(t *testing.T) {
	loc := PresalesConfig{Timezone: "Nowhere/Invalid"}.Location()
	_, offset := time.Date(2026, 1, 1, 0, 0, 0, 0, loc).Zone()
	assert.Equal(t, 7*60*60, offset)
}
