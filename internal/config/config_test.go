package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setCredentials(t *testing.T) {
	t.Setenv("VINYLOG_DATABASE_URL", "postgres://localhost/vinylog_test")
	t.Setenv("VINYLOG_LASTFM_API_KEY", "lastfm-key")
	t.Setenv("VINYLOG_SPOTIFY_CLIENT_ID", "spotify-id")
	t.Setenv("VINYLOG_SPOTIFY_CLIENT_SECRET", "spotify-secret")
}

func TestLoadDefaults(t *testing.T) {
	setCredentials(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
	assert.Equal(t, 16, cfg.Cache.SizeMB)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "postgres://localhost/vinylog_test", cfg.Database.URL)
}

func TestLoadEnvOverrides(t *testing.T) {
	setCredentials(t)
	t.Setenv("VINYLOG_ADDR", "0.0.0.0:9000")
	t.Setenv("VINYLOG_LOG_LEVEL", "debug")
	t.Setenv("VINYLOG_CACHE_SIZE_MB", "0")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Zero(t, cfg.Cache.SizeMB)
}

func TestLoadFile(t *testing.T) {
	setCredentials(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "vinylog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: "10.0.0.1:8888"
logger:
  format: console
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.1:8888", cfg.Server.Addr)
	assert.Equal(t, "console", cfg.Logger.Format)
}

func TestEnvBeatsFile(t *testing.T) {
	setCredentials(t)
	t.Setenv("VINYLOG_ADDR", "0.0.0.0:7000")

	dir := t.TempDir()
	path := filepath.Join(dir, "vinylog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \"10.0.0.1:8888\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:7000", cfg.Server.Addr)
}

func TestLoadMissingCredentials(t *testing.T) {
	t.Setenv("VINYLOG_DATABASE_URL", "postgres://localhost/vinylog_test")
	t.Setenv("VINYLOG_LASTFM_API_KEY", "")
	t.Setenv("VINYLOG_SPOTIFY_CLIENT_ID", "")
	t.Setenv("VINYLOG_SPOTIFY_CLIENT_SECRET", "")

	_, err := Load("")
	assert.Error(t, err)
}
