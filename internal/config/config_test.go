package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the dotenv lookup at an empty directory so a stray .env in
// the package directory cannot leak into a test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("RUSQBIN_ENV_FILE", filepath.Join(dir, "missing.env"))
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "127.0.0.1:9999", cfg.Addr)
}

func TestLoadFlags(t *testing.T) {
	isolate(t)
	cfg, err := Load([]string{
		"-addr", "0.0.0.0:7000",
		"-admin-addr", "",
		"-log-level", "debug",
		"-log-format", "json",
		"-shutdown-timeout", "3s",
		"-banner=false",
	})
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:7000", cfg.Addr)
	assert.Equal(t, "", cfg.AdminAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.Banner)
}

func TestLoadPositionalPort(t *testing.T) {
	isolate(t)
	cfg, err := Load([]string{"7000"})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7000", cfg.Addr)

	cfg, err = Load([]string{"-addr", "0.0.0.0:1", "7001"})
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:7001", cfg.Addr)
}

func TestLoadBadPort(t *testing.T) {
	isolate(t)
	_, err := Load([]string{"lulz"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port must be a number")

	_, err = Load([]string{"1", "2"})
	require.Error(t, err)
}

func TestLoadVersion(t *testing.T) {
	isolate(t)
	_, err := Load([]string{"-version"})
	assert.ErrorIs(t, err, ErrVersion)
}

func TestLoadEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("RUSQBIN_LOG_LEVEL", "warn")
	t.Setenv("RUSQBIN_ADDR", "127.0.0.1:8123")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "127.0.0.1:8123", cfg.Addr)
}

func TestLoadDotenv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "rusqbin.env")
	require.NoError(t, os.WriteFile(envFile, []byte("RUSQBIN_LOG_FORMAT=json\n"), 0o644))
	t.Setenv("RUSQBIN_ENV_FILE", envFile)
	t.Cleanup(func() { _ = os.Unsetenv("RUSQBIN_LOG_FORMAT") })

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.LogFormat)
}
