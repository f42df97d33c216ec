package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBuiltinDefaults(t *testing.T) {
	t.Setenv("CVEGUARDIAN_CONFIG", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2000, cfg.NVD.PageSize)
	assert.Equal(t, 6*time.Second, cfg.NVD.PageDelay)
	assert.Equal(t, 2*time.Hour, cfg.NVD.Interval)
	assert.Equal(t, 5*time.Minute, cfg.Scanner.CloneTimeout)
	assert.Equal(t, 15*time.Minute, cfg.Scanner.RunTimeout)
}

func TestLoadMissingConfigFile(t *testing.T) {
	t.Setenv("CVEGUARDIAN_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestLoadFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overlay.yaml")
	overlay := "http_port: \"9999\"\narango:\n  database: overridden\nnvd:\n  interval: 30m\nscanner:\n  run_timeout: 1h\n"
	require.NoError(t, os.WriteFile(path, []byte(overlay), 0o600))
	t.Setenv("CVEGUARDIAN_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.HTTPPort)
	assert.Equal(t, "overridden", cfg.Arango.Database)
	assert.Equal(t, 30*time.Minute, cfg.NVD.Interval)
	assert.Equal(t, time.Hour, cfg.Scanner.RunTimeout)
	assert.Equal(t, 2000, cfg.NVD.PageSize, "fields absent from the overlay keep their defaults")
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("nvd:\n  interval: soon\n"), 0o600))
	t.Setenv("CVEGUARDIAN_CONFIG", path)

	_, err := Load()
	require.Error(t, err)
}
