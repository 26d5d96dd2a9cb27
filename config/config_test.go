package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadEmptyFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Defaults(), cfg)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "quiver.yaml")
	contents := "store:\n  backend: bolt\n  path: /var/data\nreasoner:\n  max_rounds: 5\npath:\n  max_depth: 10\n"
	require.NoError(t, os.WriteFile(file, []byte(contents), 0o644))

	cfg, err := Load(file)
	require.NoError(t, err)
	require.Equal(t, "bolt", cfg.StoreBackend)
	require.Equal(t, "/var/data", cfg.StorePath)
	require.Equal(t, 5, cfg.Reasoner.MaxRounds)
	require.Equal(t, 10, cfg.PathMaxDepth)
	// Unset keys keep the defaults.
	require.Equal(t, Defaults().Reasoner.MaxIterations, cfg.Reasoner.MaxIterations)
	require.Equal(t, Defaults().QueryTimeout, cfg.QueryTimeout)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	t.Setenv("QUIVER_STORE_BACKEND", "memory")
	t.Setenv("QUIVER_QUERY_TIMEOUT", "5s")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "memory", cfg.StoreBackend)
	require.Equal(t, 5*time.Second, cfg.QueryTimeout)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.Error(t, err)
}
