package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/seamerge_test")
	t.Setenv("PORT", "")
	t.Setenv("STORAGE_PATH", "")
	t.Setenv("ANALYZE_CONCURRENCY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 4, cfg.Server.AnalyzeConcurrency)
	assert.Equal(t, "uploads/merged", cfg.Storage.BasePath)
	assert.Equal(t, "postgres://localhost/seamerge_test", cfg.Database.URL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/seamerge_test")
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE_PATH", "/data/merged")
	t.Setenv("ANALYZE_CONCURRENCY", "8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 8, cfg.Server.AnalyzeConcurrency)
	assert.Equal(t, "/data/merged", cfg.Storage.BasePath)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoadRejectsBadConcurrency(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/seamerge_test")

	// Unparseable values fall back to the default
	t.Setenv("ANALYZE_CONCURRENCY", "lots")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Server.AnalyzeConcurrency)

	// A parseable but invalid value is a hard error
	t.Setenv("ANALYZE_CONCURRENCY", "0")
	_, err = Load()
	require.Error(t, err)
}
