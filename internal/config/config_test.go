package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "bolt://localhost:7687", cfg.Neo4j.URI)
	require.Equal(t, "neo4j", cfg.Neo4j.Database)
	require.Equal(t, 4, cfg.Loader.QueueDepth)
	require.Equal(t, 1, cfg.Loader.WriteConcurrency)
	require.Equal(t, 3, cfg.Loader.MaxRetries)
	require.Equal(t, time.Second, cfg.Loader.InitialBackoff)
	require.Equal(t, 30*time.Second, cfg.Loader.MaxBackoff)
	require.Equal(t, 1000, cfg.Loader.MaxRecordErrors)
	require.True(t, cfg.Loader.ContinueOnError)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("NEO4J_URI", "bolt://graph:7687")
	t.Setenv("LOADER_WRITE_CONCURRENCY", "4")
	t.Setenv("LOADER_INITIAL_BACKOFF", "250ms")
	t.Setenv("LOADER_CONTINUE_ON_ERROR", "false")
	t.Setenv("LOADER_MAX_RECORD_ERRORS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "bolt://graph:7687", cfg.Neo4j.URI)
	require.Equal(t, 4, cfg.Loader.WriteConcurrency)
	require.Equal(t, 250*time.Millisecond, cfg.Loader.InitialBackoff)
	require.False(t, cfg.Loader.ContinueOnError)
	// Unparseable values fall back to the default.
	require.Equal(t, 1000, cfg.Loader.MaxRecordErrors)
}
