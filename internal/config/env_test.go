package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvDefaults(t *testing.T) {
	for _, key := range []string{"RAPIDS_HOME", "RAPIDS_LOG_LEVEL", "RAPIDS_ARCHIVE_URL", "RAPIDS_PRECACHE"} {
		unsetEnv(t, key)
	}

	env, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, DefaultArchiveURL, env.ArchiveURL)
	assert.Equal(t, slog.LevelWarn, env.SlogLevel())
	assert.False(t, env.Precache)
}

func TestLoadEnvOverrides(t *testing.T) {
	home := t.TempDir()
	t.Setenv("RAPIDS_HOME", home)
	t.Setenv("RAPIDS_PLATFORM", "darwin")
	t.Setenv("RAPIDS_LOG_LEVEL", "debug")
	t.Setenv("RAPIDS_PRECACHE", "true")

	env, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, env.SlogLevel())
	assert.True(t, env.Precache)

	resolver, err := env.Resolver()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".claude"), resolver.GlobalRoot())
	assert.True(t, resolver.Profile.Supported)
}

func TestLoadEnvArchiveURL(t *testing.T) {
	t.Setenv("RAPIDS_ARCHIVE_URL", "s3://mirror/rapids.tar.gz")
	env, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, "s3://mirror/rapids.tar.gz", env.ArchiveURL)

	t.Setenv("RAPIDS_ARCHIVE_URL", "")
	env, err = LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, DefaultArchiveURL, env.ArchiveURL)
}

func TestSlogLevelFallsBackOnGarbage(t *testing.T) {
	env := &Env{LogLevel: "loud"}
	assert.Equal(t, slog.LevelWarn, env.SlogLevel())
}

func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("unset %s: %v", key, err)
	}
}
