package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := Load(path, zerolog.Nop())

	require.NotNil(t, cfg)
	assert.Equal(t, Default(), cfg)
	assert.FileExists(t, path, "a default file should be written for the operator to edit")
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"username":"alice","max_retries":5}`), 0600))

	cfg := Load(path, zerolog.Nop())

	require.NotNil(t, cfg)
	assert.Equal(t, "alice", cfg.Username)
	assert.Equal(t, 5, cfg.MaxRetries)
	// Keys the file left out come from defaults.
	assert.Equal(t, "session.json", cfg.SessionFile)
	assert.Equal(t, []float64{2, 5}, cfg.DelayRange)
}

func TestLoadCorruptFileFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	cfg := Load(path, zerolog.Nop())

	require.NotNil(t, cfg)
	assert.Equal(t, Default(), cfg)
}

func TestLoadInvalidValuesFallBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"proxy":"not-a-url","max_retries":3}`), 0600))

	cfg := Load(path, zerolog.Nop())

	require.NotNil(t, cfg)
	assert.Empty(t, cfg.Proxy)
}

func TestWriteTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	require.NoError(t, WriteTemplate(path))

	cfg := Load(path, zerolog.Nop())
	assert.Equal(t, "your_username", cfg.Username)
	assert.Equal(t, "your_password", cfg.Password)
}
