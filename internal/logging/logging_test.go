package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")

	log := New(path)
	log.Info().Str("key", "value").Msg("hello")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	assert.Contains(t, string(data), "value")
}

func TestOpenRollingRotatesLargeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")
	big := make([]byte, maxLogSize+1)
	require.NoError(t, os.WriteFile(path, big, 0644))

	f := openRolling(path)
	require.NotNil(t, f)
	defer f.Close()

	assert.FileExists(t, path+".1")
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size(), "fresh file after rotation")
}
