package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *SessionStore {
	t.Helper()
	return NewSessionStore(filepath.Join(t.TempDir(), "session.json"))
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store := newStore(t)
	blob := []byte(`{"username":"alice","cookies":{"sessionid":"s1"}}`)

	require.NoError(t, store.Save(blob))
	assert.True(t, store.Exists())

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, blob, loaded)
}

func TestSaveRejectsNonJSON(t *testing.T) {
	store := newStore(t)

	err := store.Save([]byte("not json at all"))

	assert.Error(t, err)
	assert.False(t, store.Exists())
}

func TestLoadMissingFile(t *testing.T) {
	store := newStore(t)

	_, err := store.Load()

	assert.ErrorIs(t, err, ErrNoSession)
}

func TestLoadCorruptFile(t *testing.T) {
	store := newStore(t)
	require.NoError(t, os.WriteFile(store.Path(), []byte("{broken"), 0600))

	_, err := store.Load()

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSession)
}

func TestDeleteIsTolerantOfAbsence(t *testing.T) {
	store := newStore(t)

	assert.NoError(t, store.Delete())

	require.NoError(t, store.Save([]byte(`{}`)))
	assert.NoError(t, store.Delete())
	assert.False(t, store.Exists())
	assert.NoError(t, store.Delete())
}
