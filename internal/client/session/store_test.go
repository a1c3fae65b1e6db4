package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "session.json"))
}

func TestFileStoreRoundTrip(t *testing.T) {
	store := tempStore(t)

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded)

	sess := validSession("POLICE")
	require.NoError(t, store.Save(sess))

	loaded, err = store.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, *sess, *loaded)

	require.NoError(t, store.Clear())
	loaded, err = store.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestFileStoreRejectsIncompleteSession(t *testing.T) {
	store := tempStore(t)

	err := store.Save(&Session{AccessToken: "token-1"})
	assert.ErrorIs(t, err, ErrIncomplete)

	err = store.Save(&Session{Identity: Identity{ID: "u1", Role: "WOMAN"}})
	assert.ErrorIs(t, err, ErrIncomplete)
}

func TestFileStoreDiscardsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	loaded, err := NewFileStore(path).Load()
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestFileStoreClearIsIdempotent(t *testing.T) {
	store := tempStore(t)
	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
}
