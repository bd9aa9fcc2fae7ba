package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the contract every store must satisfy
func exerciseStore(t *testing.T, s Store) {
	t.Helper()

	_, ok, err := s.Get("gameState")
	require.NoError(t, err)
	assert.False(t, ok, "missing key is no saved state")

	require.NoError(t, s.Set("gameState", []byte(`{"a":1}`)))
	v, ok, err := s.Get("gameState")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"a":1}`, string(v))

	require.NoError(t, s.Set("gameState", []byte(`{"a":2}`)))
	v, _, _ = s.Get("gameState")
	assert.Equal(t, `{"a":2}`, string(v))

	require.NoError(t, s.Remove("gameState"))
	_, ok, err = s.Get("gameState")
	require.NoError(t, err)
	assert.False(t, ok)

	// removing twice is fine
	require.NoError(t, s.Remove("gameState"))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	s := NewMemoryStore()
	v := []byte("abc")
	require.NoError(t, s.Set("k", v))
	v[0] = 'x'

	got, _, _ := s.Get("k")
	assert.Equal(t, "abc", string(got))
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "nested", "state.json"))
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestFileStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("gameState", []byte(`{"version":1}`)))

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	v, ok, err := reopened.Get("gameState")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"version":1}`, string(v))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file should be renamed away")
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := NewFileStore(path)
	assert.Error(t, err)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}

func TestSQLiteStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("gameState", []byte(`{"version":1}`)))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	v, ok, err := reopened.Get("gameState")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"version":1}`, string(v))
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	for _, kind := range []string{KindMemory, KindFile, KindSQLite} {
		t.Run(kind, func(t *testing.T) {
			s, err := Open(kind, dir)
			require.NoError(t, err)
			defer s.Close()
			exerciseStore(t, s)
		})
	}

	_, err := Open("redis", dir)
	assert.Error(t, err)
}
