package data

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	before := time.Now().Add(-time.Second)

	j, err := OpenJournal(path)
	require.NoError(t, err)
	j.Log("player.moved", map[string]float64{"lat": 1.5, "lng": 2})
	j.Log("notice", nil)
	require.NoError(t, j.Close())

	// garbage lines are skipped
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	f.WriteString("not json\n")
	f.Close()

	entries, err := ReadJournal(path, before)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "player.moved", entries[0].Type)
	assert.JSONEq(t, `{"lat":1.5,"lng":2}`, string(entries[0].Data))
	assert.Equal(t, "notice", entries[1].Type)
	assert.Empty(t, entries[1].Data)

	later, err := ReadJournal(path, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, later)
}

func TestJournalMissingAndNil(t *testing.T) {
	entries, err := ReadJournal(filepath.Join(t.TempDir(), "none.jsonl"), time.Time{})
	require.NoError(t, err)
	assert.Empty(t, entries)

	var j *Journal
	j.Log("notice", "dropped")
	assert.NoError(t, j.Close())
}
