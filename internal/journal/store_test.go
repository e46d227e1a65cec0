package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resym/internal/rename"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := openTestStore(t)

	err := store.Record(Entry{
		File:    "pkg/calc.py",
		OldName: "total",
		NewName: "sum_values",
		Kind:    rename.KindFunction,
		Engine:  rename.EngineAST,
		Changes: 2,
		Success: true,
	})
	require.NoError(t, err)

	entries, err := store.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got := entries[0]
	assert.Equal(t, "pkg/calc.py", got.File)
	assert.Equal(t, "total", got.OldName)
	assert.Equal(t, "sum_values", got.NewName)
	assert.Equal(t, rename.KindFunction, got.Kind)
	assert.Equal(t, rename.EngineAST, got.Engine)
	assert.Equal(t, 2, got.Changes)
	assert.True(t, got.Success)
	assert.False(t, got.Timestamp.IsZero())
}

func TestRecentOrdersNewestFirst(t *testing.T) {
	store := openTestStore(t)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Record(Entry{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			File:      "m.py",
			OldName:   "a",
			NewName:   "b",
			Engine:    rename.EngineText,
			Success:   true,
		}))
	}

	entries, err := store.Recent(2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].Timestamp.After(entries[1].Timestamp))
}

func TestFailedAttemptIsRecorded(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Record(Entry{
		File:    "broken.py",
		OldName: "a",
		NewName: "b",
		Engine:  rename.EngineAST,
		Success: false,
		Error:   "syntax error in source file",
	}))

	entries, err := store.Recent(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Success)
	assert.Equal(t, "syntax error in source file", entries[0].Error)
	assert.Equal(t, rename.KindAny, entries[0].Kind, "empty kind defaults to any")
}

func TestOpenRejectsDirectory(t *testing.T) {
	_, err := Open(t.TempDir())
	require.Error(t, err)
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "journal.db")
	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()
	assert.Equal(t, path, store.Path())
}

func TestReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Record(Entry{File: "m.py", OldName: "a", NewName: "b", Engine: rename.EngineText, Success: true}))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	entries, err := reopened.Recent(10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
