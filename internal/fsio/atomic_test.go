package fsio

import (
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWriter() *Writer {
	return &Writer{MaxRetries: 3, BaseDelay: time.Millisecond, Backup: true}
}

func TestWriteCreatesNewFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.py")

	w := newTestWriter()
	require.NoError(t, w.Write(path, []byte("x = 1\n")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x = 1\n", string(data))

	// No backup for a file that did not exist before.
	_, err = os.Stat(path + ".bak")
	assert.True(t, os.IsNotExist(err))
}

func TestWriteBacksUpExistingContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.py")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o644))

	w := newTestWriter()
	require.NoError(t, w.Write(path, []byte("new\n")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new\n", string(data))

	bak, err := os.ReadFile(path + ".bak")
	require.NoError(t, err)
	assert.Equal(t, "old\n", string(bak), "backup must hold the pre-write content")
}

func TestWriteBackupDisabled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.py")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o644))

	w := newTestWriter()
	w.Backup = false
	require.NoError(t, w.Write(path, []byte("new\n")))

	_, err := os.Stat(path + ".bak")
	assert.True(t, os.IsNotExist(err))
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.py")

	w := newTestWriter()
	require.NoError(t, w.Write(path, []byte("content\n")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "stale temp file %s", e.Name())
	}
}

func TestWriteFailsOnDirectoryTarget(t *testing.T) {
	dir := t.TempDir()

	w := newTestWriter()
	err := w.Write(dir, []byte("x"))
	require.Error(t, err)
}

func TestWritePreservesFileMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.py")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o755))

	w := newTestWriter()
	require.NoError(t, w.Write(path, []byte("new\n")))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

// failRenames makes the replace step fail n times (forever when n < 0) with
// err before restoring the real os.Rename.
func failRenames(t *testing.T, n int, err error) *int {
	t.Helper()
	calls := 0
	renameFile = func(oldpath, newpath string) error {
		calls++
		if n < 0 || calls <= n {
			return err
		}
		return os.Rename(oldpath, newpath)
	}
	t.Cleanup(func() { renameFile = os.Rename })
	return &calls
}

func TestWriteRetriesTransientFailureThenSucceeds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.py")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o644))

	busy := &os.PathError{Op: "rename", Path: path, Err: syscall.EBUSY}
	calls := failRenames(t, 2, busy)

	w := newTestWriter()
	require.NoError(t, w.Write(path, []byte("new\n")))
	assert.Equal(t, 3, *calls, "two transient failures then the successful attempt")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new\n", string(data))
}

func TestInterruptedWriteLeavesTargetIntact(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.py")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o644))

	busy := &os.PathError{Op: "rename", Path: path, Err: syscall.EBUSY}
	calls := failRenames(t, -1, busy)

	w := newTestWriter()
	err := w.Write(path, []byte("new\n"))
	require.ErrorIs(t, err, syscall.EBUSY)
	assert.Equal(t, w.MaxRetries+1, *calls, "transient errors exhaust every retry")

	// The temp file existed and was synced before each failed replace; the
	// target must still hold the pre-write content with no temp debris.
	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, "old\n", string(data))

	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "stale temp file %s", e.Name())
	}
}

func TestWriteDoesNotRetryPermanentFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.py")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o644))

	noent := &os.PathError{Op: "rename", Path: path, Err: syscall.ENOENT}
	calls := failRenames(t, -1, noent)

	w := newTestWriter()
	err := w.Write(path, []byte("new\n"))
	require.ErrorIs(t, err, syscall.ENOENT)
	assert.Equal(t, 1, *calls, "non-transient errors must not be retried")

	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, "old\n", string(data))
}

func TestIsTransient(t *testing.T) {
	assert.True(t, isTransient(&os.PathError{Op: "rename", Path: "x", Err: syscall.EACCES}))
	assert.True(t, isTransient(&os.PathError{Op: "open", Path: "x", Err: syscall.EBUSY}))
	assert.False(t, isTransient(&os.PathError{Op: "open", Path: "x", Err: syscall.ENOENT}))
	assert.False(t, isTransient(nil))
}
