package fsio

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"

	"resym/internal/shared/observability"
)

const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 100 * time.Millisecond

	defaultFileMode fs.FileMode = 0o644
)

// ErrBackupFailed indicates the pre-write backup could not be created.
// A requested backup is never silently skipped.
var ErrBackupFailed = errors.New("backup failed")

// renameFile is swapped out in tests to fail the final replace step.
var renameFile = os.Rename

// Writer performs crash-safe file replacement: content lands in a uniquely
// named temp file in the target's directory, is synced, and is swapped in
// with a single rename. A concurrent reader observes either the old or the
// new content, never a truncated mix.
type Writer struct {
	MaxRetries int
	BaseDelay  time.Duration
	Backup     bool
}

func NewWriter() *Writer {
	return &Writer{
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
		Backup:     true,
	}
}

// Write replaces path with content. When Backup is set and path already
// exists, the pre-write content is copied to path+".bak" first; a backup
// failure aborts the write. Transient lock/permission errors are retried
// with exponential backoff up to MaxRetries.
func (w *Writer) Write(path string, content []byte) error {
	mode := defaultFileMode
	exists := false
	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			return fmt.Errorf("write %s: path is a directory", path)
		}
		mode = info.Mode().Perm()
		exists = true
	}

	if w.Backup && exists {
		if err := copyFile(path, path+".bak", mode); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrBackupFailed, path, err)
		}
		observability.BackupsCreatedTotal.Inc()
	}

	var lastErr error
	for attempt := 0; attempt <= w.MaxRetries; attempt++ {
		if attempt > 0 {
			observability.WriteRetriesTotal.Inc()
			time.Sleep(w.BaseDelay * (1 << (attempt - 1)))
		}

		lastErr = replaceFile(path, content, mode)
		if lastErr == nil {
			return nil
		}
		if !isTransient(lastErr) {
			break
		}
	}
	return fmt.Errorf("write %s: %w", path, lastErr)
}

func replaceFile(path string, content []byte, mode fs.FileMode) error {
	dir := filepath.Dir(path)
	tmpPath := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.NewString()[:8]))

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode)
	if err != nil {
		return err
	}

	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if err := renameFile(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

func copyFile(src, dst string, mode fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	return out.Close()
}

// isTransient reports whether the errno indicates a lock or permission
// condition that may clear on retry.
func isTransient(err error) bool {
	for _, errno := range []syscall.Errno{syscall.EACCES, syscall.EPERM, syscall.EBUSY, syscall.ETXTBSY} {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}
