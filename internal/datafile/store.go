package datafile

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Store owns the document on disk and serializes every access to it.
// Mutations run on a copy, which replaces the held document only after it
// was written successfully. Writes by other processes are picked up before
// the next access.
type Store struct {
	mu       sync.Mutex
	path     string
	file     *DataFile
	stamp    fileStamp
	revision uint64
}

// fileStamp identifies one version of the file on disk.
type fileStamp struct {
	exists  bool
	size    int64
	modTime time.Time
}

func stampOf(path string) (fileStamp, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return fileStamp{}, nil
	}
	if err != nil {
		return fileStamp{}, err
	}
	return fileStamp{exists: true, size: info.Size(), modTime: info.ModTime()}, nil
}

// Open reads the document at path.
func Open(path string) (*Store, error) {
	stamp, err := stampOf(path)
	if err != nil {
		return nil, err
	}
	f, err := Read(path)
	if err != nil {
		return nil, err
	}
	return &Store{path: path, file: f, stamp: stamp}, nil
}

func (s *Store) Path() string { return s.path }

// Revision counts successful updates and reloads since Open.
func (s *Store) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshOrWarn()
	return s.revision
}

// View calls fn with the current document under the lock. fn must not keep
// references to the document after it returns.
func (s *Store) View(fn func(*DataFile) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshOrWarn()
	return fn(s.file)
}

// Snapshot returns a deep copy of the current document and its revision.
func (s *Store) Snapshot() (*DataFile, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshOrWarn()
	return s.file.Clone(), s.revision
}

// Update runs fn on a copy of the document and writes the result. The lock
// is held from the copy until the write finished. If fn or the write fails
// the held document is unchanged. A changed file that no longer parses
// aborts the update.
func (s *Store) Update(ctx context.Context, fn func(*DataFile) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.refresh(false); err != nil {
		return err
	}
	next := s.file.Clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := Write(s.path, next); err != nil {
		return err
	}
	s.file = next
	s.revision++
	if stamp, err := stampOf(s.path); err == nil {
		s.stamp = stamp
	}
	return nil
}

// Reload replaces the held document with the one on disk.
func (s *Store) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh(true)
}

// refresh rereads the file when its stamp changed, or always when forced.
// The caller holds the lock.
func (s *Store) refresh(force bool) error {
	stamp, err := stampOf(s.path)
	if err != nil {
		return err
	}
	if !force && stamp == s.stamp {
		return nil
	}
	f, err := Read(s.path)
	if err != nil {
		return err
	}
	s.file = f
	s.stamp = stamp
	s.revision++
	return nil
}

// refreshOrWarn keeps serving the held document when the file on disk
// cannot be read.
func (s *Store) refreshOrWarn() {
	if err := s.refresh(false); err != nil {
		slog.Warn("Document changed on disk but could not be read, keeping held copy",
			"path", s.path, "error", err)
	}
}
