package nas

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"homelink/internal/errors"
	"homelink/internal/flock"
)

// Store is the share folder on disk. All wire filenames are relative
// to its root; anything resolving outside the root is rejected. The
// root is guarded with a sibling lock file so two daemons never sync
// the same folder against each other.
type Store struct {
	root string
	lock *os.File
}

// NewStore creates the store, making the root if needed and taking
// the share lock.
func NewStore(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve share root %s", root)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, errors.Wrapf(err, "failed to create share root %s", abs)
	}

	// The lock file sits next to the root, not inside it, so it never
	// shows up in manifests or watcher events.
	lock, err := os.OpenFile(abs+".lock", os.O_RDWR|os.O_CREATE, 0o600) //nolint:gosec // derived from the share root
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open share lock for %s", abs)
	}
	if err := flock.Exclusive(lock.Fd()); err != nil {
		_ = lock.Close()
		return nil, fmt.Errorf("%w: %s", errors.ErrShareLocked, abs)
	}
	return &Store{root: abs, lock: lock}, nil
}

// Root returns the absolute share root.
func (s *Store) Root() string { return s.root }

// Close releases the share lock.
func (s *Store) Close() error {
	if s.lock == nil {
		return nil
	}
	_ = flock.Unlock(s.lock.Fd())
	err := s.lock.Close()
	s.lock = nil
	return err
}

// Manifest builds the current FileList.
func (s *Store) Manifest() (*FileList, error) {
	return BuildFileList(s.root)
}

// resolve maps a wire filename onto the disk, refusing escapes.
func (s *Store) resolve(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("%w: empty filename", errors.ErrPathOutsideRoot)
	}
	path := filepath.Join(s.root, filepath.FromSlash(filename))
	if path != s.root && !strings.HasPrefix(path, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", errors.ErrPathOutsideRoot, filename)
	}
	return path, nil
}

// ReadEncoded returns a file's base64 content and RFC3339 mtime, ready
// for the wire.
func (s *Store) ReadEncoded(filename string) (content, mtime string, err error) {
	path, err := s.resolve(filename)
	if err != nil {
		return "", "", err
	}
	raw, err := os.ReadFile(path) //nolint:gosec // resolve confines the path
	if err != nil {
		if os.IsNotExist(err) {
			return "", "", fmt.Errorf("%w: %s", errors.ErrFileNotFound, filename)
		}
		return "", "", errors.Wrapf(err, "failed to read %s", filename)
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", "", errors.Wrapf(err, "failed to stat %s", filename)
	}
	return base64.StdEncoding.EncodeToString(raw),
		info.ModTime().UTC().Truncate(time.Second).Format(time.RFC3339),
		nil
}

// WriteEncoded stores base64 content under filename with the given
// RFC3339 mtime. Identical existing content is left untouched so the
// watcher does not echo the write back.
func (s *Store) WriteEncoded(filename, content, mtime string) error {
	path, err := s.resolve(filename)
	if err != nil {
		return err
	}

	raw, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return errors.Wrapf(err, "failed to decode content for %s", filename)
	}
	when, err := time.Parse(time.RFC3339, mtime)
	if err != nil {
		return errors.Wrapf(err, "failed to parse mtime for %s", filename)
	}

	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, raw) { //nolint:gosec // confined
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return errors.Wrapf(err, "failed to create parent for %s", filename)
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return errors.Wrapf(err, "failed to write %s", filename)
	}
	if err := os.Chtimes(path, when, when); err != nil {
		return errors.Wrapf(err, "failed to set mtime on %s", filename)
	}
	return nil
}

// Remove deletes a file (or a whole directory) from the share.
func (s *Store) Remove(filename string) error {
	path, err := s.resolve(filename)
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", errors.ErrFileNotFound, filename)
		}
		return errors.Wrapf(err, "failed to stat %s", filename)
	}
	if info.IsDir() {
		return errors.Wrapf(os.RemoveAll(path), "failed to remove %s", filename)
	}
	return errors.Wrapf(os.Remove(path), "failed to remove %s", filename)
}
