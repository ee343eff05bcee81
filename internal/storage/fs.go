package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/fragments/internal/apperr"
)

// FSData implements DataStore backed by the local file system. Payloads
// live at <root>/<ownerID>/<id>; writes are atomic (tmp file, fsync,
// rename) so readers never observe a partial payload.
type FSData struct {
	root string // absolute path to the data directory
}

// NewFSData creates an FS data store rooted at the given directory.
// The directory must already exist.
func NewFSData(root string) (*FSData, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FSData{root: abs}, nil
}

// payloadPath resolves (ownerID, id) to an absolute path and rejects any
// component that would escape the root (directory traversal). Owner ids
// are digests and fragment ids are UUIDs, but the store does not rely on
// that.
func (f *FSData) payloadPath(ownerID, id string) (string, error) {
	for _, part := range []string{ownerID, id} {
		if part == "" || part != filepath.Clean(part) || strings.ContainsAny(part, `/\`) {
			return "", fmt.Errorf("storage: invalid key component: %q", part)
		}
	}
	abs := filepath.Join(f.root, ownerID, id)
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: path escapes root: %s/%s", ownerID, id)
	}
	return abs, nil
}

// Read returns the payload bytes for (ownerID, id).
func (f *FSData) Read(_ context.Context, ownerID, id string) ([]byte, error) {
	abs, err := f.payloadPath(ownerID, id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("storage: read %s: %w", id, err)
	}
	return data, nil
}

// Write atomically replaces the payload: tmp file, fsync, rename.
func (f *FSData) Write(_ context.Context, ownerID, id string, data []byte) error {
	abs, err := f.payloadPath(ownerID, id)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".fragments-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// Exists reports whether a payload file is present.
func (f *FSData) Exists(_ context.Context, ownerID, id string) (bool, error) {
	abs, err := f.payloadPath(ownerID, id)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(abs); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("storage: stat %s: %w", id, err)
	}
	return true, nil
}

// Delete removes the payload file.
func (f *FSData) Delete(_ context.Context, ownerID, id string) error {
	abs, err := f.payloadPath(ownerID, id)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("delete %s: %w", id, apperr.ErrNotFound)
		}
		return fmt.Errorf("storage: delete %s: %w", id, err)
	}
	return nil
}
