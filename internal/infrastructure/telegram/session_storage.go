package telegram

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gotd/td/session"
)

// FileSessionStorage persists one MTProto session as a JSON artifact under
// the configured session directory. It implements session.Storage for gotd.
type FileSessionStorage struct {
	dir  string
	name string
}

// NewFileSessionStorage builds storage for one session, creating the
// session directory when missing.
func NewFileSessionStorage(dir, name string) (*FileSessionStorage, error) {
	if dir == "" {
		return nil, fmt.Errorf("session directory is required")
	}
	if name == "" {
		return nil, fmt.Errorf("session name is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}
	return &FileSessionStorage{dir: dir, name: name}, nil
}

// Path returns the artifact location for this session.
func (s *FileSessionStorage) Path() string {
	return filepath.Join(s.dir, fmt.Sprintf("session_%s.json", s.name))
}

// LoadSession reads the stored session data. Missing or empty artifacts
// report session.ErrNotFound so gotd starts a fresh authorization.
func (s *FileSessionStorage) LoadSession(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	if len(data) == 0 {
		return nil, session.ErrNotFound
	}
	return data, nil
}

// StoreSession writes the session data with owner-only permissions.
func (s *FileSessionStorage) StoreSession(_ context.Context, data []byte) error {
	if err := os.WriteFile(s.Path(), data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// DeleteSession removes the artifact. Missing files are not an error.
func (s *FileSessionStorage) DeleteSession() error {
	if err := os.Remove(s.Path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}

// SessionExists reports whether a non-empty artifact is stored.
func (s *FileSessionStorage) SessionExists() bool {
	info, err := os.Stat(s.Path())
	if err != nil {
		return false
	}
	return info.Size() > 0
}
