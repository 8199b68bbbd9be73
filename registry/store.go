package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/warren-tools/warren/errors"
)

// RegistryFileName is the registry document name under the project's
// .warren directory.
const RegistryFileName = "sessions.json"

// Store abstracts registry persistence so orchestration code can be tested
// against an in-memory implementation.
type Store interface {
	// Load reads the registry. An absent file is an empty registry, not an
	// error. A file that exists but cannot be parsed is CorruptRegistry.
	Load() (*Registry, error)

	// LoadOrBackup behaves like Load, except a corrupt document is moved
	// aside to a timestamped backup and an empty registry is returned. The
	// backup path is returned when a backup happened.
	LoadOrBackup() (*Registry, string, error)

	// Save atomically replaces the registry document. Concurrent savers
	// are last-writer-wins; no saver can observe a torn document.
	Save(reg *Registry) error

	// Path returns the location of the registry document.
	Path() string
}

// FileStore persists the registry as JSON at <dir>/sessions.json.
type FileStore struct {
	path string
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a store rooted at the given .warren directory.
func NewFileStore(warrenDir string) *FileStore {
	return &FileStore{path: filepath.Join(warrenDir, RegistryFileName)}
}

// Path returns the registry file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads and parses the registry document.
func (s *FileStore) Load() (*Registry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			// First use of a project: no document yet.
			return NewRegistry(), nil
		}
		return nil, fmt.Errorf("read registry: %w", err)
	}

	var reg Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, errors.CorruptRegistry(s.path, err)
	}

	if reg.Sessions == nil {
		reg.Sessions = make(map[string]*Record)
	}
	if reg.Version == 0 {
		reg.Version = CurrentVersion
	}

	return &reg, nil
}

// LoadOrBackup loads the registry, quarantining a corrupt document instead
// of failing. User records are never silently destroyed; the bad bytes stay
// on disk under a timestamped name.
func (s *FileStore) LoadOrBackup() (*Registry, string, error) {
	reg, err := s.Load()
	if err == nil {
		return reg, "", nil
	}
	if errors.GetCode(err) != errors.ErrCodeCorruptRegistry {
		return nil, "", err
	}

	backupPath := fmt.Sprintf("%s.%s.backup", s.path, time.Now().Format("20060102-150405"))
	if renameErr := os.Rename(s.path, backupPath); renameErr != nil {
		return nil, "", fmt.Errorf("back up corrupt registry: %w", renameErr)
	}

	return NewRegistry(), backupPath, nil
}

// Save writes the registry with an atomic replace: marshal to a temp file in
// the same directory, then rename over the target. Readers see either the
// old document or the new one, never a partial write.
func (s *FileStore) Save(reg *Registry) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create registry directory: %w", err)
	}

	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), RegistryFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp registry file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write registry: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close registry: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace registry: %w", err)
	}

	return nil
}
