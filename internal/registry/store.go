package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sys/unix"
)

// registryFile is the persisted shape of the registry document: projects
// as an array, insertion order irrelevant.
type registryFile struct {
	Version         int              `json:"version"`
	Projects        []*ProjectRecord `json:"projects"`
	ActiveProjectID string           `json:"active_project_id,omitempty"`
}

// Store persists the registry at a fixed path.
type Store struct {
	path     string
	lockPath string

	// mu serializes WithLock within the process; the flock below
	// serializes across processes.
	mu sync.Mutex
}

// NewStore creates a store for the registry document at path, creating the
// parent directory if needed. If path is empty the default location
// ~/.config/projectd/registry.json is used.
func NewStore(path string) (*Store, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, ".config", "projectd", "registry.json")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create registry directory: %w", err)
	}

	return &Store{
		path:     path,
		lockPath: path + ".lock",
	}, nil
}

// Path returns the registry document location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the registry from disk. A missing file yields an empty
// registry; an unparseable file yields ErrCorrupted with the on-disk bytes
// untouched; a document from a future schema version yields
// ErrUnsupportedVersion.
func (s *Store) Load() (*Registry, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}

	var rf registryFile
	if err := json.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	if rf.Version > SchemaVersion {
		return nil, fmt.Errorf("%w: %d (newest supported: %d)", ErrUnsupportedVersion, rf.Version, SchemaVersion)
	}
	if rf.Version == 0 {
		rf.Version = SchemaVersion
	}

	reg := &Registry{
		Version:         rf.Version,
		Projects:        make(map[string]*ProjectRecord, len(rf.Projects)),
		ActiveProjectID: rf.ActiveProjectID,
	}
	for _, p := range rf.Projects {
		if p == nil || p.ID == "" {
			return nil, fmt.Errorf("%w: project record without ID", ErrCorrupted)
		}
		if _, dup := reg.Projects[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate project ID %s", ErrCorrupted, p.ID)
		}
		reg.Projects[p.ID] = p
	}

	return reg, nil
}

// Save validates invariants and writes the registry atomically. On
// invariant violation the write is rejected and the previous document is
// left untouched.
func (s *Store) Save(reg *Registry) error {
	if err := reg.Validate(); err != nil {
		return err
	}

	rf := registryFile{
		Version:         reg.Version,
		Projects:        make([]*ProjectRecord, 0, len(reg.Projects)),
		ActiveProjectID: reg.ActiveProjectID,
	}
	for _, p := range reg.Projects {
		rf.Projects = append(rf.Projects, p)
	}
	sort.Slice(rf.Projects, func(i, j int) bool { return rf.Projects[i].ID < rf.Projects[j].ID })

	data, err := json.MarshalIndent(&rf, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	data = append(data, '\n')

	// Write to a temp file in the same directory, then rename over the
	// canonical path so readers never see a partial document.
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".registry-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp registry file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write registry: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to chmod registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close registry: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename registry: %w", err)
	}

	return nil
}

// WithLock runs fn with exclusive access to the registry and persists the
// result. The registry is loaded after the lock is acquired; if fn returns
// an error nothing is written. The lock is released on every exit path.
func (s *Store) WithLock(fn func(reg *Registry) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, err := os.OpenFile(s.lockPath, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("failed to open registry lock: %w", err)
	}
	defer lock.Close()

	if err := unix.Flock(int(lock.Fd()), unix.LOCK_EX); err != nil {
		return fmt.Errorf("failed to acquire registry lock: %w", err)
	}
	defer unix.Flock(int(lock.Fd()), unix.LOCK_UN)

	reg, err := s.Load()
	if err != nil {
		return err
	}
	if err := fn(reg); err != nil {
		return err
	}
	return s.Save(reg)
}
