// Package registry manages the durable store of registered projects and
// the currently active one.
//
// The registry is a single JSON document. Writers replace it atomically
// (temp file + rename) so readers never observe a partial write. Compound
// read-modify-write sequences go through Store.WithLock, which serializes
// concurrent processes with an advisory lock on a sidecar file.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// SchemaVersion is the current persisted schema version. Documents with a
// higher version fail closed on load.
const SchemaVersion = 1

// Errors for registry operations.
var (
	ErrCorrupted          = errors.New("registry file corrupted")
	ErrUnsupportedVersion = errors.New("unsupported registry version")
	ErrInvariantViolation = errors.New("registry invariant violation")
	ErrProjectNotFound    = errors.New("project not found")
	ErrProjectExists      = errors.New("project already exists")
	ErrInvalidProject     = errors.New("invalid project record")
)

// ProjectRecord is one registered workspace.
type ProjectRecord struct {
	// ID is the unique project identifier (UUID), immutable once assigned.
	ID string `json:"id"`

	// Name is the canonical display name.
	Name string `json:"name"`

	// Aliases are alternate names, case-insensitive and unique across the
	// whole registry.
	Aliases []string `json:"aliases,omitempty"`

	// Path is the absolute filesystem root of the workspace.
	Path string `json:"path"`

	// VCSRemotes are known remote URLs associated with this workspace.
	VCSRemotes []string `json:"vcs_remotes,omitempty"`

	// Markers are relative paths that must exist under Path for the
	// workspace to be considered structurally intact.
	Markers []string `json:"markers,omitempty"`

	// Tags and Description are free-form metadata.
	Tags        []string `json:"tags,omitempty"`
	Description string   `json:"description,omitempty"`

	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}

// Validate checks the record's required fields.
func (p *ProjectRecord) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: empty ID", ErrInvalidProject)
	}
	if p.Name == "" {
		return fmt.Errorf("%w: project %s has empty name", ErrInvalidProject, p.ID)
	}
	if p.Path == "" {
		return fmt.Errorf("%w: project %s has empty path", ErrInvalidProject, p.ID)
	}
	return nil
}

// Registry is the whole universe of registered projects.
type Registry struct {
	// Version is the schema version of the loaded document.
	Version int

	// Projects maps project ID to record.
	Projects map[string]*ProjectRecord

	// ActiveProjectID is a weak reference to the currently active project.
	// A dangling reference is a warning, not an error.
	ActiveProjectID string
}

// New returns an empty registry at the current schema version.
func New() *Registry {
	return &Registry{
		Version:  SchemaVersion,
		Projects: make(map[string]*ProjectRecord),
	}
}

// Project returns the record for id.
func (r *Registry) Project(id string) (*ProjectRecord, bool) {
	p, ok := r.Projects[id]
	return p, ok
}

// ActiveProject returns the active project record, or nil when no project
// is active or the reference dangles.
func (r *Registry) ActiveProject() *ProjectRecord {
	if r.ActiveProjectID == "" {
		return nil
	}
	return r.Projects[r.ActiveProjectID]
}

// SortedProjects returns all records ordered by ID for deterministic
// iteration.
func (r *Registry) SortedProjects() []*ProjectRecord {
	projects := make([]*ProjectRecord, 0, len(r.Projects))
	for _, p := range r.Projects {
		projects = append(projects, p)
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].ID < projects[j].ID })
	return projects
}

// FindByNameOrAlias returns the project whose name or one of whose aliases
// equals name case-insensitively.
func (r *Registry) FindByNameOrAlias(name string) (*ProjectRecord, bool) {
	needle := strings.ToLower(name)
	for _, p := range r.SortedProjects() {
		if strings.ToLower(p.Name) == needle {
			return p, true
		}
		for _, alias := range p.Aliases {
			if strings.ToLower(alias) == needle {
				return p, true
			}
		}
	}
	return nil, false
}

// Validate checks registry-wide invariants: every record is valid and keyed
// by its own ID, no two projects share an alias (case-insensitive), and a
// non-empty active reference points at an existing project.
func (r *Registry) Validate() error {
	seen := make(map[string]string) // lowercase alias -> owning project ID
	for id, p := range r.Projects {
		if p == nil {
			return fmt.Errorf("%w: nil record for project %s", ErrInvariantViolation, id)
		}
		if err := p.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvariantViolation, err)
		}
		if p.ID != id {
			return fmt.Errorf("%w: project %s keyed as %s", ErrInvariantViolation, p.ID, id)
		}
		for _, alias := range p.Aliases {
			key := strings.ToLower(alias)
			if owner, taken := seen[key]; taken && owner != id {
				return fmt.Errorf("%w: alias %q registered to both %s and %s",
					ErrInvariantViolation, alias, owner, id)
			}
			seen[key] = id
		}
	}

	if r.ActiveProjectID != "" {
		if _, ok := r.Projects[r.ActiveProjectID]; !ok {
			return fmt.Errorf("%w: active project %s does not exist",
				ErrInvariantViolation, r.ActiveProjectID)
		}
	}

	return nil
}
