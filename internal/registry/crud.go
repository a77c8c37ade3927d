package registry

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AddProjectParams describes a project to register.
type AddProjectParams struct {
	Name        string
	Path        string
	Aliases     []string
	VCSRemotes  []string
	Markers     []string
	Tags        []string
	Description string
}

// AddProject registers a new project and returns its record. The path must
// be absolute and not already registered; aliases must not collide with any
// existing project's aliases.
func (s *Store) AddProject(params AddProjectParams) (*ProjectRecord, error) {
	if params.Name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidProject)
	}
	if !filepath.IsAbs(params.Path) {
		return nil, fmt.Errorf("%w: path must be absolute, got %q", ErrInvalidProject, params.Path)
	}

	now := time.Now().UTC()
	rec := &ProjectRecord{
		ID:           uuid.New().String(),
		Name:         params.Name,
		Aliases:      params.Aliases,
		Path:         filepath.Clean(params.Path),
		VCSRemotes:   params.VCSRemotes,
		Markers:      params.Markers,
		Tags:         params.Tags,
		Description:  params.Description,
		CreatedAt:    now,
		LastActiveAt: now,
	}

	err := s.WithLock(func(reg *Registry) error {
		for _, p := range reg.Projects {
			if p.Path == rec.Path {
				return fmt.Errorf("%w: project %s already registered at %s", ErrProjectExists, p.ID, p.Path)
			}
			if strings.EqualFold(p.Name, rec.Name) {
				return fmt.Errorf("%w: project %s already named %q", ErrProjectExists, p.ID, p.Name)
			}
		}
		reg.Projects[rec.ID] = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// RemoveProject deletes a project. If it was the active project the active
// reference is cleared so the invariant holds after the write.
func (s *Store) RemoveProject(id string) error {
	return s.WithLock(func(reg *Registry) error {
		if _, ok := reg.Projects[id]; !ok {
			return fmt.Errorf("%w: %s", ErrProjectNotFound, id)
		}
		delete(reg.Projects, id)
		if reg.ActiveProjectID == id {
			reg.ActiveProjectID = ""
		}
		return nil
	})
}

// UpdateProject applies fn to the record under the store lock. The ID is
// immutable; fn changing it is rejected.
func (s *Store) UpdateProject(id string, fn func(*ProjectRecord) error) error {
	return s.WithLock(func(reg *Registry) error {
		p, ok := reg.Projects[id]
		if !ok {
			return fmt.Errorf("%w: %s", ErrProjectNotFound, id)
		}
		if err := fn(p); err != nil {
			return err
		}
		if p.ID != id {
			return fmt.Errorf("%w: project ID is immutable", ErrInvariantViolation)
		}
		return nil
	})
}

// AddAlias registers a new alias for a project. Uniqueness across the whole
// registry is enforced by the save path.
func (s *Store) AddAlias(id, alias string) error {
	if alias == "" {
		return fmt.Errorf("%w: empty alias", ErrInvalidProject)
	}
	return s.UpdateProject(id, func(p *ProjectRecord) error {
		for _, existing := range p.Aliases {
			if strings.EqualFold(existing, alias) {
				return nil // already present
			}
		}
		p.Aliases = append(p.Aliases, alias)
		return nil
	})
}

// SetActiveProject switches the active project. An empty id clears the
// reference.
func (s *Store) SetActiveProject(id string) error {
	return s.WithLock(func(reg *Registry) error {
		if id != "" {
			if _, ok := reg.Projects[id]; !ok {
				return fmt.Errorf("%w: %s", ErrProjectNotFound, id)
			}
		}
		reg.ActiveProjectID = id
		return nil
	})
}

// Touch bumps a project's last-active timestamp.
func (s *Store) Touch(id string) error {
	return s.UpdateProject(id, func(p *ProjectRecord) error {
		p.LastActiveAt = time.Now().UTC()
		return nil
	})
}
