package registry

import (
	"errors"
	"testing"
	"time"
)

func record(id, name, path string, aliases ...string) *ProjectRecord {
	now := time.Now().UTC()
	return &ProjectRecord{
		ID:           id,
		Name:         name,
		Aliases:      aliases,
		Path:         path,
		CreatedAt:    now,
		LastActiveAt: now,
	}
}

func TestRegistry_Validate(t *testing.T) {
	tests := []struct {
		name    string
		build   func() *Registry
		wantErr error
	}{
		{
			name: "empty registry",
			build: func() *Registry {
				return New()
			},
		},
		{
			name: "valid projects with active",
			build: func() *Registry {
				reg := New()
				reg.Projects["a"] = record("a", "alpha", "/ws/alpha", "al")
				reg.Projects["b"] = record("b", "beta", "/ws/beta", "be")
				reg.ActiveProjectID = "a"
				return reg
			},
		},
		{
			name: "duplicate alias across projects",
			build: func() *Registry {
				reg := New()
				reg.Projects["a"] = record("a", "alpha", "/ws/alpha", "shared")
				reg.Projects["b"] = record("b", "beta", "/ws/beta", "SHARED")
				return reg
			},
			wantErr: ErrInvariantViolation,
		},
		{
			name: "dangling active reference",
			build: func() *Registry {
				reg := New()
				reg.Projects["a"] = record("a", "alpha", "/ws/alpha")
				reg.ActiveProjectID = "ghost"
				return reg
			},
			wantErr: ErrInvariantViolation,
		},
		{
			name: "record keyed under wrong ID",
			build: func() *Registry {
				reg := New()
				reg.Projects["wrong"] = record("a", "alpha", "/ws/alpha")
				return reg
			},
			wantErr: ErrInvariantViolation,
		},
		{
			name: "missing path",
			build: func() *Registry {
				reg := New()
				reg.Projects["a"] = record("a", "alpha", "")
				return reg
			},
			wantErr: ErrInvariantViolation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build().Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegistry_SameAliasTwiceInOneProject(t *testing.T) {
	reg := New()
	reg.Projects["a"] = record("a", "alpha", "/ws/alpha", "al", "AL")

	// An alias repeated within one project is still one owner.
	if err := reg.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestRegistry_ActiveProject(t *testing.T) {
	reg := New()
	reg.Projects["a"] = record("a", "alpha", "/ws/alpha")

	if got := reg.ActiveProject(); got != nil {
		t.Fatalf("ActiveProject() = %v, want nil when unset", got)
	}

	reg.ActiveProjectID = "ghost"
	if got := reg.ActiveProject(); got != nil {
		t.Fatalf("ActiveProject() = %v, want nil for dangling reference", got)
	}

	reg.ActiveProjectID = "a"
	if got := reg.ActiveProject(); got == nil || got.ID != "a" {
		t.Fatalf("ActiveProject() = %v, want project a", got)
	}
}

func TestRegistry_FindByNameOrAlias(t *testing.T) {
	reg := New()
	reg.Projects["a"] = record("a", "Alpha Service", "/ws/alpha", "alpha", "as")
	reg.Projects["b"] = record("b", "beta", "/ws/beta")

	tests := []struct {
		query  string
		wantID string
		found  bool
	}{
		{query: "alpha service", wantID: "a", found: true},
		{query: "ALPHA", wantID: "a", found: true},
		{query: "as", wantID: "a", found: true},
		{query: "beta", wantID: "b", found: true},
		{query: "gamma", found: false},
	}

	for _, tt := range tests {
		got, ok := reg.FindByNameOrAlias(tt.query)
		if ok != tt.found {
			t.Errorf("FindByNameOrAlias(%q) found = %v, want %v", tt.query, ok, tt.found)
			continue
		}
		if ok && got.ID != tt.wantID {
			t.Errorf("FindByNameOrAlias(%q) = %s, want %s", tt.query, got.ID, tt.wantID)
		}
	}
}

func TestRegistry_SortedProjectsDeterministic(t *testing.T) {
	reg := New()
	reg.Projects["c"] = record("c", "c", "/ws/c")
	reg.Projects["a"] = record("a", "a", "/ws/a")
	reg.Projects["b"] = record("b", "b", "/ws/b")

	got := reg.SortedProjects()
	want := []string{"a", "b", "c"}
	for i, p := range got {
		if p.ID != want[i] {
			t.Fatalf("SortedProjects()[%d] = %s, want %s", i, p.ID, want[i])
		}
	}
}
