package detect

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fyrsmithlabs/projectd/internal/registry"
)

const (
	// pathDecayPerLevel is subtracted from the exact-match confidence for
	// each directory between the working directory and the project root.
	pathDecayPerLevel = 0.05

	// pathMinConfidence floors the decayed ancestor confidence.
	pathMinConfidence = 0.6
)

// pathStrategy matches the working directory against registered project
// roots. An exact match scores 1.0; working inside a project scores less
// the deeper the working directory sits below the root. When several
// registered roots contain the working directory (nested registrations)
// the deepest root wins.
type pathStrategy struct{}

func (s *pathStrategy) Method() Method { return MethodPath }

func (s *pathStrategy) Detect(_ context.Context, dc Context, reg *registry.Registry) (*Candidate, error) {
	if dc.CWD == "" {
		return nil, nil
	}
	cwd, err := filepath.Abs(dc.CWD)
	if err != nil {
		return nil, fmt.Errorf("resolve cwd: %w", err)
	}
	cwd = filepath.Clean(cwd)

	var best *Candidate
	bestRootLen := -1

	for _, p := range reg.SortedProjects() {
		root := filepath.Clean(p.Path)

		if cwd == root {
			return &Candidate{
				ProjectID:  p.ID,
				Confidence: 1.0,
				Method:     MethodPath,
				Evidence:   fmt.Sprintf("working directory is the project root %s", root),
			}, nil
		}

		rel, err := filepath.Rel(root, cwd)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			continue
		}

		levels := strings.Count(rel, string(filepath.Separator)) + 1
		confidence := 1.0 - pathDecayPerLevel*float64(levels)
		if confidence < pathMinConfidence {
			confidence = pathMinConfidence
		}

		// Prefer the most specific (deepest) registered root.
		if len(root) > bestRootLen {
			bestRootLen = len(root)
			best = &Candidate{
				ProjectID:  p.ID,
				Confidence: confidence,
				Method:     MethodPath,
				Evidence:   fmt.Sprintf("working directory is %d level(s) below project root %s", levels, root),
			}
		}
	}

	return best, nil
}
