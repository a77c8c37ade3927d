package detect

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fyrsmithlabs/projectd/internal/registry"
)

const (
	// markerBase, markerFractionWeight, and markerCountBonus scale
	// confidence by marker specificity: the more of a project's markers
	// are found, the stronger the evidence.
	markerBase           = 0.45
	markerFractionWeight = 0.30
	markerCountBonus     = 0.05

	// markerMaxConfidence caps the strategy below the path strategy's
	// exact match.
	markerMaxConfidence = 0.85

	// markerMaxAscent bounds the upward walk from the working directory.
	markerMaxAscent = 16
)

// markerStrategy ascends from the working directory looking for a
// directory containing a registered project's marker files. The deepest
// directory with any marker hits wins; among projects matched there, the
// one with the largest marker coverage wins.
type markerStrategy struct{}

func (s *markerStrategy) Method() Method { return MethodMarker }

func (s *markerStrategy) Detect(_ context.Context, dc Context, reg *registry.Registry) (*Candidate, error) {
	if dc.CWD == "" {
		return nil, nil
	}
	dir, err := filepath.Abs(dc.CWD)
	if err != nil {
		return nil, fmt.Errorf("resolve cwd: %w", err)
	}

	for depth := 0; depth < markerMaxAscent; depth++ {
		if cand := s.scanDir(dir, reg); cand != nil {
			return cand, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return nil, nil
}

// scanDir scores every marker-bearing project against one directory and
// returns the best candidate, or nil when nothing matched.
func (s *markerStrategy) scanDir(dir string, reg *registry.Registry) *Candidate {
	var best *Candidate

	for _, p := range reg.SortedProjects() {
		if len(p.Markers) == 0 {
			continue
		}

		found := 0
		for _, marker := range p.Markers {
			// A stat error counts as marker absent; the walk goes on.
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				found++
			}
		}
		if found == 0 {
			continue
		}

		fraction := float64(found) / float64(len(p.Markers))
		confidence := markerBase + markerFractionWeight*fraction + markerCountBonus*float64(found)
		if confidence > markerMaxConfidence {
			confidence = markerMaxConfidence
		}

		if best == nil || confidence > best.Confidence {
			best = &Candidate{
				ProjectID:  p.ID,
				Confidence: confidence,
				Method:     MethodMarker,
				Evidence:   fmt.Sprintf("%d of %d marker(s) present in %s", found, len(p.Markers), dir),
			}
		}
	}

	return best
}
