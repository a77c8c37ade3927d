package detect

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/projectd/internal/registry"
	"github.com/fyrsmithlabs/projectd/internal/similarity"
)

// fuzzyWeight scales similarity scores into confidence. A mention is
// weaker evidence than physically working inside a project, so even an
// exact alias match stays below the path strategy's exact match and the
// vcs strategy's remote match.
const fuzzyWeight = 0.85

// fuzzyStrategy scores a mentioned project name against every project's
// name and aliases and keeps the best-scoring project. Below the floor the
// strategy emits nothing: a low-confidence guess is worse than no guess.
type fuzzyStrategy struct {
	floor float64
}

func (s *fuzzyStrategy) Method() Method { return MethodFuzzyName }

func (s *fuzzyStrategy) Detect(_ context.Context, dc Context, reg *registry.Registry) (*Candidate, error) {
	if dc.MentionedName == "" {
		return nil, nil
	}

	var best *Candidate
	for _, p := range reg.SortedProjects() {
		score, label := bestLabelScore(dc.MentionedName, p)
		if score < s.floor {
			continue
		}
		confidence := fuzzyWeight * score
		if best == nil || confidence > best.Confidence {
			best = &Candidate{
				ProjectID:  p.ID,
				Confidence: confidence,
				Method:     MethodFuzzyName,
				Evidence:   fmt.Sprintf("mention %q matches %q (score %.2f)", dc.MentionedName, label, score),
			}
		}
	}

	return best, nil
}

// bestLabelScore returns the best similarity between the query and the
// project's name or any alias, plus the matching label.
func bestLabelScore(query string, p *registry.ProjectRecord) (float64, string) {
	best := similarity.Score(query, p.Name)
	label := p.Name
	for _, alias := range p.Aliases {
		if score := similarity.Score(query, alias); score > best {
			best = score
			label = alias
		}
	}
	return best, label
}
