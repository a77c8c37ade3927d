// Package detect resolves which registered project an operation applies to
// by fusing independent weak signals: the working directory, the
// version-control remote, on-disk marker files, and a free-text mention of
// a project name.
//
// Each strategy emits at most one candidate. Candidates are merged per
// project, keeping the maximum confidence, because the strategies are
// independent evidence rather than mutually exclusive votes. A failing
// strategy abstains; partial evidence is strictly better than no
// resolution.
package detect

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/projectd/internal/logging"
	"github.com/fyrsmithlabs/projectd/internal/registry"
)

// Method identifies a detection strategy.
type Method string

const (
	MethodPath      Method = "path"
	MethodVCS       Method = "vcs"
	MethodMarker    Method = "marker"
	MethodFuzzyName Method = "fuzzy_name"
)

// Candidate is the output of one detection strategy.
type Candidate struct {
	ProjectID  string  `json:"project_id"`
	Confidence float64 `json:"confidence"`
	Method     Method  `json:"method"`
	Evidence   string  `json:"evidence"`
}

// Result aggregates all strategies for one resolution attempt.
type Result struct {
	// Candidates is ordered highest confidence first, one entry per
	// project.
	Candidates []Candidate `json:"candidates"`

	// Ambiguous is true when the top two candidates reference different
	// projects within a small confidence gap.
	Ambiguous bool `json:"ambiguous"`
}

// Top returns the best candidate.
func (r Result) Top() (Candidate, bool) {
	if len(r.Candidates) == 0 {
		return Candidate{}, false
	}
	return r.Candidates[0], true
}

// Context carries the caller's situation into detection.
type Context struct {
	// CWD is the caller's working directory.
	CWD string

	// VCSRemote is the remote URL of the caller's repository, if known.
	// When empty the VCS strategy reads the origin remote from the
	// repository containing CWD.
	VCSRemote string

	// MentionedName is a candidate project name extracted from the
	// caller's free text, if any.
	MentionedName string
}

// Config tunes detection.
type Config struct {
	// FuzzyFloor is the minimum similarity for the fuzzy-name strategy to
	// emit a candidate.
	FuzzyFloor float64

	// AmbiguityGap is the maximum confidence gap between the top two
	// candidates for the result to count as ambiguous.
	AmbiguityGap float64
}

// strategy is one independent detection approach. Returning a nil
// candidate means the strategy has nothing to contribute; returning an
// error means it abstains (the error is logged, never fatal).
type strategy interface {
	Method() Method
	Detect(ctx context.Context, dc Context, reg *registry.Registry) (*Candidate, error)
}

// Detector runs the fixed strategy list against a registry snapshot.
type Detector struct {
	cfg        Config
	logger     *logging.Logger
	strategies []strategy
}

// New creates a detector.
func New(cfg Config, logger *logging.Logger) *Detector {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Detector{
		cfg:    cfg,
		logger: logger.Named("detect"),
		strategies: []strategy{
			&pathStrategy{},
			&vcsStrategy{},
			&markerStrategy{},
			&fuzzyStrategy{floor: cfg.FuzzyFloor},
		},
	}
}

// Detect runs every strategy and merges their candidates into a ranked
// result. It never fails: strategies that error abstain.
func (d *Detector) Detect(ctx context.Context, dc Context, reg *registry.Registry) Result {
	best := make(map[string]Candidate)

	for _, s := range d.strategies {
		cand, err := s.Detect(ctx, dc, reg)
		if err != nil {
			d.logger.Debug(ctx, "strategy abstained",
				zap.String("method", string(s.Method())),
				zap.Error(err))
			continue
		}
		if cand == nil {
			continue
		}

		d.logger.Debug(ctx, "strategy candidate",
			zap.String("method", string(cand.Method)),
			zap.String("project_id", cand.ProjectID),
			zap.Float64("confidence", cand.Confidence))

		if prev, ok := best[cand.ProjectID]; !ok || cand.Confidence > prev.Confidence {
			best[cand.ProjectID] = *cand
		}
	}

	candidates := make([]Candidate, 0, len(best))
	for _, cand := range best {
		candidates = append(candidates, cand)
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Confidence != candidates[j].Confidence {
			return candidates[i].Confidence > candidates[j].Confidence
		}
		return candidates[i].ProjectID < candidates[j].ProjectID
	})

	result := Result{Candidates: candidates}
	if len(candidates) >= 2 {
		gap := candidates[0].Confidence - candidates[1].Confidence
		result.Ambiguous = gap <= d.cfg.AmbiguityGap
	}

	return result
}
