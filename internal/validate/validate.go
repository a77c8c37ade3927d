// Package validate compares a detection result against the caller's stated
// intent and the registry before anything risky runs.
//
// Validation never fails hard: every outcome is a status plus warnings so
// the safeguard policy can decide what to do with it.
package validate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/projectd/internal/detect"
	"github.com/fyrsmithlabs/projectd/internal/logging"
	"github.com/fyrsmithlabs/projectd/internal/registry"
	"github.com/fyrsmithlabs/projectd/internal/similarity"
)

// Status classifies a validation outcome.
type Status string

const (
	// StatusOK means detection and stated intent agree and the workspace
	// looks intact.
	StatusOK Status = "ok"

	// StatusMismatch means the caller stated one project but detection
	// confidently points at another.
	StatusMismatch Status = "mismatch"

	// StatusLowConfidence means no candidate is trustworthy, or the top
	// candidates are ambiguous.
	StatusLowConfidence Status = "low_confidence"

	// StatusStructuralIssue means the resolved project is missing marker
	// paths on disk. Non-fatal.
	StatusStructuralIssue Status = "structural_issue"
)

// SimilarProject is a confusable sibling of the resolved project.
type SimilarProject struct {
	ProjectID string  `json:"project_id"`
	Name      string  `json:"name"`
	Score     float64 `json:"score"`
}

// Result is the validator's verdict for one resolution attempt.
type Result struct {
	Status            Status           `json:"status"`
	ResolvedProjectID string           `json:"resolved_project_id,omitempty"`
	StatedProjectID   string           `json:"stated_project_id,omitempty"`
	SimilarProjects   []SimilarProject `json:"similar_projects,omitempty"`
	Warnings          []string         `json:"warnings,omitempty"`
}

// Config tunes validation.
type Config struct {
	// TrustThreshold is the detection confidence above which a
	// conflicting stated project becomes a mismatch.
	TrustThreshold float64

	// MinConfidence is the minimum top-candidate confidence for an
	// unstated resolution to be trusted.
	MinConfidence float64

	// ConfusableThreshold is the similarity above which another project
	// is flagged as confusable.
	ConfusableThreshold float64
}

// Validator checks detection results against stated intent.
type Validator struct {
	cfg    Config
	logger *logging.Logger
}

// New creates a validator.
func New(cfg Config, logger *logging.Logger) *Validator {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Validator{cfg: cfg, logger: logger.Named("validate")}
}

// Validate compares the detection result against the caller's stated
// project, checks workspace structure, and flags confusable siblings.
//
// With no stated project there is nothing to mismatch against: detection
// alone decides, subject to the confidence threshold. A stated project
// that detection does not confidently contradict is trusted as-is.
func (v *Validator) Validate(ctx context.Context, det detect.Result, statedProjectID string, reg *registry.Registry) Result {
	result := Result{
		Status:          StatusOK,
		StatedProjectID: statedProjectID,
	}

	top, hasTop := det.Top()

	switch {
	case statedProjectID != "":
		if _, ok := reg.Project(statedProjectID); !ok {
			result.Status = StatusMismatch
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("stated project %q is not registered", statedProjectID))
			if hasTop {
				result.ResolvedProjectID = top.ProjectID
			}
			break
		}

		if hasTop && top.ProjectID != statedProjectID && top.Confidence >= v.cfg.TrustThreshold {
			result.Status = StatusMismatch
			result.ResolvedProjectID = top.ProjectID
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("stated project %q but detection resolved %q with confidence %.2f (%s)",
					statedProjectID, top.ProjectID, top.Confidence, top.Evidence))
			break
		}

		result.ResolvedProjectID = statedProjectID

	case !hasTop:
		result.Status = StatusLowConfidence
		result.Warnings = append(result.Warnings, "no detection strategy produced a candidate")

	case top.Confidence < v.cfg.MinConfidence:
		result.Status = StatusLowConfidence
		result.ResolvedProjectID = top.ProjectID
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("best candidate %q has confidence %.2f, below the %.2f minimum",
				top.ProjectID, top.Confidence, v.cfg.MinConfidence))

	case det.Ambiguous:
		result.Status = StatusLowConfidence
		result.ResolvedProjectID = top.ProjectID
		second := det.Candidates[1]
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("ambiguous detection: %q (%.2f) and %q (%.2f) are too close to call",
				top.ProjectID, top.Confidence, second.ProjectID, second.Confidence))

	default:
		result.ResolvedProjectID = top.ProjectID
	}

	v.checkStructure(ctx, &result, reg)
	v.checkConfusables(ctx, &result, det, reg)

	v.logger.Debug(ctx, "validation complete",
		zap.String("status", string(result.Status)),
		zap.String("resolved_project_id", result.ResolvedProjectID),
		zap.Int("warnings", len(result.Warnings)))

	return result
}

// checkStructure confirms every marker of the resolved project exists on
// disk. Missing markers downgrade an ok result to a structural issue and
// always attach a warning; they never block by themselves.
func (v *Validator) checkStructure(_ context.Context, result *Result, reg *registry.Registry) {
	if result.ResolvedProjectID == "" {
		return
	}
	p, ok := reg.Project(result.ResolvedProjectID)
	if !ok {
		return
	}

	var missing []string
	for _, marker := range p.Markers {
		if _, err := os.Stat(filepath.Join(p.Path, marker)); err != nil {
			missing = append(missing, marker)
		}
	}
	if len(missing) == 0 {
		return
	}

	result.Warnings = append(result.Warnings,
		fmt.Sprintf("project %q is missing %d marker(s) under %s: %v", p.Name, len(missing), p.Path, missing))
	if result.Status == StatusOK {
		result.Status = StatusStructuralIssue
	}
}

// checkConfusables warns about projects that could be mistaken for the
// resolved one: registered siblings with similar names, and competing
// detection candidates that scored high for a different project.
func (v *Validator) checkConfusables(_ context.Context, result *Result, det detect.Result, reg *registry.Registry) {
	if result.ResolvedProjectID == "" {
		return
	}
	resolved, ok := reg.Project(result.ResolvedProjectID)
	if !ok {
		return
	}

	similar := make(map[string]SimilarProject)

	for _, other := range reg.SortedProjects() {
		if other.ID == resolved.ID {
			continue
		}
		score := crossSimilarity(resolved, other)
		if score >= v.cfg.ConfusableThreshold {
			similar[other.ID] = SimilarProject{ProjectID: other.ID, Name: other.Name, Score: score}
		}
	}

	// A strong candidate for a different project is confusable evidence
	// even when the names diverge: the caller's context points both ways.
	for _, cand := range det.Candidates {
		if cand.ProjectID == resolved.ID || cand.Confidence < v.cfg.ConfusableThreshold {
			continue
		}
		other, ok := reg.Project(cand.ProjectID)
		if !ok {
			continue
		}
		if prev, seen := similar[cand.ProjectID]; !seen || cand.Confidence > prev.Score {
			similar[cand.ProjectID] = SimilarProject{ProjectID: cand.ProjectID, Name: other.Name, Score: cand.Confidence}
		}
	}

	if len(similar) == 0 {
		return
	}

	ids := make([]string, 0, len(similar))
	for id := range similar {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		sp := similar[id]
		result.SimilarProjects = append(result.SimilarProjects, sp)
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("project %q (%s) could be confused with the resolved project (score %.2f)",
				sp.Name, sp.ProjectID, sp.Score))
	}
}

// crossSimilarity is the best similarity between two projects' names and
// aliases.
func crossSimilarity(a, b *registry.ProjectRecord) float64 {
	labelsA := append([]string{a.Name}, a.Aliases...)
	labelsB := append([]string{b.Name}, b.Aliases...)

	best := 0.0
	for _, la := range labelsA {
		for _, lb := range labelsB {
			if score := similarity.Score(la, lb); score > best {
				best = score
			}
		}
	}
	return best
}
