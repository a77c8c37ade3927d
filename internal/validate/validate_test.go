package validate

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/projectd/internal/detect"
	"github.com/fyrsmithlabs/projectd/internal/registry"
)

func testConfig() Config {
	return Config{TrustThreshold: 0.8, MinConfidence: 0.5, ConfusableThreshold: 0.7}
}

func project(id, name, path string, aliases ...string) *registry.ProjectRecord {
	now := time.Now().UTC()
	return &registry.ProjectRecord{
		ID:           id,
		Name:         name,
		Aliases:      aliases,
		Path:         path,
		CreatedAt:    now,
		LastActiveAt: now,
	}
}

func testRegistry(projects ...*registry.ProjectRecord) *registry.Registry {
	reg := registry.New()
	for _, p := range projects {
		reg.Projects[p.ID] = p
	}
	return reg
}

func detection(ambiguous bool, candidates ...detect.Candidate) detect.Result {
	return detect.Result{Candidates: candidates, Ambiguous: ambiguous}
}

func TestValidate_OKWithoutStatedProject(t *testing.T) {
	reg := testRegistry(project("a", "alpha", t.TempDir()))
	det := detection(false, detect.Candidate{ProjectID: "a", Confidence: 1.0, Method: detect.MethodPath})

	result := New(testConfig(), nil).Validate(context.Background(), det, "", reg)

	assert.Equal(t, StatusOK, result.Status)
	assert.Equal(t, "a", result.ResolvedProjectID)
	assert.Empty(t, result.Warnings)
}

func TestValidate_StatedEqualsTopNeverMismatch(t *testing.T) {
	reg := testRegistry(project("a", "alpha", t.TempDir()))

	for _, confidence := range []float64{0.1, 0.5, 0.9, 1.0} {
		det := detection(false, detect.Candidate{ProjectID: "a", Confidence: confidence, Method: detect.MethodPath})
		result := New(testConfig(), nil).Validate(context.Background(), det, "a", reg)
		assert.NotEqual(t, StatusMismatch, result.Status, "confidence %v", confidence)
		assert.Equal(t, "a", result.ResolvedProjectID)
	}
}

func TestValidate_MismatchWhenDetectionContradicts(t *testing.T) {
	reg := testRegistry(
		project("a", "alpha", t.TempDir()),
		project("b", "beta", t.TempDir()),
	)
	det := detection(false, detect.Candidate{
		ProjectID: "b", Confidence: 0.95, Method: detect.MethodPath, Evidence: "working directory is the project root",
	})

	result := New(testConfig(), nil).Validate(context.Background(), det, "a", reg)

	assert.Equal(t, StatusMismatch, result.Status)
	assert.Equal(t, "b", result.ResolvedProjectID)
	assert.Equal(t, "a", result.StatedProjectID)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], `stated project "a"`)
}

func TestValidate_StatedTrustedWhenDetectionWeak(t *testing.T) {
	reg := testRegistry(
		project("a", "alpha", t.TempDir()),
		project("b", "beta", t.TempDir()),
	)
	// Detection disagrees but below the trust threshold.
	det := detection(false, detect.Candidate{ProjectID: "b", Confidence: 0.6, Method: detect.MethodMarker})

	result := New(testConfig(), nil).Validate(context.Background(), det, "a", reg)

	assert.Equal(t, StatusOK, result.Status)
	assert.Equal(t, "a", result.ResolvedProjectID)
}

func TestValidate_UnknownStatedProject(t *testing.T) {
	reg := testRegistry(project("a", "alpha", t.TempDir()))
	det := detection(false, detect.Candidate{ProjectID: "a", Confidence: 1.0, Method: detect.MethodPath})

	result := New(testConfig(), nil).Validate(context.Background(), det, "ghost", reg)

	assert.Equal(t, StatusMismatch, result.Status)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "not registered")
}

func TestValidate_LowConfidenceWhenNoCandidates(t *testing.T) {
	reg := testRegistry(project("a", "alpha", t.TempDir()))

	result := New(testConfig(), nil).Validate(context.Background(), detection(false), "", reg)

	assert.Equal(t, StatusLowConfidence, result.Status)
	assert.Empty(t, result.ResolvedProjectID)
	assert.NotEmpty(t, result.Warnings)
}

func TestValidate_LowConfidenceBelowMinimum(t *testing.T) {
	reg := testRegistry(project("a", "alpha", t.TempDir()))
	det := detection(false, detect.Candidate{ProjectID: "a", Confidence: 0.3, Method: detect.MethodMarker})

	result := New(testConfig(), nil).Validate(context.Background(), det, "", reg)

	assert.Equal(t, StatusLowConfidence, result.Status)
	assert.Equal(t, "a", result.ResolvedProjectID)
}

func TestValidate_LowConfidenceWhenAmbiguous(t *testing.T) {
	reg := testRegistry(
		project("a", "alpha", t.TempDir()),
		project("b", "beta", t.TempDir()),
	)
	det := detection(true,
		detect.Candidate{ProjectID: "a", Confidence: 0.9, Method: detect.MethodVCS},
		detect.Candidate{ProjectID: "b", Confidence: 0.85, Method: detect.MethodMarker},
	)

	result := New(testConfig(), nil).Validate(context.Background(), det, "", reg)

	assert.Equal(t, StatusLowConfidence, result.Status)
	assert.Contains(t, result.Warnings[0], "ambiguous")
}

func TestValidate_StructuralIssueOnMissingMarkers(t *testing.T) {
	root := t.TempDir()
	p := project("a", "alpha", root)
	p.Markers = []string{".projectd", "config"}
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".projectd"), 0755))
	reg := testRegistry(p)

	det := detection(false, detect.Candidate{ProjectID: "a", Confidence: 1.0, Method: detect.MethodPath})
	result := New(testConfig(), nil).Validate(context.Background(), det, "", reg)

	assert.Equal(t, StatusStructuralIssue, result.Status)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "missing 1 marker(s)")
}

func TestValidate_StructuralIssueDoesNotMaskMismatch(t *testing.T) {
	p := project("b", "beta", filepath.Join(t.TempDir(), "gone"))
	p.Markers = []string{"config"}
	reg := testRegistry(project("a", "alpha", t.TempDir()), p)

	det := detection(false, detect.Candidate{ProjectID: "b", Confidence: 0.95, Method: detect.MethodPath})
	result := New(testConfig(), nil).Validate(context.Background(), det, "a", reg)

	// Mismatch outranks the structural warning, but the warning is kept.
	assert.Equal(t, StatusMismatch, result.Status)
	assert.Len(t, result.Warnings, 2)
}

func TestValidate_ConfusableNames(t *testing.T) {
	reg := testRegistry(
		project("a", "payment-service", t.TempDir()),
		project("b", "payment-service-v2", t.TempDir()),
	)
	det := detection(false, detect.Candidate{ProjectID: "a", Confidence: 1.0, Method: detect.MethodPath})

	result := New(testConfig(), nil).Validate(context.Background(), det, "", reg)

	assert.Equal(t, StatusOK, result.Status)
	require.Len(t, result.SimilarProjects, 1)
	assert.Equal(t, "b", result.SimilarProjects[0].ProjectID)
	assert.NotEmpty(t, result.Warnings)
}

func TestValidate_CompetingCandidateSurfacedAsConfusable(t *testing.T) {
	// The caller runs from project A's directory but mentions
	// project B's alias. A wins on path confidence; B must still be
	// surfaced as a warning rather than silently dropped.
	reg := testRegistry(
		project("a", "app-project", "/ws/app", "app"),
		project("b", "api-project", "/ws/api", "api"),
	)
	det := detection(false,
		detect.Candidate{ProjectID: "a", Confidence: 1.0, Method: detect.MethodPath},
		detect.Candidate{ProjectID: "b", Confidence: 0.85, Method: detect.MethodFuzzyName},
	)

	result := New(testConfig(), nil).Validate(context.Background(), det, "", reg)

	assert.Equal(t, "a", result.ResolvedProjectID)
	require.Len(t, result.SimilarProjects, 1)
	assert.Equal(t, "b", result.SimilarProjects[0].ProjectID)
	assert.NotEmpty(t, result.Warnings)
}

func TestValidate_NoConfusablesForDistinctNames(t *testing.T) {
	reg := testRegistry(
		project("a", "frontend", t.TempDir()),
		project("b", "billing", t.TempDir()),
	)
	det := detection(false, detect.Candidate{ProjectID: "a", Confidence: 1.0, Method: detect.MethodPath})

	result := New(testConfig(), nil).Validate(context.Background(), det, "", reg)

	assert.Equal(t, StatusOK, result.Status)
	assert.Empty(t, result.SimilarProjects)
	assert.Empty(t, result.Warnings)
}
