// Package resolver wires the detector, validator, and safeguard into the
// single entry point callers use to answer "which project does this
// operation apply to, and may it proceed?".
package resolver

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/projectd/internal/config"
	"github.com/fyrsmithlabs/projectd/internal/detect"
	"github.com/fyrsmithlabs/projectd/internal/logging"
	"github.com/fyrsmithlabs/projectd/internal/registry"
	"github.com/fyrsmithlabs/projectd/internal/safeguard"
	"github.com/fyrsmithlabs/projectd/internal/validate"
)

// Request is one resolution attempt.
type Request struct {
	// Operation labels what the caller is about to do; it ends up in the
	// audit trail verbatim.
	Operation string

	// CWD is the caller's working directory.
	CWD string

	// VCSRemote optionally overrides remote detection.
	VCSRemote string

	// MentionedName is a candidate project name extracted from the
	// caller's free text, if any.
	MentionedName string

	// StatedProjectID is the caller's explicit claim about which project
	// the operation targets, if any.
	StatedProjectID string

	// Actor optionally identifies who asked.
	Actor string

	// Confirm is consulted when the safeguard policy requires it.
	Confirm safeguard.ConfirmFunc
}

// Resolution is what the caller gets back.
type Resolution struct {
	// ProjectID is the resolved project, possibly empty when nothing
	// could be resolved.
	ProjectID string

	// Confidence is the detection confidence backing the resolution, 0
	// when the resolved project was stated rather than detected.
	Confidence float64

	Warnings []string
	Decision safeguard.Decision

	Detection  detect.Result
	Validation validate.Result

	// AuditEventID references the audit record for this resolution.
	AuditEventID string
}

// Allowed reports whether the operation may proceed.
func (r *Resolution) Allowed() bool {
	return r.Decision == safeguard.DecisionAllowed || r.Decision == safeguard.DecisionConfirmed
}

// Resolver is the engine facade.
type Resolver struct {
	store     *registry.Store
	detector  *detect.Detector
	validator *validate.Validator
	safeguard *safeguard.Safeguard
	logger    *logging.Logger
}

// New assembles a resolver from its parts.
func New(store *registry.Store, detector *detect.Detector, validator *validate.Validator, sg *safeguard.Safeguard, logger *logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Resolver{
		store:     store,
		detector:  detector,
		validator: validator,
		safeguard: sg,
		logger:    logger.Named("resolver"),
	}
}

// FromConfig assembles a resolver, its store, and its audit log from
// configuration.
func FromConfig(cfg *config.Config, logger *logging.Logger) (*Resolver, *registry.Store, *safeguard.AuditLog, error) {
	store, err := registry.NewStore(cfg.Registry.Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open registry store: %w", err)
	}

	auditLog, err := safeguard.NewAuditLog(cfg.Audit.Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open audit log: %w", err)
	}

	detector := detect.New(detect.Config{
		FuzzyFloor:   cfg.Detection.FuzzyFloor,
		AmbiguityGap: cfg.Detection.AmbiguityGap,
	}, logger)

	validator := validate.New(validate.Config{
		TrustThreshold:      cfg.Validation.TrustThreshold,
		MinConfidence:       cfg.Validation.MinConfidence,
		ConfusableThreshold: cfg.Validation.ConfusableThreshold,
	}, logger)

	sg := safeguard.New(safeguard.Config{
		Policy:         safeguard.Policy(cfg.Safeguard.Policy),
		ConfirmTimeout: cfg.Safeguard.ConfirmTimeout.Duration(),
	}, auditLog, logger)

	return New(store, detector, validator, sg, logger), store, auditLog, nil
}

// Resolve runs detection, validation, and the safeguard for one operation.
// The registry is read once; identical inputs over an unchanged registry
// produce identical resolutions.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Resolution, error) {
	ctx = logging.WithRequestID(ctx, uuid.New().String())
	ctx = logging.WithOperation(ctx, req.Operation)

	reg, err := r.store.Load()
	if err != nil {
		return nil, err
	}

	detection := r.detector.Detect(ctx, detect.Context{
		CWD:           req.CWD,
		VCSRemote:     req.VCSRemote,
		MentionedName: req.MentionedName,
	}, reg)

	validation := r.validator.Validate(ctx, detection, req.StatedProjectID, reg)

	event, err := r.safeguard.Apply(ctx, safeguard.Request{
		Operation:  req.Operation,
		Actor:      req.Actor,
		Detection:  detection,
		Validation: validation,
		Confirm:    req.Confirm,
	})
	if err != nil {
		return nil, err
	}

	resolution := &Resolution{
		ProjectID:    validation.ResolvedProjectID,
		Confidence:   confidenceFor(detection, validation.ResolvedProjectID),
		Warnings:     validation.Warnings,
		Decision:     event.Decision,
		Detection:    detection,
		Validation:   validation,
		AuditEventID: event.ID,
	}

	r.logger.Info(ctx, "resolution complete",
		zap.String("project_id", resolution.ProjectID),
		zap.Float64("confidence", resolution.Confidence),
		zap.String("decision", string(resolution.Decision)))

	return resolution, nil
}

// confidenceFor finds the detection confidence backing the resolved
// project.
func confidenceFor(detection detect.Result, projectID string) float64 {
	if projectID == "" {
		return 0
	}
	for _, cand := range detection.Candidates {
		if cand.ProjectID == projectID {
			return cand.Confidence
		}
	}
	return 0
}
