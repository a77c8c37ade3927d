// Package safeguard gates risky operations behind the validator's verdict
// and records every decision in an append-only audit log.
//
// The audit append happens before the decision is returned, so a caller
// can never act on a decision that was not recorded.
package safeguard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/projectd/internal/detect"
	"github.com/fyrsmithlabs/projectd/internal/logging"
	"github.com/fyrsmithlabs/projectd/internal/validate"
)

// Policy decides what happens when validation is not ok.
type Policy string

const (
	// PolicyAllow lets mismatched or low-confidence resolutions through;
	// the warnings are still recorded.
	PolicyAllow Policy = "allow"

	// PolicyConfirm asks the caller-supplied callback before proceeding.
	PolicyConfirm Policy = "confirm"

	// PolicyBlock refuses mismatched or low-confidence resolutions
	// outright.
	PolicyBlock Policy = "block"
)

// Decision is the outcome of one safeguard invocation.
type Decision string

const (
	DecisionAllowed   Decision = "allowed"
	DecisionConfirmed Decision = "confirmed"
	DecisionBlocked   Decision = "blocked"
)

// ConfirmFunc asks the caller to approve a questionable resolution. It
// should honor ctx cancellation; the safeguard additionally enforces its
// own timeout, treating expiry as a negative response.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

// Config tunes the safeguard.
type Config struct {
	Policy         Policy
	ConfirmTimeout time.Duration
}

// Request is one safeguard invocation.
type Request struct {
	// Operation is the caller-supplied label for what is about to run.
	Operation string

	// Actor optionally identifies who asked.
	Actor string

	Detection  detect.Result
	Validation validate.Result

	// Confirm is consulted under PolicyConfirm. A nil callback blocks.
	Confirm ConfirmFunc
}

// Safeguard applies the policy and writes the audit trail.
type Safeguard struct {
	cfg    Config
	log    *AuditLog
	logger *logging.Logger
}

// New creates a safeguard writing to the given audit log.
func New(cfg Config, log *AuditLog, logger *logging.Logger) *Safeguard {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Safeguard{cfg: cfg, log: log, logger: logger.Named("safeguard")}
}

// Apply decides whether the operation may proceed and appends exactly one
// audit event before returning. If the append fails the decision is not
// returned: an unrecorded decision must not be acted on.
func (s *Safeguard) Apply(ctx context.Context, req Request) (*AuditEvent, error) {
	decision := s.decide(ctx, req)

	event := &AuditEvent{
		ID:         uuid.New().String(),
		Timestamp:  time.Now().UTC(),
		Operation:  req.Operation,
		Actor:      req.Actor,
		Detection:  req.Detection,
		Validation: req.Validation,
		Decision:   decision,
	}

	if err := s.log.Append(event); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "resolution decided",
		zap.String("operation", req.Operation),
		zap.String("decision", string(decision)),
		zap.String("status", string(req.Validation.Status)),
		zap.String("project_id", req.Validation.ResolvedProjectID))

	return event, nil
}

// decide runs the per-invocation state machine:
// received -> allowed | pendingConfirmation -> confirmed | blocked.
func (s *Safeguard) decide(ctx context.Context, req Request) Decision {
	switch req.Validation.Status {
	case validate.StatusOK, validate.StatusStructuralIssue:
		// Structural issues alone never block; the warning rides along in
		// the audit record.
		return DecisionAllowed
	}

	switch s.cfg.Policy {
	case PolicyAllow:
		return DecisionAllowed
	case PolicyBlock:
		return DecisionBlocked
	}

	// pendingConfirmation
	if req.Confirm == nil {
		return DecisionBlocked
	}

	confirmCtx := ctx
	if s.cfg.ConfirmTimeout > 0 {
		var cancel context.CancelFunc
		confirmCtx, cancel = context.WithTimeout(ctx, s.cfg.ConfirmTimeout)
		defer cancel()
	}

	type answer struct {
		ok  bool
		err error
	}
	ch := make(chan answer, 1)
	go func() {
		ok, err := req.Confirm(confirmCtx, confirmPrompt(req))
		ch <- answer{ok: ok, err: err}
	}()

	select {
	case a := <-ch:
		if a.err != nil || !a.ok {
			return DecisionBlocked
		}
		return DecisionConfirmed
	case <-confirmCtx.Done():
		// Timeout equals an explicit no.
		return DecisionBlocked
	}
}

// confirmPrompt renders the validation outcome for a human.
func confirmPrompt(req Request) string {
	var b strings.Builder
	switch req.Validation.Status {
	case validate.StatusMismatch:
		fmt.Fprintf(&b, "Project mismatch for operation %q.\n", req.Operation)
	case validate.StatusLowConfidence:
		fmt.Fprintf(&b, "Low-confidence project resolution for operation %q.\n", req.Operation)
	default:
		fmt.Fprintf(&b, "Questionable project resolution for operation %q.\n", req.Operation)
	}
	for _, w := range req.Validation.Warnings {
		fmt.Fprintf(&b, "  - %s\n", w)
	}
	b.WriteString("Proceed anyway?")
	return b.String()
}
