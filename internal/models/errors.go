package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrPersistence       = errors.New("persistence failed")
	ErrPartialBatch      = errors.New("partial batch failure")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ValidationError reports a malformed newsletter record
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// PersistenceError wraps a store failure for a single operation
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// CampaignFailure records one campaign that could not be persisted
type CampaignFailure struct {
	TargetNewsletterID string
	Err                error
}

// PartialBatchFailure is returned alongside the campaigns that were created
// when one or more campaigns of a batch failed.
type PartialBatchFailure struct {
	Attempted int
	Failures  []CampaignFailure
}

func (e *PartialBatchFailure) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.TargetNewsletterID, f.Err))
	}
	return fmt.Sprintf("%d of %d campaigns failed: %s", len(e.Failures), e.Attempted, strings.Join(parts, "; "))
}

func (e *PartialBatchFailure) Is(target error) bool { return target == ErrPartialBatch }

func (e *PartialBatchFailure) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// ValidateNewsletter checks the fields matching relies on
func ValidateNewsletter(n NewsletterRecord) error {
	if strings.TrimSpace(n.ID) == "" {
		return &ValidationError{Field: "id", Reason: "is required"}
	}
	if strings.TrimSpace(n.Content) == "" {
		return &ValidationError{Field: "content", Reason: "is required"}
	}
	if strings.TrimSpace(n.Subject) == "" {
		return &ValidationError{Field: "subject", Reason: "is required"}
	}
	return nil
}

// ErrorKind classifies err for structured results
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrPartialBatch):
		return "partial_batch"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	}
	return "internal"
}
