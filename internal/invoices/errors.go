package invoices

import (
	"errors"
	"fmt"

	"github.com/diewo77/invoice-admin/internal/validation"
)

// Domain errors. Every storage failure crossing the repository boundary
// is rewrapped as one of these so callers can branch on kind without
// knowledge of the storage technology.
var (
	// ErrNotAuthenticated: no valid caller identity on the operation.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrDuplicateNumber: the (owner, number) pair is already taken by a
	// non-deleted invoice. The workflow retries exactly once on this.
	ErrDuplicateNumber = errors.New("invoice number already in use")
	// ErrValidation: a required field is missing or invalid. Never retried.
	ErrValidation = errors.New("validation failed")
	// ErrForbiddenTransition: status change or delete not allowed from the
	// invoice's current state, or the caller does not own the invoice.
	ErrForbiddenTransition = errors.New("forbidden transition")
	// ErrNotFound: no matching invoice in the caller's scope.
	ErrNotFound = errors.New("invoice not found")
	// ErrStoreUnavailable: transient or unclassified storage failure.
	// Surfaced with a retry-manually prompt, never auto-retried.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrNumberExhausted: two consecutive saves hit a duplicate. Terminal;
	// a third attempt would mask a systemic problem (e.g. an allocator
	// stuck returning the same value).
	ErrNumberExhausted = fmt.Errorf("could not assign a unique invoice number: %w", ErrDuplicateNumber)
)

// ValidationError carries the per-field violations alongside ErrValidation.
type ValidationError struct {
	Violations validation.Violations
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d violation(s)", len(e.Violations))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func validationErr(v validation.Violations) error {
	return &ValidationError{Violations: v}
}
