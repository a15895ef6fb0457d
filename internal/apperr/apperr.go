// Package apperr defines the error taxonomy shared by services and handlers.
// Services wrap these sentinels with fmt.Errorf("...: %w", ...) so callers can
// classify failures with errors.Is while keeping the contextual message.
package apperr

import "errors"

var (
	// ErrValidation marks missing or malformed caller input.
	ErrValidation = errors.New("validation error")

	// ErrNotFound marks a referenced entity that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStateConflict marks an operation that is not legal in the
	// procurement's current status.
	ErrStateConflict = errors.New("state conflict")

	// ErrPreconditionFailed marks a required prior step that was skipped,
	// e.g. approving a procurement before an item/price is linked.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrInsufficientBudget marks a deduction that would push the remaining
	// budget below zero.
	ErrInsufficientBudget = errors.New("insufficient budget")

	// ErrDuplicateAssociation marks a procurement already linked to the
	// same print number.
	ErrDuplicateAssociation = errors.New("duplicate association")

	// ErrInternal marks unexpected failures (store unavailable etc.).
	ErrInternal = errors.New("internal error")
)
