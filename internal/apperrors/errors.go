package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates the store aborted the operation because of a concurrent writer.
var ErrConflict = errors.New("concurrent modification conflict")

// ErrInternal is used for failures that indicate a bug rather than bad input.
var ErrInternal = errors.New("internal error")

// Ledger errors.
var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrAccountInactive  = errors.New("account is inactive")
	ErrInvalidAccount   = errors.New("account cannot receive postings")
	ErrUnbalancedEntry  = errors.New("journal entry does not balance")
	ErrDuplicatePosting = errors.New("duplicate posting")
)

// Payment and deal errors.
var (
	ErrRefundExceedsOriginal = errors.New("refund exceeds original payment")
	ErrInvalidTransition     = errors.New("invalid deal stage transition")
)

// ErrInsufficientCounterpartAmount is the name used by callers that think of a refund
// as a counterpart posting. It is the same error as ErrRefundExceedsOriginal.
var ErrInsufficientCounterpartAmount = ErrRefundExceedsOriginal

// Retryable errors. Callers must never treat these as success.
var (
	ErrIdentifierExhaustion = errors.New("identifier issuance retries exhausted")
	ErrStorageUnavailable   = errors.New("storage unavailable")
)

// AppError carries an HTTP-ish status code next to the wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError creates an AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// DuplicatePostingError is returned when a journal entry with the same natural key
// has already been posted. ExistingEntryID points at the prior entry.
type DuplicatePostingError struct {
	NaturalKey      string
	ExistingEntryID string
}

func (e *DuplicatePostingError) Error() string {
	return fmt.Sprintf("duplicate posting for natural key %q (existing entry %s)", e.NaturalKey, e.ExistingEntryID)
}

// Is lets errors.Is(err, ErrDuplicatePosting) match.
func (e *DuplicatePostingError) Is(target error) bool {
	return target == ErrDuplicatePosting
}

// NewValidationError wraps ErrValidation with a formatted message.
func NewValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// IsRetryable reports whether the caller may retry the whole operation from scratch.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStorageUnavailable) ||
		errors.Is(err, ErrIdentifierExhaustion) ||
		errors.Is(err, ErrConflict)
}
