package errs

import "errors"

// Common sentinel errors for cross-layer signaling.
var (
	ErrNotFound = errors.New("not_found")
	ErrConflict = errors.New("conflict")
	ErrInvalid  = errors.New("invalid")
	// ErrDuplicatePayment indicates a payment already exists for the
	// (payer, month) pair.
	ErrDuplicatePayment = errors.New("payment already exists for this month")
	// ErrUnknownModule indicates a request path named a module that is not registered.
	ErrUnknownModule = errors.New("unknown module")
)

// Validation returns an error carrying a user-facing message that matches
// ErrInvalid under errors.Is, so the HTTP layer can map it to 400 without
// string comparison.
func Validation(msg string) error { return validationError{msg: msg} }

type validationError struct{ msg string }

func (e validationError) Error() string { return e.msg }

func (e validationError) Is(target error) bool { return target == ErrInvalid }
