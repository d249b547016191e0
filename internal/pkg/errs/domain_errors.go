package errs

import "errors"

// Error taxonomy shared by the usecase and handler layers.
// Concrete errors are marked with one of these via Mark and matched with errors.Is.
var (
	// Bad input: invalid date range, capacity exceeded, own property. Never retried.
	ErrValidation = errors.New("validation error")
	// Availability race lost or an illegal state transition. Caller re-queries and retries.
	ErrConflict = errors.New("conflict")
	// Actor is not allowed to perform the requested operation.
	ErrPermission = errors.New("permission denied")
	ErrNotFound   = errors.New("not found")
	// Channel manager or calendar feed failure. Retried internally, then recorded.
	ErrTransientIntegration = errors.New("transient integration failure")
	// Integration rejected the request; retrying will not help.
	ErrPermanentIntegration = errors.New("permanent integration failure")
)
