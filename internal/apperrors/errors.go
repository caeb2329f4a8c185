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

// ErrForbidden indicates that the acting user is not allowed to perform the operation
// on the target resource (ownership or authorship mismatch).
var ErrForbidden = errors.New("operation forbidden")

// ErrLocked indicates that a mutation was attempted on a finalized application.
var ErrLocked = errors.New("application is locked")

// ErrStorage indicates a persistence failure. Raw detail is wrapped, not exposed to clients.
var ErrStorage = errors.New("storage error")

// ErrUploadRejected indicates the document store refused an upload (unsupported content type).
var ErrUploadRejected = errors.New("upload rejected")

// ErrDeliveryFailed indicates the notifier could not deliver a message.
var ErrDeliveryFailed = errors.New("delivery failed")

// Validation sub-kinds. They satisfy errors.Is for both themselves and ErrValidation,
// so handlers can match coarsely while callers can match exactly.
var (
	ErrInvalidStep   = fmt.Errorf("%w: step must be between 1 and 7", ErrValidation)
	ErrInvalidStatus = fmt.Errorf("%w: unknown application status", ErrValidation)
	ErrEmptyNote     = fmt.Errorf("%w: note content is required", ErrValidation)
)
