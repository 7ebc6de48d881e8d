// internal/common/errors/errors.go
package errors

import (
	"errors"
	"fmt"
	"time"

	"autoflow/internal/models"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeNotFound               ErrorCode = "APPLICATION_NOT_FOUND"
	ErrCodeInvalidStateTransition ErrorCode = "INVALID_STATE_TRANSITION"
	ErrCodePersistenceFailure     ErrorCode = "PERSISTENCE_FAILURE"
	ErrCodeValidationFailed       ErrorCode = "VALIDATION_FAILED"
	ErrCodeUploadFailure          ErrorCode = "UPLOAD_FAILURE"
)

// StandardError is a structured application error. The status fields are
// populated only for invalid-transition errors, so callers can report both
// the required and the actual state.
type StandardError struct {
	Code           ErrorCode       `json:"code"`
	Message        string          `json:"message"`
	Details        string          `json:"details,omitempty"`
	RequiredStatus []models.Status `json:"requiredStatus,omitempty"`
	CurrentStatus  models.Status   `json:"currentStatus,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewNotFoundError reports that no application has the given id.
func NewNotFoundError(id int64) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotFound,
		Message:   "application not found",
		Details:   fmt.Sprintf("applicationId: %d", id),
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidTransitionError reports that op cannot fire from current. The
// message names both the required and the actual status.
func NewInvalidTransitionError(id int64, op models.Operation, current models.Status) *StandardError {
	required := models.RequiredStatus(op)
	return &StandardError{
		Code: ErrCodeInvalidStateTransition,
		Message: fmt.Sprintf("application %d cannot perform %s: requires status %v (current status: %s)",
			id, op, required, current),
		RequiredStatus: required,
		CurrentStatus:  current,
		Timestamp:      time.Now().UTC(),
	}
}

// NewPersistenceError wraps a backing-store read or write failure.
func NewPersistenceError(op string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePersistenceFailure,
		Message:   fmt.Sprintf("backing store %s failed", op),
		Details:   err.Error(),
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationError reports a malformed request rejected at the boundary.
func NewValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "request validation failed",
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// NewUploadError reports a file-storage failure during upload handling.
func NewUploadError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUploadFailure,
		Message:   "file upload failed",
		Details:   err.Error(),
		Timestamp: time.Now().UTC(),
	}
}

// CodeOf extracts the error code from err, or empty if err is not a
// StandardError.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ""
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}

// IsInvalidTransition reports whether err is a wrong-state error. Never
// true for not-found: the two outcomes are distinct by design.
func IsInvalidTransition(err error) bool {
	return CodeOf(err) == ErrCodeInvalidStateTransition
}

// IsValidation reports whether err is a boundary validation error.
func IsValidation(err error) bool {
	return CodeOf(err) == ErrCodeValidationFailed
}
