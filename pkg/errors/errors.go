package errors

import (
	stderrors "errors"
	"fmt"
)

// Error codes
const (
	CodeNotFound   = "NOT_FOUND"
	CodeUpstream   = "UPSTREAM_ERROR"
	CodeStore      = "STORE_ERROR"
	CodeCache      = "CACHE_ERROR"
	CodeValidation = "VALIDATION_ERROR"
)

type TrackerError struct {
	Message string
	Code    string
	Context map[string]any
	Cause   error
}

func (e *TrackerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *TrackerError) Unwrap() error {
	return e.Cause
}

func NewTrackerError(message, code string, context map[string]any) *TrackerError {
	return &TrackerError{
		Message: message,
		Code:    code,
		Context: context,
	}
}

func (e *TrackerError) WithCause(cause error) *TrackerError {
	e.Cause = cause
	return e
}

// NotFoundError marks a missing channel/video/user. Single-channel and
// comparison calls abort with this rather than skipping the entity.
type NotFoundError struct {
	*TrackerError
	Resource string
	ID       string
}

func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{
		TrackerError: &TrackerError{
			Message: fmt.Sprintf("%s not found: %s", resource, id),
			Code:    CodeNotFound,
			Context: map[string]any{
				"resource": resource,
				"id":       id,
			},
		},
		Resource: resource,
		ID:       id,
	}
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return stderrors.As(err, &nf)
}

// UpstreamError marks a failed video-platform API call.
type UpstreamError struct {
	*TrackerError
	Operation string
}

func NewUpstreamError(message, operation string, cause error) *UpstreamError {
	return &UpstreamError{
		TrackerError: &TrackerError{
			Message: message,
			Code:    CodeUpstream,
			Context: map[string]any{
				"operation": operation,
			},
			Cause: cause,
		},
		Operation: operation,
	}
}

type StoreError struct {
	*TrackerError
	Operation string
}

func NewStoreError(message, operation string, cause error) *StoreError {
	return &StoreError{
		TrackerError: &TrackerError{
			Message: message,
			Code:    CodeStore,
			Context: map[string]any{
				"operation": operation,
			},
			Cause: cause,
		},
		Operation: operation,
	}
}

type CacheError struct {
	*TrackerError
	Operation string
	Key       string
}

func NewCacheError(message, operation, key string, cause error) *CacheError {
	return &CacheError{
		TrackerError: &TrackerError{
			Message: message,
			Code:    CodeCache,
			Context: map[string]any{
				"operation": operation,
				"key":       key,
			},
			Cause: cause,
		},
		Operation: operation,
		Key:       key,
	}
}

type ValidationError struct {
	*TrackerError
	Field string
	Value interface{}
}

func NewValidationError(message, field string, value interface{}) *ValidationError {
	return &ValidationError{
		TrackerError: &TrackerError{
			Message: message,
			Code:    CodeValidation,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}
