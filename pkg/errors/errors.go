package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// Common error constructors

// BadRequest creates a 400 error
func BadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    "BAD_REQUEST",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}

// NotFound creates a 404 error
func NotFound(message string, err error) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: message,
		Status:  http.StatusNotFound,
		Err:     err,
	}
}

// Conflict creates a 409 error
func Conflict(message string, err error) *AppError {
	return &AppError{
		Code:    "CONFLICT",
		Message: message,
		Status:  http.StatusConflict,
		Err:     err,
	}
}

// Internal creates a 500 error
func Internal(message string, err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: message,
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// ServiceUnavailable creates a 503 error
func ServiceUnavailable(message string, err error) *AppError {
	return &AppError{
		Code:    "SERVICE_UNAVAILABLE",
		Message: message,
		Status:  http.StatusServiceUnavailable,
		Err:     err,
	}
}

// Domain-specific errors

var (
	// ErrIllegalTransition rejects out-of-order or disallowed status changes.
	// Always surfaced to the caller, never swallowed.
	ErrIllegalTransition = &AppError{
		Code:    "ILLEGAL_TRANSITION",
		Message: "Illegal ride status transition",
		Status:  http.StatusConflict,
	}

	// ErrGeocoderUnavailable marks a failed forward/reverse lookup. Callers
	// recover locally (empty suggestions, coordinate fallback); it never
	// becomes a hard API failure.
	ErrGeocoderUnavailable = &AppError{
		Code:    "GEOCODER_UNAVAILABLE",
		Message: "Geocoder lookup failed",
		Status:  http.StatusServiceUnavailable,
	}

	// ErrEstimateUnavailable marks one vehicle class whose fare computation
	// failed. Sibling classes are unaffected.
	ErrEstimateUnavailable = &AppError{
		Code:    "ESTIMATE_UNAVAILABLE",
		Message: "Fare estimate unavailable for this vehicle class",
		Status:  http.StatusServiceUnavailable,
	}

	ErrRideNotFound        = NotFound("Ride not found", nil)
	ErrInvalidCoordinates  = BadRequest("Invalid coordinates", nil)
	ErrInvalidVehicleClass = BadRequest("Invalid vehicle class", nil)
	ErrMissingLocations    = BadRequest("Pickup and dropoff locations are required", nil)
)

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError attempts to convert an error to AppError
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
