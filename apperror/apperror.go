// Package apperror defines a centralized system for application-specific errors.
// Every service returns *AppError values so the transport layer can map each
// error kind to a fixed HTTP status without inspecting message text.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrorType is an enumeration of the application error categories.
type ErrorType int

const (
	// UnknownError is for unspecified errors
	UnknownError ErrorType = iota
	// DuplicateAccountError is returned when a username is already taken
	DuplicateAccountError
	// InvalidCredentialsError is returned when a username/password pair does not match
	InvalidCredentialsError
	// UnauthenticatedError is returned when a protected route is called without a usable token
	UnauthenticatedError
	// TokenExpiredError is returned when a token's expiry has elapsed
	TokenExpiredError
	// InvalidTokenError is returned for malformed or badly signed tokens
	InvalidTokenError
	// NotFoundError represents a resource not found error
	NotFoundError
	// ValidationError represents an input validation error
	ValidationError
	// StorageError represents an error originating from the database
	StorageError
	// InternalError represents a generic internal server error
	InternalError
)

// genericServerMessage is the only text clients ever see for 5xx errors.
const genericServerMessage = "Server error"

var typeNames = map[ErrorType]string{
	UnknownError:            "Unknown",
	DuplicateAccountError:   "DuplicateAccount",
	InvalidCredentialsError: "InvalidCredentials",
	UnauthenticatedError:    "Unauthenticated",
	TokenExpiredError:       "TokenExpired",
	InvalidTokenError:       "InvalidToken",
	NotFoundError:           "NotFound",
	ValidationError:         "ValidationError",
	StorageError:            "StorageError",
	InternalError:           "InternalError",
}

// String returns the name of the error kind.
func (t ErrorType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return typeNames[UnknownError]
}

// AppError is a custom error type for the application.
// It allows wrapping an underlying error (Err) for server-side diagnostics
// while Message stays safe to show to clients.
type AppError struct {
	Type    ErrorType
	Message string
	Err     error // Underlying error
}

// Error returns the string representation of the error, satisfying the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error so errors.Is and errors.As can inspect the chain.
func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status code appropriate for the error type
func (e *AppError) StatusCode() int {
	switch e.Type {
	case DuplicateAccountError, ValidationError:
		return http.StatusBadRequest
	case InvalidCredentialsError, UnauthenticatedError, TokenExpiredError, InvalidTokenError:
		// Every authentication failure is a 401, never a 500.
		return http.StatusUnauthorized
	case NotFoundError:
		return http.StatusNotFound
	case StorageError, InternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// NewAppError creates a new AppError. It is the generic constructor behind
// the typed helpers below.
func NewAppError(errType ErrorType, message string, underlyingError error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     underlyingError,
	}
}

// NewDuplicateAccountError creates a new DuplicateAccountError
func NewDuplicateAccountError(message string, underlyingError error) *AppError {
	return NewAppError(DuplicateAccountError, message, underlyingError)
}

// NewInvalidCredentialsError creates a new InvalidCredentialsError
func NewInvalidCredentialsError(message string, underlyingError error) *AppError {
	return NewAppError(InvalidCredentialsError, message, underlyingError)
}

// NewUnauthenticatedError creates a new UnauthenticatedError
func NewUnauthenticatedError(message string, underlyingError error) *AppError {
	return NewAppError(UnauthenticatedError, message, underlyingError)
}

// NewTokenExpiredError creates a new TokenExpiredError
func NewTokenExpiredError(message string, underlyingError error) *AppError {
	return NewAppError(TokenExpiredError, message, underlyingError)
}

// NewInvalidTokenError creates a new InvalidTokenError
func NewInvalidTokenError(message string, underlyingError error) *AppError {
	return NewAppError(InvalidTokenError, message, underlyingError)
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(message string, underlyingError error) *AppError {
	return NewAppError(NotFoundError, message, underlyingError)
}

// NewValidationError creates a new ValidationError
func NewValidationError(message string, underlyingError error) *AppError {
	return NewAppError(ValidationError, message, underlyingError)
}

// NewStorageError creates a new StorageError
func NewStorageError(message string, underlyingError error) *AppError {
	return NewAppError(StorageError, message, underlyingError)
}

// NewInternalError creates a new InternalError
func NewInternalError(message string, underlyingError error) *AppError {
	return NewAppError(InternalError, message, underlyingError)
}

// FromValidation converts the result of validator.Struct into a
// ValidationError naming each offending field.
func FromValidation(err error) *AppError {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return NewValidationError("invalid request", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		case "datetime":
			msgs = append(msgs, fmt.Sprintf("%s must be a date formatted as %s", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return NewValidationError(strings.Join(msgs, "; "), err)
}

// ErrorResponse represents the error payload sent to API clients.
type ErrorResponse struct {
	Status  string `json:"status" example:"error"`
	Message string `json:"message" example:"invalid username or password"`
}

// ToResponse converts an AppError to an ErrorResponse suitable for API responses.
// Storage and internal errors never expose their message or cause.
func (e *AppError) ToResponse() ErrorResponse {
	msg := e.Message
	if e.StatusCode() >= http.StatusInternalServerError {
		msg = genericServerMessage
	}
	return ErrorResponse{Status: "error", Message: msg}
}

// FromError attempts to convert a generic error to an *AppError, following
// wrapped errors. It returns the *AppError and true if successful.
func FromError(err error) (*AppError, bool) {
	if err == nil {
		return nil, false
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// Is reports whether err carries an AppError of the given type.
func Is(err error, t ErrorType) bool {
	ae, ok := FromError(err)
	return ok && ae.Type == t
}

// IsNotFound checks if an error is a NotFound error
func IsNotFound(err error) bool {
	return Is(err, NotFoundError)
}

// IsAuthError reports whether err is any of the 401 error kinds.
func IsAuthError(err error) bool {
	ae, ok := FromError(err)
	return ok && ae.StatusCode() == http.StatusUnauthorized
}
