package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUserNotFound is returned when a user id or email is unknown.
	ErrUserNotFound = errors.New("user not found")
	// ErrPolicyNotFound is returned when a policy id is unknown.
	ErrPolicyNotFound = errors.New("policy not found")
	// ErrMIDSubmissionNotFound is returned when a MID submission id is unknown.
	ErrMIDSubmissionNotFound = errors.New("mid submission not found")
	// ErrEmailAlreadyRegistered is returned when signup reuses an email.
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	// ErrVersionConflict is returned when a collection changed underneath a write.
	ErrVersionConflict = errors.New("collection version conflict")
	// ErrVehicleProviderUnavailable is returned by vehicle providers that cannot answer.
	ErrVehicleProviderUnavailable = errors.New("vehicle data provider unavailable")
	// ErrVehicleNotFound is returned by vehicle providers for unknown registrations.
	ErrVehicleNotFound = errors.New("vehicle not found")
	// ErrForbidden is returned when the actor lacks the required role.
	ErrForbidden = errors.New("administrative privilege required")
	// ErrAccountRestricted is returned when a blocked or disabled account presents a token.
	ErrAccountRestricted = errors.New("account access restricted")
	// ErrAdminEmailTaken is returned when an administrator is provisioned over a non-admin account.
	ErrAdminEmailTaken = errors.New("email belongs to a non-administrator account")
)

// ValidationError rejects malformed input before any mutation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a field-level validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// InvalidTransitionError rejects a lifecycle edge missing from the transition table.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %q to %q", e.From, e.To)
}

// IsNotFound reports whether err is one of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrPolicyNotFound) ||
		errors.Is(err, ErrMIDSubmissionNotFound) ||
		errors.Is(err, ErrVehicleNotFound)
}

// IsConflict reports whether err is a uniqueness or concurrency conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrEmailAlreadyRegistered) ||
		errors.Is(err, ErrAdminEmailTaken) ||
		errors.Is(err, ErrVersionConflict)
}

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsInvalidTransition reports whether err wraps an InvalidTransitionError.
func IsInvalidTransition(err error) bool {
	var te *InvalidTransitionError
	return errors.As(err, &te)
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Field      string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
		Field: e.Field,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		httpErr := NewHTTPError(http.StatusBadRequest, ve.Message, "VALIDATION_ERROR")
		httpErr.Field = ve.Field
		return httpErr
	}
	var te *InvalidTransitionError
	if errors.As(err, &te) {
		return NewHTTPError(http.StatusConflict, te.Error(), "INVALID_TRANSITION")
	}

	switch {
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "USER_NOT_FOUND")
	case errors.Is(err, ErrPolicyNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "POLICY_NOT_FOUND")
	case errors.Is(err, ErrMIDSubmissionNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "MID_SUBMISSION_NOT_FOUND")
	case errors.Is(err, ErrEmailAlreadyRegistered):
		return NewHTTPError(http.StatusConflict, err.Error(), "EMAIL_ALREADY_REGISTERED")
	case errors.Is(err, ErrAdminEmailTaken):
		return NewHTTPError(http.StatusConflict, err.Error(), "ADMIN_EMAIL_TAKEN")
	case errors.Is(err, ErrVersionConflict):
		return NewHTTPError(http.StatusConflict, err.Error(), "VERSION_CONFLICT")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, err.Error(), "FORBIDDEN")
	case errors.Is(err, ErrAccountRestricted):
		return NewHTTPError(http.StatusForbidden, err.Error(), "ACCOUNT_RESTRICTED")
	case errors.Is(err, ErrVehicleProviderUnavailable):
		return NewHTTPError(http.StatusServiceUnavailable, err.Error(), "PROVIDER_UNAVAILABLE")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
