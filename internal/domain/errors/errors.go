package errors

import (
	"net/http"

	"storefront/internal/errors"
)

// Kind classifies failures by how callers must react to them.
type Kind string

const (
	// KindValidation is malformed input caught before any network call.
	KindValidation Kind = "validation"
	// KindAuth is a credential rejection or a missing session; it surfaces as a sign-in prompt.
	KindAuth Kind = "auth"
	// KindNotFound is a referenced record that no longer exists.
	KindNotFound Kind = "not_found"
	// KindTransientNetwork is an unreachable or failing gateway.
	KindTransientNetwork Kind = "transient_network"
	// KindPermission is a failed ownership or role check. Never retried.
	KindPermission Kind = "permission"
	// KindInternal is everything else.
	KindInternal Kind = "internal"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	Kind() Kind        // Failure class
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	kind      Kind
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(kind Kind, httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		kind:      kind,
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.details != "" {
		return e.message + ": " + e.details
	}

	return e.message
}

// Is matches any BaseError carrying the same business code, so errors.Is works
// against the predefined values after WithDetails.
func (e *BaseError) Is(target error) bool {
	other, ok := target.(*BaseError)
	if !ok {
		return false
	}

	return other.errorCode == e.errorCode
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

func (e *BaseError) Kind() Kind {
	return e.kind
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		kind:      e.kind,
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// KindOf reports the failure class of err; nil yields "".
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.Kind()
	}

	return KindInternal
}

// IsKind reports whether err belongs to kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Predefined error types
var (
	// Validation errors
	ErrValidationFailed = NewBaseError(KindValidation, http.StatusBadRequest,
		"VALIDATION_FAILED", "Input validation failed", "")

	ErrInvalidPrice = NewBaseError(KindValidation, http.StatusBadRequest,
		"INVALID_PRICE", "Price must be a positive number", "")

	ErrInvalidImageCount = NewBaseError(KindValidation, http.StatusBadRequest,
		"INVALID_IMAGE_COUNT", "A listing needs between one and three images", "")

	ErrEmptyMessage = NewBaseError(KindValidation, http.StatusBadRequest,
		"EMPTY_MESSAGE", "Message text must not be empty", "")

	ErrNoActiveConversation = NewBaseError(KindValidation, http.StatusBadRequest,
		"NO_ACTIVE_CONVERSATION", "No conversation is selected", "")

	ErrSelfConversation = NewBaseError(KindValidation, http.StatusBadRequest,
		"SELF_CONVERSATION", "You cannot message yourself about your own listing", "")

	ErrInvalidRating = NewBaseError(KindValidation, http.StatusBadRequest,
		"INVALID_RATING", "Rating must be between 1 and 5", "")

	ErrSelfReview = NewBaseError(KindValidation, http.StatusBadRequest,
		"SELF_REVIEW", "You cannot review yourself", "")

	ErrMissingCredentials = NewBaseError(KindValidation, http.StatusBadRequest,
		"MISSING_CREDENTIALS", "Email and password are required", "")

	// Authentication errors
	ErrAuthRequired = NewBaseError(KindAuth, http.StatusUnauthorized,
		"AUTH_REQUIRED", "Sign in to continue", "")

	ErrInvalidCredentials = NewBaseError(KindAuth, http.StatusUnauthorized,
		"INVALID_CREDENTIALS", "Incorrect email or password", "")

	ErrEmailTaken = NewBaseError(KindAuth, http.StatusConflict,
		"EMAIL_TAKEN", "This email is already registered", "")

	ErrAccountBanned = NewBaseError(KindAuth, http.StatusForbidden,
		"ACCOUNT_BANNED", "This account has been suspended", "")

	// Not found errors
	ErrListingNotFound = NewBaseError(KindNotFound, http.StatusNotFound,
		"LISTING_NOT_FOUND", "Listing not found", "")

	ErrConversationNotFound = NewBaseError(KindNotFound, http.StatusNotFound,
		"CONVERSATION_NOT_FOUND", "Conversation not found", "")

	ErrUserNotFound = NewBaseError(KindNotFound, http.StatusNotFound,
		"USER_NOT_FOUND", "User not found", "")

	ErrReviewNotFound = NewBaseError(KindNotFound, http.StatusNotFound,
		"REVIEW_NOT_FOUND", "Review not found", "")

	// Permission errors
	ErrNotListingOwner = NewBaseError(KindPermission, http.StatusForbidden,
		"NOT_LISTING_OWNER", "Only the owner can change this listing", "")

	ErrAdminRequired = NewBaseError(KindPermission, http.StatusForbidden,
		"ADMIN_REQUIRED", "Administrator role required", "")

	ErrNotParticipant = NewBaseError(KindPermission, http.StatusForbidden,
		"NOT_PARTICIPANT", "You are not part of this conversation", "")

	// Gateway errors
	ErrGatewayUnavailable = NewBaseError(KindTransientNetwork, http.StatusServiceUnavailable,
		"GATEWAY_UNAVAILABLE", "The storefront service is unreachable, try again", "")

	ErrUploadFailed = NewBaseError(KindTransientNetwork, http.StatusBadGateway,
		"UPLOAD_FAILED", "Image upload failed", "")

	// General errors
	ErrInternalError = NewBaseError(KindInternal, http.StatusInternalServerError,
		"INTERNAL_ERROR", "Internal error", "")
)

// DatabaseExecuteError represents a gateway execution error, implementing the AppError interface
type DatabaseExecuteError struct {
	err     error
	details string
}

// NewDatabaseExecuteError creates a gateway-related error
func NewDatabaseExecuteError(err error, details string) AppError {
	return &DatabaseExecuteError{
		err:     err,
		details: details,
	}
}

// Error implements the error interface
func (e *DatabaseExecuteError) Error() string {
	return errors.Wrap(e.err, "database execution failed").Error()
}

// Unwrap exposes the driver error.
func (e *DatabaseExecuteError) Unwrap() error {
	return e.err
}

func (e *DatabaseExecuteError) Kind() Kind {
	return KindTransientNetwork
}

// HTTPCode returns the HTTP status code
func (e *DatabaseExecuteError) HTTPCode() int {
	return http.StatusServiceUnavailable
}

// ErrorCode returns the business error code
func (e *DatabaseExecuteError) ErrorCode() string {
	return "DATABASE_EXECUTE_FAILED"
}

// Message returns the user-friendly error message
func (e *DatabaseExecuteError) Message() string {
	return "The storefront service failed to process the request"
}

// Details returns detailed error information
func (e *DatabaseExecuteError) Details() string {
	return e.details
}
