package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// AppError is the structured error surfaced to the user by every controller component.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	StatusCode int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Internal   error          `json:"-"`
}

func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}

	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}

	return e.Message
}

// Unwrap exposes the internal error for errors.Is / errors.As compatibility.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Internal
}

// Is matches any AppError carrying the same code, so copies produced by
// WithInternal/WithMessage still satisfy errors.Is against the sentinels.
func (e *AppError) Is(target error) bool {
	if e == nil {
		return false
	}
	var other *AppError
	if !errors.As(target, &other) || other == nil {
		return false
	}
	return other.Code == e.Code
}

// WithInternal returns a copy of the AppError with an attached internal error.
func (e *AppError) WithInternal(err error) *AppError {
	if e == nil {
		return nil
	}

	cpy := *e
	cpy.Internal = err
	return &cpy
}

// WithMessage returns a copy of the AppError using the supplied message.
func (e *AppError) WithMessage(message string) *AppError {
	if e == nil {
		return nil
	}

	cpy := *e
	if strings.TrimSpace(message) != "" {
		cpy.Message = message
	}
	return &cpy
}

// WithDetails returns a copy of the AppError carrying extra structured data.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e == nil {
		return nil
	}

	cpy := *e
	cpy.Details = details
	return &cpy
}

// Error kinds raised by the controller.
var (
	// ErrTransport means the request never reached the server or its reply could not be parsed.
	ErrTransport = &AppError{
		Code:       "TRANSPORT_ERROR",
		Message:    "Unable to reach the server",
		StatusCode: http.StatusBadGateway,
	}

	// ErrRemote is a structured failure reported by the server (success:false).
	ErrRemote = &AppError{
		Code:       "REMOTE_ERROR",
		Message:    "The server rejected the request",
		StatusCode: http.StatusBadRequest,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Resource not found",
		StatusCode: http.StatusNotFound,
	}

	// ErrDuplicate is returned when a connection with the same server/port already exists.
	ErrDuplicate = &AppError{
		Code:       "DUPLICATE_CONNECTION",
		Message:    "A connection to this server already exists",
		StatusCode: http.StatusConflict,
	}

	// ErrPrecondition is raised before any request is sent.
	ErrPrecondition = &AppError{
		Code:       "PRECONDITION_FAILED",
		Message:    "Invalid request",
		StatusCode: http.StatusBadRequest,
	}

	ErrCSRFMissing = &AppError{
		Code:       "CSRF_TOKEN_MISSING",
		Message:    "CSRF token is not available; reload the session",
		StatusCode: http.StatusForbidden,
	}

	ErrUnauthorized = &AppError{
		Code:       "UNAUTHORIZED",
		Message:    "Authentication required",
		StatusCode: http.StatusUnauthorized,
	}

	ErrForbidden = &AppError{
		Code:       "FORBIDDEN",
		Message:    "Permission denied",
		StatusCode: http.StatusForbidden,
	}

	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "Internal error",
		StatusCode: http.StatusInternalServerError,
	}
)

// New builds a new application error with the provided metadata.
func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap turns any error into an AppError while keeping the original error for logging.
func Wrap(err error, message string) *AppError {
	return &AppError{
		Code:       ErrInternal.Code,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Internal:   err,
	}
}

// FromError converts a generic error into an AppError, defaulting to ErrInternal.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	return ErrInternal.WithInternal(err)
}

// NewPrecondition reports a local validation failure.
func NewPrecondition(message string) *AppError {
	return ErrPrecondition.WithMessage(message)
}

// NewTransport wraps a network or decoding failure.
func NewTransport(err error) *AppError {
	return ErrTransport.WithInternal(err)
}

// NewRemote classifies a success:false reply. Not-found replies map to ErrNotFound so
// callers that treat deletion as idempotent can match them with IsNotFound.
func NewRemote(statusCode int, message string) *AppError {
	message = strings.TrimSpace(message)
	if statusCode == http.StatusNotFound || looksLikeNotFound(message) {
		cpy := ErrNotFound.WithMessage(message)
		cpy.StatusCode = http.StatusNotFound
		return cpy
	}

	base := ErrRemote
	switch statusCode {
	case http.StatusUnauthorized:
		base = ErrUnauthorized
	case http.StatusForbidden:
		base = ErrForbidden
	}

	cpy := base.WithMessage(message)
	if statusCode != 0 {
		cpy.StatusCode = statusCode
	}
	return cpy
}

// IsNotFound reports whether err describes a missing remote resource.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotFound) {
		return true
	}
	return looksLikeNotFound(err.Error())
}

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// UserMessage returns the text shown to the user for err. Transport failures get the
// generic message; everything else is surfaced verbatim.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	appErr := FromError(err)
	if appErr.Code == ErrTransport.Code || appErr.Code == ErrInternal.Code {
		return appErr.Message
	}
	if appErr.Message != "" {
		return appErr.Message
	}
	return err.Error()
}

func looksLikeNotFound(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "not found") || strings.Contains(lower, "не найден")
}
