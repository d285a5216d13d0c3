package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
	Status  int          `json:"-"`
	Err     error        `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors by code so cloned errors still compare equal to their template.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Internal wraps an unexpected failure. The message is logged, never returned to clients.
func Internal(err error, message string) *Error {
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, message)
}

// Authentication failures.
var (
	ErrNoToken            = New("NO_TOKEN", http.StatusUnauthorized, "access token is required")
	ErrInvalidToken       = New("INVALID_TOKEN", http.StatusUnauthorized, "invalid token")
	ErrExpiredToken       = New("EXPIRED_TOKEN", http.StatusUnauthorized, "token has expired")
	ErrInvalidUser        = New("INVALID_USER", http.StatusUnauthorized, "user not found or inactive")
	ErrAuth               = New("AUTH_ERROR", http.StatusInternalServerError, "authentication failed")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "authentication required")
	ErrMissingCredentials = New("MISSING_CREDENTIALS", http.StatusBadRequest, "email and password are required")
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
)

// Authorization failures.
var (
	ErrInsufficientPermissions = New("INSUFFICIENT_PERMISSIONS", http.StatusForbidden, "insufficient permissions")
	ErrCannotDeactivateSelf    = New("CANNOT_DEACTIVATE_SELF", http.StatusBadRequest, "you cannot deactivate your own account")
)

// Validation failures.
var (
	ErrValidation            = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrMissingRequiredFields = New("MISSING_REQUIRED_FIELDS", http.StatusBadRequest, "required fields are missing")
	ErrTitleTooLong          = New("TITLE_TOO_LONG", http.StatusBadRequest, "title must be 255 characters or fewer")
	ErrInvalidCategory       = New("INVALID_CATEGORY", http.StatusBadRequest, "invalid document category")
	ErrInvalidScheduleType   = New("INVALID_SCHEDULE_TYPE", http.StatusBadRequest, "invalid schedule type")
	ErrInvalidDateFormat     = New("INVALID_DATE_FORMAT", http.StatusBadRequest, "date must use the YYYY-MM-DD format")
	ErrInvalidTimeFormat     = New("INVALID_TIME_FORMAT", http.StatusBadRequest, "time must use the HH:MM format")
	ErrInvalidPassword       = New("INVALID_PASSWORD", http.StatusBadRequest, "password must be at least 8 characters")
	ErrInvalidNewPassword    = New("INVALID_NEW_PASSWORD", http.StatusBadRequest, "new password must be at least 8 characters")
	ErrMissingPasswords      = New("MISSING_PASSWORDS", http.StatusBadRequest, "current and new password are required")
	ErrInvalidCurrentPass    = New("INVALID_CURRENT_PASSWORD", http.StatusBadRequest, "current password is incorrect")
	ErrInvalidExportFormat   = New("INVALID_EXPORT_FORMAT", http.StatusBadRequest, "unsupported export format")
)

// Upload failures.
var (
	ErrNoFileUploaded  = New("NO_FILE_UPLOADED", http.StatusBadRequest, "no file was uploaded")
	ErrInvalidFileType = New("INVALID_FILE_TYPE", http.StatusBadRequest, "file type is not allowed")
	ErrFileTooLarge    = New("FILE_TOO_LARGE", http.StatusBadRequest, "file exceeds the size limit")
	ErrFileNotFound    = New("FILE_NOT_FOUND", http.StatusNotFound, "stored file not found")
)

// Lookup and conflict failures.
var (
	ErrNotFound             = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrUserNotFound         = New("USER_NOT_FOUND", http.StatusNotFound, "user not found")
	ErrAnnouncementNotFound = New("ANNOUNCEMENT_NOT_FOUND", http.StatusNotFound, "announcement not found")
	ErrDocumentNotFound     = New("DOCUMENT_NOT_FOUND", http.StatusNotFound, "document not found")
	ErrScheduleNotFound     = New("SCHEDULE_NOT_FOUND", http.StatusNotFound, "schedule not found")
	ErrNotificationNotFound = New("NOTIFICATION_NOT_FOUND", http.StatusNotFound, "notification not found")
	ErrEmailAlreadyExists   = New("EMAIL_ALREADY_EXISTS", http.StatusConflict, "email is already registered")
	ErrInternal             = New("INTERNAL_SERVER_ERROR", http.StatusInternalServerError, "internal server error")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	clone.Details = nil
	clone.Err = nil
	return &clone
}

// WithDetails returns a copy of err carrying field-level details.
func WithDetails(err *Error, details ...FieldError) *Error {
	clone := Clone(err, "")
	if clone == nil {
		return nil
	}
	clone.Details = append([]FieldError(nil), details...)
	return clone
}
