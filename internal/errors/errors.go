// Package errors provides unified error handling across pocket-crm.
//
// SYSTEM ARCHITECTURE ROLE:
// Every layer (storage, service, commands, API, CLI, TUI) reports failures as an
// AppError so that each interface can render the same failure its own way.
//
// KEY RESPONSIBILITIES:
// - Define error codes and categories for CRM records, templates and sessions
// - Carry severity, context and a retry hint alongside the cause
// - Convert arbitrary errors into AppErrors at interface boundaries
//
// INTEGRATION POINTS:
// - internal/storage: repositories return NotFoundError / StorageError
// - internal/service: business operations wrap lower errors with Wrap()
// - internal/validation: ValidationResult.ToAppError() for rejected input
// - internal/commands: CommandExecutor converts errors to ErrorInfo
// - handlers.go: CLI, HTTP (gin) and TUI renderings
//
// USAGE PATTERNS:
// - Create errors with constructors like ValidationError(), NotFoundError()
// - Add context with Wrap(), WithDetails() and WithContext()
// - Inspect with IsAppError(), GetAppError() and HasCode()
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized error codes
type ErrorCode string

const (
	// Validation errors
	ErrCodeValidation    ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrCodeMissingField  ErrorCode = "MISSING_FIELD"
	ErrCodeInvalidFormat ErrorCode = "INVALID_FORMAT"

	// Service errors
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeInternalError      ErrorCode = "INTERNAL_ERROR"
	ErrCodeNotImplemented     ErrorCode = "NOT_IMPLEMENTED"

	// Resource errors
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// Storage errors
	ErrCodeStorageFailure  ErrorCode = "STORAGE_FAILURE"
	ErrCodeDatabaseFailure ErrorCode = "DATABASE_FAILURE"
	ErrCodeFileCorrupted   ErrorCode = "FILE_CORRUPTED"

	// Template errors
	ErrCodeTemplateInvalid ErrorCode = "TEMPLATE_INVALID"

	// Session errors
	ErrCodeUnknownAgency  ErrorCode = "UNKNOWN_AGENCY"
	ErrCodeRemoteDisabled ErrorCode = "REMOTE_DISABLED"

	// Command errors
	ErrCodeCommandNotFound ErrorCode = "COMMAND_NOT_FOUND"
	ErrCodeCommandFailed   ErrorCode = "COMMAND_FAILED"
	ErrCodeInvalidCommand  ErrorCode = "INVALID_COMMAND"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	SeverityInfo     ErrorSeverity = "info"
	SeverityWarning  ErrorSeverity = "warning"
	SeverityError    ErrorSeverity = "error"
	SeverityCritical ErrorSeverity = "critical"
)

// ErrorCategory represents the category of an error
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryService    ErrorCategory = "service"
	CategoryStorage    ErrorCategory = "storage"
	CategoryTemplate   ErrorCategory = "template"
	CategorySession    ErrorCategory = "session"
	CategoryCommand    ErrorCategory = "command"
	CategorySystem     ErrorCategory = "system"
)

// AppError represents a standardized application error
type AppError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Severity  ErrorSeverity          `json:"severity"`
	Category  ErrorCategory          `json:"category"`
	Cause     error                  `json:"-"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Retryable bool                   `json:"retryable"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// IsRetryable returns whether the error is retryable
func (e *AppError) IsRetryable() bool {
	return e.Retryable
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string) *AppError {
	category, severity := categorizeError(code)
	return &AppError{
		Code:      code,
		Message:   message,
		Severity:  severity,
		Category:  category,
		Timestamp: time.Now(),
		Retryable: isRetryable(code),
	}
}

// Wrap wraps an existing error with application error context
func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := NewAppError(code, message)
	appErr.Cause = err
	return appErr
}

func categorizeError(code ErrorCode) (ErrorCategory, ErrorSeverity) {
	switch code {
	case ErrCodeValidation, ErrCodeInvalidInput, ErrCodeMissingField, ErrCodeInvalidFormat:
		return CategoryValidation, SeverityWarning

	case ErrCodeServiceUnavailable:
		return CategoryService, SeverityError
	case ErrCodeInternalError:
		return CategoryService, SeverityCritical
	case ErrCodeNotImplemented, ErrCodeNotFound:
		return CategoryService, SeverityInfo
	case ErrCodeAlreadyExists:
		return CategoryService, SeverityWarning

	case ErrCodeStorageFailure, ErrCodeDatabaseFailure, ErrCodeFileCorrupted:
		return CategoryStorage, SeverityError

	case ErrCodeTemplateInvalid:
		return CategoryTemplate, SeverityWarning

	case ErrCodeUnknownAgency:
		return CategorySession, SeverityWarning
	case ErrCodeRemoteDisabled:
		return CategorySession, SeverityInfo

	case ErrCodeCommandNotFound:
		return CategoryCommand, SeverityInfo
	case ErrCodeCommandFailed, ErrCodeInvalidCommand:
		return CategoryCommand, SeverityError

	default:
		return CategorySystem, SeverityError
	}
}

func isRetryable(code ErrorCode) bool {
	switch code {
	case ErrCodeServiceUnavailable, ErrCodeStorageFailure, ErrCodeDatabaseFailure:
		return true
	default:
		return false
	}
}

// IsAppError checks if an error is, or wraps, an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetAppError extracts an AppError from an error chain, or converts it to one
func GetAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, ErrCodeInternalError, "Internal error occurred")
}

// HasCode reports whether err carries an AppError with the given code
func HasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr) && appErr.Code == code
}

// Common error constructors for frequently used errors
func ValidationError(message string) *AppError {
	return NewAppError(ErrCodeValidation, message)
}

func NotFoundError(resource string) *AppError {
	return NewAppError(ErrCodeNotFound, fmt.Sprintf("%s not found", resource))
}

func AlreadyExistsError(resource string) *AppError {
	return NewAppError(ErrCodeAlreadyExists, fmt.Sprintf("%s already exists", resource))
}

func InternalError(message string) *AppError {
	return NewAppError(ErrCodeInternalError, message)
}

func StorageError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeStorageFailure, fmt.Sprintf("Storage operation failed: %s", operation))
}

func DatabaseError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeDatabaseFailure, fmt.Sprintf("Database operation failed: %s", operation))
}

func TemplateError(message string) *AppError {
	return NewAppError(ErrCodeTemplateInvalid, message)
}

func UnknownAgencyError(id string) *AppError {
	return NewAppError(ErrCodeUnknownAgency, fmt.Sprintf("Agency '%s' is not configured", id))
}

func RemoteDisabledError(reason string) *AppError {
	return NewAppError(ErrCodeRemoteDisabled, fmt.Sprintf("Shared database unavailable: %s", reason))
}

func CommandNotFoundError(command string) *AppError {
	return NewAppError(ErrCodeCommandNotFound, fmt.Sprintf("Command '%s' not found", command))
}

func InvalidCommandError(command string, reason string) *AppError {
	return NewAppError(ErrCodeInvalidCommand, fmt.Sprintf("Invalid command '%s': %s", command, reason))
}
