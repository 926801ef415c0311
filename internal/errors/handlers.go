package errors

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dpshade/pocket-crm/internal/logger"
)

// ErrorHandler provides interface-specific error handling
type ErrorHandler interface {
	HandleError(err error) error
	FormatError(err error) string
}

func logAppError(log *logger.Logger, appErr *AppError) {
	fields := []interface{}{
		"code", appErr.Code,
		"category", appErr.Category,
		"severity", appErr.Severity,
	}
	if appErr.Details != "" {
		fields = append(fields, "details", appErr.Details)
	}
	if appErr.Cause != nil {
		fields = append(fields, "cause", appErr.Cause.Error())
	}
	for k, v := range appErr.Context {
		fields = append(fields, k, v)
	}

	switch appErr.Severity {
	case SeverityCritical, SeverityError:
		log.Error(appErr.Message, fields...)
	case SeverityWarning:
		log.Warn(appErr.Message, fields...)
	default:
		log.Debug(appErr.Message, fields...)
	}
}

// CLIErrorHandler handles errors for CLI interface
type CLIErrorHandler struct {
	Verbose bool
	log     *logger.Logger
}

// NewCLIErrorHandler creates a new CLI error handler
func NewCLIErrorHandler(verbose bool, log *logger.Logger) *CLIErrorHandler {
	return &CLIErrorHandler{
		Verbose: verbose,
		log:     logger.OrNop(log).With("component", "cli"),
	}
}

// HandleError logs err and returns it formatted for the terminal
func (h *CLIErrorHandler) HandleError(err error) error {
	if err == nil {
		return nil
	}
	appErr := GetAppError(err)
	if h.Verbose {
		logAppError(h.log, appErr)
	}
	return fmt.Errorf("%s", h.FormatError(appErr))
}

// FormatError formats an error for CLI display
func (h *CLIErrorHandler) FormatError(err error) string {
	appErr := GetAppError(err)

	msg := appErr.Message
	if h.Verbose && appErr.Details != "" {
		msg += " (" + appErr.Details + ")"
	}

	switch appErr.Severity {
	case SeverityCritical:
		return fmt.Sprintf("❌ CRITICAL: %s", msg)
	case SeverityError:
		return fmt.Sprintf("❌ ERROR: %s", msg)
	case SeverityWarning:
		return fmt.Sprintf("⚠️  WARNING: %s", msg)
	case SeverityInfo:
		return fmt.Sprintf("ℹ️  INFO: %s", msg)
	default:
		return fmt.Sprintf("❌ %s", msg)
	}
}

// HTTPErrorHandler handles errors for the HTTP API
type HTTPErrorHandler struct {
	IncludeDetails bool
	log            *logger.Logger
}

// NewHTTPErrorHandler creates a new HTTP error handler
func NewHTTPErrorHandler(includeDetails bool, log *logger.Logger) *HTTPErrorHandler {
	return &HTTPErrorHandler{
		IncludeDetails: includeDetails,
		log:            logger.OrNop(log).With("component", "http"),
	}
}

// HandleError logs err and returns it as an AppError
func (h *HTTPErrorHandler) HandleError(err error) error {
	appErr := GetAppError(err)
	logAppError(h.log, appErr)
	return appErr
}

// ErrorBody is the "error" member of a failed API response
type ErrorBody struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Retryable bool                   `json:"retryable"`
}

// Body builds the response payload for err
func (h *HTTPErrorHandler) Body(err error) ErrorBody {
	appErr := GetAppError(err)
	body := ErrorBody{
		Code:      appErr.Code,
		Message:   appErr.Message,
		Retryable: appErr.Retryable,
	}
	if h.IncludeDetails {
		body.Details = appErr.Details
		body.Context = appErr.Context
	}
	return body
}

// FormatError formats an error as a one-line message
func (h *HTTPErrorHandler) FormatError(err error) string {
	appErr := GetAppError(err)
	return fmt.Sprintf("%s: %s", appErr.Code, appErr.Message)
}

// WriteGinError logs err and aborts the request with the mapped status
func (h *HTTPErrorHandler) WriteGinError(c *gin.Context, err error) {
	appErr := GetAppError(err)
	logAppError(h.log.With("path", c.FullPath(), "method", c.Request.Method), appErr)

	c.AbortWithStatusJSON(StatusCode(appErr), gin.H{
		"success": false,
		"error":   h.Body(appErr),
	})
}

// StatusCode maps error codes to HTTP status codes
func StatusCode(err error) int {
	switch GetAppError(err).Code {
	case ErrCodeValidation, ErrCodeInvalidInput, ErrCodeMissingField, ErrCodeInvalidFormat, ErrCodeTemplateInvalid:
		return http.StatusBadRequest
	case ErrCodeNotFound, ErrCodeCommandNotFound:
		return http.StatusNotFound
	case ErrCodeAlreadyExists:
		return http.StatusConflict
	case ErrCodeUnknownAgency:
		return http.StatusForbidden
	case ErrCodeServiceUnavailable, ErrCodeRemoteDisabled:
		return http.StatusServiceUnavailable
	case ErrCodeNotImplemented:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// TUIErrorHandler handles errors for the terminal editor
type TUIErrorHandler struct {
	ShowDetails bool
	log         *logger.Logger
}

// NewTUIErrorHandler creates a new TUI error handler
func NewTUIErrorHandler(showDetails bool, log *logger.Logger) *TUIErrorHandler {
	return &TUIErrorHandler{
		ShowDetails: showDetails,
		log:         logger.OrNop(log).With("component", "tui"),
	}
}

// HandleError logs err and returns it as an AppError
func (h *TUIErrorHandler) HandleError(err error) error {
	appErr := GetAppError(err)
	logAppError(h.log, appErr)
	return appErr
}

// FormatError formats an error for TUI display
func (h *TUIErrorHandler) FormatError(err error) string {
	appErr := GetAppError(err)

	message := appErr.Message
	if h.ShowDetails && appErr.Details != "" {
		message = fmt.Sprintf("%s\nDetalhes: %s", message, appErr.Details)
	}
	return message
}

// GetErrorStyle returns an icon and colour for the error severity
func (h *TUIErrorHandler) GetErrorStyle(err error) (string, string) {
	switch GetAppError(err).Severity {
	case SeverityCritical:
		return "🔥", "#ff0000"
	case SeverityError:
		return "❌", "#ff6b6b"
	case SeverityWarning:
		return "⚠️", "#feca57"
	case SeverityInfo:
		return "ℹ️", "#48cae4"
	default:
		return "❌", "#ff6b6b"
	}
}
