package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/gin-gonic/gin"
)

// ErrorCategory defines the type of error for proper handling
type ErrorCategory string

const (
	CategoryInvalidDocument  ErrorCategory = "invalid_document"
	CategoryInvalidDate      ErrorCategory = "invalid_date"
	CategoryMissingFeature   ErrorCategory = "missing_feature"
	CategoryInvalidUpload    ErrorCategory = "invalid_upload"
	CategoryModelUnavailable ErrorCategory = "model_unavailable"
	CategoryRateLimit        ErrorCategory = "rate_limit"
	CategoryTimeout          ErrorCategory = "timeout"
	CategoryInternal         ErrorCategory = "internal"
	CategoryConfiguration    ErrorCategory = "configuration"
)

// AppError wraps an errbuilder error with the HTTP mapping used by the API
type AppError struct {
	*errbuilder.ErrBuilder `json:"-"`
	Category               ErrorCategory `json:"category"`
	HTTPStatus             int           `json:"-"`
	Detail                 string        `json:"detail"`
	Timestamp              time.Time     `json:"timestamp"`
	RequestID              string        `json:"request_id,omitempty"`
	// StackTrace is kept for logs only and never serialized
	StackTrace string `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	codeStr := "UNKNOWN_ERROR"
	switch e.Category {
	case CategoryInvalidDocument:
		codeStr = "INVALID_DOCUMENT"
	case CategoryInvalidDate:
		codeStr = "INVALID_DATE"
	case CategoryMissingFeature:
		codeStr = "MISSING_FEATURE"
	case CategoryInvalidUpload:
		codeStr = "INVALID_UPLOAD"
	case CategoryModelUnavailable:
		codeStr = "MODEL_UNAVAILABLE"
	case CategoryRateLimit:
		codeStr = "RATE_LIMIT_EXCEEDED"
	case CategoryTimeout:
		codeStr = "TIMEOUT_ERROR"
	case CategoryInternal:
		codeStr = "INTERNAL_ERROR"
	case CategoryConfiguration:
		codeStr = "CONFIGURATION_ERROR"
	}

	return fmt.Sprintf("[%s] %s", codeStr, e.ErrBuilder.Msg)
}

// MarshalJSON renders the public error body. Causes, details and stack traces stay in the logs.
func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Error     string        `json:"error"`
		Category  ErrorCategory `json:"category"`
		Detail    string        `json:"detail"`
		Timestamp time.Time     `json:"timestamp"`
		RequestID string        `json:"request_id,omitempty"`
	}{
		Error:     string(e.Category),
		Category:  e.Category,
		Detail:    e.Detail,
		Timestamp: e.Timestamp,
		RequestID: e.RequestID,
	})
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.ErrBuilder.Unwrap()
}

// NewAppError creates an AppError from errbuilder with additional context
func NewAppError(builder *errbuilder.ErrBuilder, category ErrorCategory, httpStatus int) *AppError {
	return &AppError{
		ErrBuilder: builder,
		Category:   category,
		HTTPStatus: httpStatus,
		Detail:     builder.Msg,
		Timestamp:  time.Now(),
	}
}

func withDetails(builder *errbuilder.ErrBuilder, details map[string]string) *errbuilder.ErrBuilder {
	if len(details) == 0 {
		return builder
	}
	errorMap := errbuilder.ErrorMap{}
	for key, value := range details {
		errorMap.Set(key, errors.New(value))
	}
	return builder.WithDetails(errbuilder.NewErrDetails(errorMap))
}

// NewInvalidDocumentError reports an upload that is not a well-formed YAML mapping.
// The parser detail is part of the message.
func NewInvalidDocumentError(parserDetail string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("Invalid YAML format: %s", parserDetail))

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategoryInvalidDocument, http.StatusBadRequest)
}

// NewInvalidDateError reports a date field that could not be parsed
func NewInvalidDateError(field string, value interface{}, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("Invalid date format in column %s", field))

	builder = withDetails(builder, map[string]string{
		"field": field,
		"value": fmt.Sprintf("%v", value),
	})
	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategoryInvalidDate, http.StatusBadRequest)
}

// NewMissingFeatureError reports features the model needs but the document did not provide
func NewMissingFeatureError(missing []string, required int) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("Missing required feature(s): %s (model requires %d features)",
			strings.Join(missing, ", "), required))

	builder = withDetails(builder, map[string]string{
		"missing":  strings.Join(missing, ", "),
		"required": fmt.Sprintf("%d", required),
	})

	return NewAppError(builder, CategoryMissingFeature, http.StatusBadRequest)
}

// NewInvalidUploadError reports a rejected multipart upload
func NewInvalidUploadError(message string) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(message)

	return NewAppError(builder, CategoryInvalidUpload, http.StatusBadRequest)
}

// NewModelUnavailableError is returned by every prediction while the artifacts are not loaded
func NewModelUnavailableError(cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeUnavailable).
		WithMsg("Model is not available: artifacts failed to load at startup")

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategoryModelUnavailable, http.StatusInternalServerError)
}

// NewRateLimitError creates a rate limit error using errbuilder
func NewRateLimitError(retryAfter string) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeResourceExhausted).
		WithMsg("Rate limit exceeded")

	builder = withDetails(builder, map[string]string{"retry_after": retryAfter})

	return NewAppError(builder, CategoryRateLimit, http.StatusTooManyRequests)
}

// NewTimeoutError creates a timeout error using errbuilder
func NewTimeoutError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeDeadlineExceeded).
		WithMsg(message)

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategoryTimeout, http.StatusGatewayTimeout)
}

// NewInternalError creates an internal server error. The message is logged but the
// response only carries a generic detail.
func NewInternalError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("Model prediction failed")

	builder = withDetails(builder, map[string]string{"internal_details": message})
	if cause != nil {
		builder = builder.WithCause(cause)
	}

	appErr := NewAppError(builder, CategoryInternal, http.StatusInternalServerError)

	if gin.Mode() == gin.DebugMode || gin.Mode() == gin.TestMode {
		appErr.StackTrace = captureStackTrace()
	}

	return appErr
}

// NewConfigurationError creates a configuration error using errbuilder
func NewConfigurationError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(message)

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategoryConfiguration, http.StatusInternalServerError)
}

// captureStackTrace captures a stack trace for debugging
func captureStackTrace() string {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// ErrorHandler is a Gin middleware that provides centralized error handling
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			appErr := ToAppError(c.Errors.Last().Err)
			Respond(c, appErr)
		}
	}
}

// RecoveryHandler provides panic recovery with structured error responses
func RecoveryHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, err interface{}) {
		appErr := NewInternalError(
			fmt.Sprintf("Panic recovered: %v", err),
			fmt.Errorf("%v", err),
		)
		appErr.StackTrace = captureStackTrace()

		Respond(c, appErr)
		c.Abort()
	})
}

// Respond logs the error and writes its JSON body
func Respond(c *gin.Context, appErr *AppError) {
	appErr.RequestID = c.GetString("request_id")
	LogError(c, appErr)
	c.JSON(appErr.HTTPStatus, appErr)
}

// ToAppError converts any error to an AppError
func ToAppError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var ebErr *errbuilder.ErrBuilder
	if errors.As(err, &ebErr) {
		return NewAppError(ebErr, CategoryInternal, http.StatusInternalServerError)
	}

	return NewInternalError("An unexpected error occurred", err)
}

// LogError logs an error with appropriate level and context
func LogError(c *gin.Context, err *AppError) {
	logEntry := slog.With(
		"error_category", err.Category,
		"error_code", err.ErrBuilder.ErrCode(),
		"http_status", err.HTTPStatus,
		"ip", c.ClientIP(),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"request_id", c.GetString("request_id"),
	)

	errorMsg := err.ErrBuilder.Msg
	errorDetails := err.ErrBuilder.Details

	switch err.Category {
	case CategoryInvalidDocument, CategoryInvalidDate, CategoryMissingFeature, CategoryInvalidUpload, CategoryRateLimit:
		if len(errorDetails.Errors) > 0 {
			logEntry.Warn(errorMsg, "details", errorDetails.Errors)
		} else {
			logEntry.Warn(errorMsg)
		}
	default:
		if cause := err.ErrBuilder.Unwrap(); cause != nil {
			logEntry.Error(errorMsg, "cause", cause, "details", errorDetails.Errors)
		} else {
			logEntry.Error(errorMsg, "details", errorDetails.Errors)
		}
	}

	if err.StackTrace != "" && (gin.Mode() == gin.DebugMode || gin.Mode() == gin.TestMode) {
		logEntry.Debug("stack_trace", "trace", err.StackTrace)
	}
}

// IsCategory reports whether err is an AppError of the given category
func IsCategory(err error, category ErrorCategory) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Category == category
}

// WrapError wraps an error with additional context
func WrapError(err error, message string, args ...interface{}) error {
	if err == nil {
		return nil
	}

	contextMsg := fmt.Sprintf(message, args...)
	return fmt.Errorf("%s: %w", contextMsg, err)
}
