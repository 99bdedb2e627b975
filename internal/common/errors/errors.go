package errors

import (
	"fmt"
	"time"
)

// ErrorCode identifies a class of application error.
type ErrorCode string

const (
	ErrCodeInternal   ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound   ErrorCode = "NOT_FOUND"
	ErrCodeConflict   ErrorCode = "CONFLICT"

	// Webhook ingestion
	ErrCodeUnauthenticated  ErrorCode = "UNAUTHENTICATED"
	ErrCodeMalformedPayload ErrorCode = "MALFORMED_PAYLOAD"
	ErrCodeUpstreamDegraded ErrorCode = "UPSTREAM_DEGRADED"

	// Giveaway lifecycle
	ErrCodeOrderNotFound    ErrorCode = "ORDER_NOT_FOUND"
	ErrCodeGiveawayNotFound ErrorCode = "GIVEAWAY_NOT_FOUND"
	ErrCodeInvalidCode      ErrorCode = "INVALID_CODE"
	ErrCodeInvalidState     ErrorCode = "INVALID_STATE"
	ErrCodeNoParticipants   ErrorCode = "NO_PARTICIPANTS"
	ErrCodeAlreadyRunning   ErrorCode = "ALREADY_RUNNING"
	ErrCodeAlreadyFinished  ErrorCode = "ALREADY_FINISHED"
	ErrCodeAlreadyClaimed   ErrorCode = "ALREADY_CLAIMED"
	ErrCodeNotOwner         ErrorCode = "NOT_OWNER"

	// Infrastructure
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
)

// AppError is the typed application error carried through handlers and middleware.
type AppError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	RequestID string                 `json:"request_id,omitempty"`
	Cause     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// IsNotFound reports whether the error means a missing resource.
func (e *AppError) IsNotFound() bool {
	return e.Code == ErrCodeNotFound ||
		e.Code == ErrCodeOrderNotFound ||
		e.Code == ErrCodeGiveawayNotFound ||
		e.Code == ErrCodeInvalidCode
}

// IsInternal reports whether the error should be logged at error level.
func (e *AppError) IsInternal() bool {
	return e.Code == ErrCodeInternal || e.Code == ErrCodeDatabaseError
}

func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func (e *AppError) WithRequestID(requestID string) *AppError {
	e.RequestID = requestID
	return e
}

// New creates a new application error.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

// Newf creates a new application error with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with a code and message.
func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message)
	appErr.Cause = err
	return appErr
}

// NewDatabaseError wraps a storage failure.
func NewDatabaseError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeDatabaseError, fmt.Sprintf("database operation failed: %s", operation)).
		WithDetail("operation", operation)
}

// NewGiveawayNotFoundError reports a giveaway that does not resolve.
func NewGiveawayNotFoundError(giveawayID string) *AppError {
	return Newf(ErrCodeGiveawayNotFound, "giveaway not found: %s", giveawayID).
		WithDetail("giveaway_id", giveawayID)
}

// NewOrderNotFoundError reports a giveaway order that does not resolve.
func NewOrderNotFoundError(orderID string) *AppError {
	return Newf(ErrCodeOrderNotFound, "giveaway order not found: %s", orderID).
		WithDetail("giveaway_order_id", orderID)
}

// NewInvalidCodeError reports an unknown redemption code.
func NewInvalidCodeError(code string) *AppError {
	return New(ErrCodeInvalidCode, "invalid or unknown redemption code").
		WithDetail("code", code)
}

// AsAppError extracts an AppError if err is one.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if err != nil {
		appErr, _ = err.(*AppError)
	}
	return appErr, appErr != nil
}
