package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"streamwear-backend/internal/common/errors"
	"streamwear-backend/internal/common/logger"
)

// RequestID assigns every request an id, honoring one sent by the caller.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// Recovery converts panics into an internal-error response.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error().
			Str("request_id", getRequestID(c)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("stack", string(debug.Stack())).
			Msgf("panic recovered: %v", recovered)

		appErr := errors.New(errors.ErrCodeInternal, "internal server error").
			WithDetail("panic", fmt.Sprintf("%v", recovered))
		sendErrorResponse(c, appErr)
	})
}

// ErrorHandler turns errors attached to the gin context into JSON responses.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		appErr, ok := errors.AsAppError(err)
		if !ok {
			appErr = errors.Wrap(err, errors.ErrCodeInternal, "handler error")
		}
		sendErrorResponse(c, appErr)
	}
}

// ErrorResponse is the JSON shape of every error reply.
type ErrorResponse struct {
	Success   bool             `json:"success"`
	Error     *errors.AppError `json:"error"`
	Timestamp time.Time        `json:"timestamp"`
	RequestID string           `json:"request_id"`
}

func sendErrorResponse(c *gin.Context, appErr *errors.AppError) {
	requestID := getRequestID(c)
	appErr.WithRequestID(requestID)

	logError(c, appErr)

	c.AbortWithStatusJSON(httpStatus(appErr), ErrorResponse{
		Success:   false,
		Error:     appErr,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	})
}

func httpStatus(appErr *errors.AppError) int {
	switch appErr.Code {
	case errors.ErrCodeValidation, errors.ErrCodeMalformedPayload:
		return http.StatusBadRequest
	case errors.ErrCodeUnauthenticated:
		return http.StatusUnauthorized
	case errors.ErrCodeNotOwner:
		return http.StatusForbidden
	case errors.ErrCodeNotFound, errors.ErrCodeOrderNotFound,
		errors.ErrCodeGiveawayNotFound, errors.ErrCodeInvalidCode:
		return http.StatusNotFound
	case errors.ErrCodeConflict, errors.ErrCodeAlreadyRunning,
		errors.ErrCodeAlreadyFinished, errors.ErrCodeAlreadyClaimed:
		return http.StatusConflict
	case errors.ErrCodeInvalidState, errors.ErrCodeNoParticipants:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeUpstreamDegraded:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func logError(c *gin.Context, appErr *errors.AppError) {
	var evt *zerolog.Event
	switch {
	case appErr.IsInternal():
		evt = logger.Error()
	case appErr.Code == errors.ErrCodeUnauthenticated:
		evt = logger.Warn()
	default:
		evt = logger.Info()
	}

	evt.
		Str("request_id", getRequestID(c)).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Str("error_code", string(appErr.Code))
	if appErr.Cause != nil {
		evt.Err(appErr.Cause)
	}
	evt.Msg(appErr.Message)
}

func getRequestID(c *gin.Context) string {
	if requestID, exists := c.Get("request_id"); exists {
		if id, ok := requestID.(string); ok {
			return id
		}
	}
	return "unknown"
}
