package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shopledger/internal/core/apperror"
	"shopledger/pkg/logger"
)

// ErrorBody is the payload of every error response.
type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorResponse wraps ErrorBody under "error".
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorHandler transforms errors into consistent JSON responses.
// Hides internal errors from clients while logging full details.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		// If response already written by handler, do not override it.
		if c.Writer.Written() {
			return
		}

		status := http.StatusInternalServerError
		resp := ErrorResponse{Error: ErrorBody{
			Code:    apperror.CodeInternal,
			Message: "Internal server error",
			Details: map[string]any{"request_id": c.GetString(ContextRequestID)},
		}}

		if appErr, ok := apperror.AsAppError(err); ok && appErr.Code != apperror.CodeInternal && appErr.Code != apperror.CodeDatabase {
			if appErr.Err != nil {
				logger.Warn(c.Request.Context(), "request error",
					"code", appErr.Code,
					"cause", appErr.Err,
				)
			}
			status = appErr.HTTPStatus
			resp.Error = ErrorBody{Code: appErr.Code, Message: appErr.Message, Details: appErr.Details}
		} else {
			logger.Error(c.Request.Context(), "unhandled error", "error", err)
		}

		finishIdempotency(c, status, resp)
		c.JSON(status, resp)
	}
}

// finishIdempotency stores client errors for replay and frees the key after
// server errors so the client may retry.
func finishIdempotency(c *gin.Context, status int, resp ErrorResponse) {
	key, store, ok := idempotencyFrom(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if status >= http.StatusInternalServerError {
		if err := store.ReleaseKey(ctx, key); err != nil {
			logger.Warn(ctx, "release idempotency key failed", "error", err)
		}
		return
	}
	if err := store.FailKey(ctx, key, status, "application/json", resp); err != nil {
		logger.Warn(ctx, "store idempotency failure failed", "error", err)
	}
}
