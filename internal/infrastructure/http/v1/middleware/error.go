package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tradedesk/internal/core/apperror"
	"tradedesk/internal/infrastructure/http/v1/dto"
	"tradedesk/pkg/logger"
)

// ErrorHandler middleware transforms errors into consistent JSON responses.
// Hides internal errors from clients while logging full details.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		RenderError(c, c.Errors.Last().Err)
	}
}

// RenderError writes err as a dto.ErrorResponse. Handlers never call it directly;
// they register errors with c.Error and let ErrorHandler (or Idempotency,
// which needs the body) render them.
func RenderError(c *gin.Context, err error) {
	status, body := errorResponse(c, err)
	c.AbortWithStatusJSON(status, body)
}

func errorResponse(c *gin.Context, err error) (int, dto.ErrorResponse) {
	ctx := c.Request.Context()

	if appErr, ok := apperror.AsAppError(err); ok {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		if appErr.Err != nil && status >= http.StatusInternalServerError {
			logger.Error(ctx, "request error", "code", appErr.Code, "cause", appErr.Err)
		}

		body := dto.ErrorResponse{Code: appErr.Code, Message: appErr.Message, Details: appErr.Details}
		if appErr.Code == apperror.CodeInternal {
			// Causes of internal errors stay in the log.
			body.Details = map[string]any{"request_id": c.GetString("request_id")}
		}
		return status, body
	}

	logger.Error(ctx, "unhandled error", "error", err)
	return http.StatusInternalServerError, dto.ErrorResponse{
		Code:    apperror.CodeInternal,
		Message: "Internal server error",
		Details: map[string]any{"request_id": c.GetString("request_id")},
	}
}
