package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/washbay/washbay-api/pkg/apperr"
)

// ErrorResponse is the JSON body returned for failed requests.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Error   string `json:"error"`
	Message string `json:"message"`
	TraceID string `json:"trace_id,omitempty"`
}

// ErrorHandler translates errors attached to the gin context into the
// standard error body. Application errors keep their code and status;
// anything else becomes a 500 with the detail kept out of the response.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		traceID := c.GetString(ContextRequestID)
		lastErr := c.Errors.Last()

		appErr := apperr.From(lastErr.Err)
		status := appErr.StatusCode()

		logEvent := log.Warn()
		if status >= 500 {
			logEvent = log.Error()
		}
		logEvent.
			Err(lastErr.Err).
			Str("trace_id", traceID).
			Str("path", c.Request.URL.Path).
			Str("method", c.Request.Method).
			Msg("request error")

		c.JSON(status, ErrorResponse{
			Code:    status,
			Error:   string(appErr.Code),
			Message: appErr.Message,
			TraceID: traceID,
		})
	}
}
