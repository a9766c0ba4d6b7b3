package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appctx "tradedesk/internal/core/context"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderTraceID   = "X-Trace-ID"
	HeaderClientID  = "X-Client-ID"
)

// AnonymousClient is used when a request carries no X-Client-ID.
const AnonymousClient = "anonymous"

// maxClientIDLen bounds the header stored in audit and idempotency rows.
const maxClientIDLen = 128

// Trace middleware adds request tracing context.
// Extracts or generates trace IDs for distributed tracing.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		traceID := c.GetHeader(HeaderTraceID)
		if traceID == "" {
			traceID = uuid.New().String()
		}

		trace := &appctx.TraceContext{
			TraceID:   traceID,
			SpanID:    uuid.New().String()[:16],
			RequestID: requestID,
		}

		ctx := appctx.WithTrace(c.Request.Context(), trace)
		c.Request = c.Request.WithContext(ctx)

		c.Set("trace_id", traceID)
		c.Set("request_id", requestID)

		c.Header(HeaderRequestID, requestID)
		c.Header(HeaderTraceID, traceID)

		c.Next()
	}
}

// ClientID stores the caller named by X-Client-ID in the request context.
// It scopes idempotency keys and is recorded on audit entries; it is not
// an authentication mechanism.
func ClientID() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := c.GetHeader(HeaderClientID)
		if clientID == "" {
			clientID = AnonymousClient
		}
		if len(clientID) > maxClientIDLen {
			clientID = clientID[:maxClientIDLen]
		}

		c.Request = c.Request.WithContext(appctx.WithClientID(c.Request.Context(), clientID))
		c.Set("client_id", clientID)
		c.Next()
	}
}
