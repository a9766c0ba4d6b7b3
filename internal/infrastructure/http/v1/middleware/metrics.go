package middleware

import (
	"github.com/gin-gonic/gin"

	"tradedesk/internal/infrastructure/metrics"
)

// Metrics records request count, latency and in-flight requests.
// Requests are labelled by route pattern so ids never become label values.
func Metrics(m *metrics.HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		done := m.Start(c.Request.Method)
		c.Next()
		done(c.FullPath(), c.Writer.Status())
	}
}
