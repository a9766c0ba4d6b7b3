package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// readyTimeout bounds the database ping of a readiness probe.
const readyTimeout = 2 * time.Second

// Pinger reports whether the database answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	db      Pinger
	version string
	started time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db Pinger, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version, started: time.Now()}
}

// Live handles GET /health/live. It never touches the database.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"version":       h.version,
		"uptimeSeconds": int64(time.Since(h.started).Seconds()),
	})
}

// Ready handles GET /health/ready: 503 until the database answers a ping.
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "checks": gin.H{"database": "not configured"}})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()

	start := time.Now()
	err := h.db.Ping(ctx)
	check := gin.H{"latencyMs": time.Since(start).Milliseconds()}

	if err != nil {
		check["status"] = "unhealthy"
		check["error"] = err.Error()
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "checks": gin.H{"database": check}})
		return
	}

	check["status"] = "healthy"
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": h.version, "checks": gin.H{"database": check}})
}
