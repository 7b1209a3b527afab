package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/vidfetch-go/internal/app"
)

// Version is reported by the health endpoint; set at build time
var Version = "dev"

// HealthHandler handles health check requests
type HealthHandler struct {
	queueMgr   *app.QueueManager
	sessionMgr *app.SessionManager
	backend    string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(queueMgr *app.QueueManager, sessionMgr *app.SessionManager, backend string) *HealthHandler {
	return &HealthHandler{
		queueMgr:   queueMgr,
		sessionMgr: sessionMgr,
		backend:    backend,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Backend string `json:"backend"`
	Queue   struct {
		Running        bool `json:"running"`
		ActiveSessions int  `json:"active_sessions"`
	} `json:"queue"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	response := HealthResponse{
		Status:  "ok",
		Version: Version,
		Backend: h.backend,
	}
	response.Queue.Running = h.queueMgr.IsRunning()
	response.Queue.ActiveSessions = h.sessionMgr.ActiveCount()

	c.JSON(http.StatusOK, response)
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if !h.queueMgr.IsRunning() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "queue manager not running",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
