package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/vidfetch-go/internal/app"
	"github.com/yourusername/vidfetch-go/internal/domain"
)

// SessionHandler handles session-related HTTP requests
type SessionHandler struct {
	sessionMgr *app.SessionManager
	defaults   *domain.DownloadConfig
	logger     *zap.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionMgr *app.SessionManager, defaults *domain.DownloadConfig, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		sessionMgr: sessionMgr,
		defaults:   defaults,
		logger:     logger,
	}
}

// AddSessionRequest represents a request to queue a download session.
// Omitted fields take the configured defaults; Collection defaults to
// whether the URL looks like a playlist.
type AddSessionRequest struct {
	URL         string `json:"url" binding:"required"`
	Container   string `json:"container,omitempty"`
	Quality     string `json:"quality,omitempty"`
	Collection  *bool  `json:"collection,omitempty"`
	Destination string `json:"destination,omitempty"`
}

// toDownloadRequest fills defaults and parses the container
func (h *SessionHandler) toDownloadRequest(req AddSessionRequest) (domain.DownloadRequest, error) {
	containerName := req.Container
	if containerName == "" {
		containerName = h.defaults.DefaultContainer
	}
	container, err := domain.ParseContainer(containerName)
	if err != nil {
		return domain.DownloadRequest{}, err
	}

	quality := req.Quality
	if quality == "" {
		quality = h.defaults.DefaultQuality
	}

	collection := domain.LooksLikeCollection(req.URL)
	if req.Collection != nil {
		collection = *req.Collection
	}

	destination := req.Destination
	if destination == "" {
		destination = h.defaults.BaseDir
	}

	return domain.DownloadRequest{
		SourceURL:         req.URL,
		Container:         container,
		Quality:           domain.Quality(quality),
		TreatAsCollection: collection,
		DestinationDir:    destination,
	}, nil
}

// AddSession handles POST /api/v1/sessions
func (h *SessionHandler) AddSession(c *gin.Context) {
	var req AddSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	downloadReq, err := h.toDownloadRequest(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.sessionMgr.Submit(downloadReq)
	if errors.Is(err, domain.ErrSessionActive) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "session": session})
		return
	}
	if err != nil {
		h.respondError(c, "Failed to add session", err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// Inspect handles POST /api/v1/inspect. It returns the backend configuration
// a request would run with, without queueing it.
func (h *SessionHandler) Inspect(c *gin.Context) {
	var req AddSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	downloadReq, err := h.toDownloadRequest(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg, err := h.sessionMgr.Inspect(downloadReq)
	if err != nil {
		h.respondError(c, "Failed to inspect request", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"request":       downloadReq,
		"configuration": cfg,
	})
}

// GetSession handles GET /api/v1/sessions/:id
func (h *SessionHandler) GetSession(c *gin.Context) {
	session, err := h.sessionMgr.Get(c.Param("id"))
	if err != nil {
		h.respondError(c, "Failed to get session", err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// GetProgress handles GET /api/v1/sessions/:id/progress
func (h *SessionHandler) GetProgress(c *gin.Context) {
	snapshot, ok := h.sessionMgr.Progress(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no progress for session"})
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// ListSessions handles GET /api/v1/sessions
func (h *SessionHandler) ListSessions(c *gin.Context) {
	filters := make(map[string]interface{})
	if status := c.Query("status"); status != "" {
		filters["status"] = status
	}
	if container := c.Query("container"); container != "" {
		filters["container"] = container
	}

	sessions, err := h.sessionMgr.List(filters)
	if err != nil {
		h.respondError(c, "Failed to list sessions", err)
		return
	}

	c.JSON(http.StatusOK, sessions)
}

// GetStats handles GET /api/v1/sessions/stats
func (h *SessionHandler) GetStats(c *gin.Context) {
	stats, err := h.sessionMgr.Stats()
	if err != nil {
		h.respondError(c, "Failed to get stats", err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// CancelSession handles POST /api/v1/sessions/:id/cancel
func (h *SessionHandler) CancelSession(c *gin.Context) {
	id := c.Param("id")

	if err := h.sessionMgr.Cancel(id); err != nil {
		h.respondError(c, "Failed to cancel session", err, zap.String("id", id))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "session cancelled"})
}

// RetrySession handles POST /api/v1/sessions/:id/retry
func (h *SessionHandler) RetrySession(c *gin.Context) {
	id := c.Param("id")

	session, err := h.sessionMgr.Retry(id)
	if err != nil {
		h.respondError(c, "Failed to retry session", err, zap.String("id", id))
		return
	}

	c.JSON(http.StatusOK, session)
}

// DeleteSession handles DELETE /api/v1/sessions/:id
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	id := c.Param("id")

	if err := h.sessionMgr.Delete(id); err != nil {
		h.respondError(c, "Failed to delete session", err, zap.String("id", id))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "session deleted"})
}

// respondError maps domain errors to status codes. Only unexpected errors are
// logged.
func (h *SessionHandler) respondError(c *gin.Context, msg string, err error, fields ...zap.Field) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(msg, append(fields, zap.Error(err))...)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSessionActive),
		errors.Is(err, domain.ErrNotRetryable),
		errors.Is(err, domain.ErrSessionTerminal):
		return http.StatusConflict
	case errors.Is(err, domain.ErrEmptyURL),
		errors.Is(err, domain.ErrUnknownContainer),
		errors.Is(err, domain.ErrNoDestination):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
