package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/vidfetch-go/api/handlers"
	"github.com/yourusername/vidfetch-go/api/middleware"
	"github.com/yourusername/vidfetch-go/internal/app"
	"github.com/yourusername/vidfetch-go/internal/domain"
	"github.com/yourusername/vidfetch-go/pkg/logger"
)

// RouterDeps are the components the HTTP API is built on
type RouterDeps struct {
	QueueMgr    *app.QueueManager
	SessionMgr  *app.SessionManager
	Defaults    *domain.DownloadConfig
	Backend     string
	Logger      *zap.Logger
	MultiLogger *logger.MultiLogger
}

// SetupRouter sets up the HTTP router
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(middleware.Logger(deps.Logger, deps.MultiLogger))
	router.Use(middleware.Recovery(deps.Logger, deps.MultiLogger))

	healthHandler := handlers.NewHealthHandler(deps.QueueMgr, deps.SessionMgr, deps.Backend)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	v1 := router.Group("/api/v1")
	{
		sessionHandler := handlers.NewSessionHandler(deps.SessionMgr, deps.Defaults, deps.Logger)
		eventsHandler := handlers.NewSessionEventsHandler(deps.SessionMgr, deps.Logger)

		v1.POST("/inspect", sessionHandler.Inspect)

		sessions := v1.Group("/sessions")
		{
			sessions.POST("", sessionHandler.AddSession)
			sessions.GET("", sessionHandler.ListSessions)
			sessions.GET("/stats", sessionHandler.GetStats)
			sessions.GET("/:id", sessionHandler.GetSession)
			sessions.GET("/:id/progress", sessionHandler.GetProgress)
			sessions.GET("/:id/events", eventsHandler.HandleWebSocket)
			sessions.POST("/:id/cancel", sessionHandler.CancelSession)
			sessions.POST("/:id/retry", sessionHandler.RetrySession)
			sessions.DELETE("/:id", sessionHandler.DeleteSession)
		}

		if deps.MultiLogger != nil {
			logsDir := deps.MultiLogger.GetLogsDir()
			logHandler := handlers.NewLogHandler(logsDir)
			streamHandler := handlers.NewLogWebSocketHandler(logsDir, deps.Logger)

			logs := v1.Group("/logs")
			{
				logs.GET("/categories", logHandler.GetCategories)
				logs.GET("/:category", logHandler.GetLogs)
				logs.GET("/:category/search", logHandler.SearchLogs)
				logs.GET("/:category/export", logHandler.ExportLogs)
				logs.GET("/:category/stream", streamHandler.HandleWebSocket)
			}
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router
}
