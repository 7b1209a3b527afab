package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/yourusername/vidfetch-go/pkg/logger"
)

const (
	pingInterval = 30 * time.Second
	writeWait    = 10 * time.Second
	backlogSize  = 50
)

var upgrader = websocket.Upgrader{
	// the server binds to localhost by default
	CheckOrigin: func(r *http.Request) bool { return true },
}

// LogWebSocketHandler streams a category log over a WebSocket
type LogWebSocketHandler struct {
	logReader *logger.LogReader
	logger    *zap.Logger
}

// NewLogWebSocketHandler creates a new WebSocket handler
func NewLogWebSocketHandler(logsDir string, log *zap.Logger) *LogWebSocketHandler {
	return &LogWebSocketHandler{
		logReader: logger.NewLogReader(logsDir),
		logger:    log,
	}
}

// HandleWebSocket handles GET /api/v1/logs/:category/stream. It sends the
// last entries of today's log, then every new one.
func (h *LogWebSocketHandler) HandleWebSocket(c *gin.Context) {
	category := logger.LogCategory(c.Param("category"))
	if !logger.ValidCategory(category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	h.logger.Debug("Log stream connected",
		zap.String("category", string(category)),
		zap.String("remote_addr", c.Request.RemoteAddr))

	backlog, err := h.logReader.ReadLogs(category, time.Now(), backlogSize)
	if err == nil {
		for _, entry := range backlog {
			if err := writeJSON(conn, entry); err != nil {
				return
			}
		}
	}

	entries := make(chan logger.LogEntry, 100)
	stop := make(chan struct{})
	defer close(stop)

	go func() {
		if err := h.logReader.TailLogs(category, entries, stop); err != nil {
			h.logger.Error("Log tailing error", zap.Error(err))
		}
	}()

	closed := readUntilClosed(conn)

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case entry := <-entries:
			if err := writeJSON(conn, entry); err != nil {
				return
			}
		case <-ticker.C:
			if err := ping(conn); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}

// readUntilClosed drains client frames so control messages are processed and
// reports when the client goes away
func readUntilClosed(conn *websocket.Conn) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	return done
}

func writeJSON(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

func ping(conn *websocket.Conn) error {
	return conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}
