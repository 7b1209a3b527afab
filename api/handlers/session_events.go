package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/yourusername/vidfetch-go/internal/app"
)

// SessionEventsHandler streams the events of a running session over a
// WebSocket
type SessionEventsHandler struct {
	sessionMgr *app.SessionManager
	logger     *zap.Logger
}

// NewSessionEventsHandler creates a new session events handler
func NewSessionEventsHandler(sessionMgr *app.SessionManager, log *zap.Logger) *SessionEventsHandler {
	return &SessionEventsHandler{
		sessionMgr: sessionMgr,
		logger:     log,
	}
}

// snapshotMessage wraps the progress snapshot sent when a client connects
type snapshotMessage struct {
	Kind     string               `json:"kind"`
	Snapshot app.ProgressSnapshot `json:"snapshot"`
}

// HandleWebSocket handles GET /api/v1/sessions/:id/events. The client first
// receives the latest snapshot, then every event until the terminal one.
// Sessions that are not running get their snapshot, if any, and a close frame.
func (h *SessionEventsHandler) HandleWebSocket(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.sessionMgr.Get(id); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	events, unsubscribe, running := h.sessionMgr.Subscribe(id)
	defer unsubscribe()

	if snapshot, ok := h.sessionMgr.Progress(id); ok {
		if err := writeJSON(conn, snapshotMessage{Kind: "snapshot", Snapshot: snapshot}); err != nil {
			return
		}
	}
	if !running {
		closeNormally(conn, "session not running")
		return
	}

	closed := readUntilClosed(conn)

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				closeNormally(conn, "session finished")
				return
			}
			if err := writeJSON(conn, ev); err != nil {
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

func closeNormally(conn *websocket.Conn, reason string) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
