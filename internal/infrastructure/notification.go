package infrastructure

import (
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/yourusername/vidfetch-go/internal/domain"
)

// commandRunner runs a notification command; replaced in tests
type commandRunner func(name string, args ...string) error

func runCommand(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

// NotificationService sends desktop notifications about sessions
type NotificationService struct {
	config *domain.NotificationConfig
	logger *zap.Logger
	run    commandRunner
}

// NewNotificationService creates a new notification service
func NewNotificationService(config *domain.NotificationConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		config: config,
		logger: logger,
		run:    runCommand,
	}
}

// Send sends a notification
func (n *NotificationService) Send(title, message string) error {
	if n == nil || n.config == nil || !n.config.Enabled {
		return nil
	}

	var err error
	switch n.config.Method {
	case "osascript":
		script := fmt.Sprintf(`display notification %s with title %s`, appleScriptString(message), appleScriptString(title))
		if n.config.Sound {
			script += ` sound name "default"`
		}
		err = n.run("osascript", "-e", script)
	case "notify-send":
		err = n.run("notify-send", "--app-name=vidfetch", title, message)
	default:
		n.logger.Warn("Unknown notification method", zap.String("method", n.config.Method))
		return nil
	}

	if err != nil {
		n.logger.Error("Failed to send notification",
			zap.String("method", n.config.Method),
			zap.Error(err))
		return err
	}

	n.logger.Debug("Notification sent",
		zap.String("title", title),
		zap.String("message", message))
	return nil
}

// NotifySessionQueued sends a notification when a session is queued
func (n *NotificationService) NotifySessionQueued(session *domain.Session) {
	n.Send("Download Queued", fmt.Sprintf("Added to queue: %s (%s)", truncateString(session.URL, 40), session.Container))
}

// NotifySessionStarted sends a notification when a session starts
func (n *NotificationService) NotifySessionStarted(session *domain.Session) {
	n.Send("Download Started", fmt.Sprintf("Processing: %s", truncateString(session.URL, 40)))
}

// NotifySessionFinished sends a notification with the outcome summary
func (n *NotificationService) NotifySessionFinished(session *domain.Session) {
	title := "Download Finished"
	switch session.Status {
	case domain.SessionPartialSuccess:
		title = "Download Finished With Errors"
	case domain.SessionFailure:
		title = "Download Failed"
	case domain.SessionAborted:
		title = "Download Cancelled"
	}
	message := session.Summary
	if message == "" {
		message = truncateString(session.URL, 40)
	}
	n.Send(title, message)
}

// NotifyQueueEmpty sends a notification when the queue drains
func (n *NotificationService) NotifyQueueEmpty() {
	n.Send("Queue Empty", "All downloads completed")
}

// appleScriptString quotes s as an AppleScript string literal
func appleScriptString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// truncateString truncates a string to maxLen runes
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
