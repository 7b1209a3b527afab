package infrastructure

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/vidfetch-go/internal/domain"
)

type recordedCommand struct {
	name string
	args []string
}

func newTestNotifier(method string, enabled bool) (*NotificationService, *[]recordedCommand) {
	var calls []recordedCommand
	n := NewNotificationService(&domain.NotificationConfig{Enabled: enabled, Method: method}, nil)
	n.run = func(name string, args ...string) error {
		calls = append(calls, recordedCommand{name, args})
		return nil
	}
	return n, &calls
}

func TestNotification_Disabled(t *testing.T) {
	n, calls := newTestNotifier("notify-send", false)
	require.NoError(t, n.Send("t", "m"))
	assert.Empty(t, *calls)

	var nilService *NotificationService
	assert.NoError(t, nilService.Send("t", "m"))
}

func TestNotification_NotifySend(t *testing.T) {
	n, calls := newTestNotifier("notify-send", true)
	session := domain.NewSession(domain.DownloadRequest{SourceURL: "https://x/playlist?list=PL1", Container: domain.ContainerMP3, DestinationDir: "/tmp"})
	session.MarkFinished(domain.SessionOutcome{Status: domain.OverallPartialSuccess, Summary: "2 downloaded, 1 failed"})

	n.NotifySessionFinished(session)
	require.Len(t, *calls, 1)
	assert.Equal(t, "notify-send", (*calls)[0].name)
	assert.Equal(t, []string{"--app-name=vidfetch", "Download Finished With Errors", "2 downloaded, 1 failed"}, (*calls)[0].args)
}

func TestNotification_OSAScriptQuoting(t *testing.T) {
	n, calls := newTestNotifier("osascript", true)
	require.NoError(t, n.Send(`Say "hi"`, `path\name`))
	require.Len(t, *calls, 1)
	assert.Equal(t, []string{"-e", `display notification "path\\name" with title "Say \"hi\""`}, (*calls)[0].args)
}

func TestNotification_CommandFailure(t *testing.T) {
	n, _ := newTestNotifier("notify-send", true)
	n.run = func(string, ...string) error { return errors.New("not installed") }
	assert.Error(t, n.Send("t", "m"))

	n, calls := newTestNotifier("carrier-pigeon", true)
	assert.NoError(t, n.Send("t", "m"))
	assert.Empty(t, *calls)
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "abc...", truncateString("abcdef", 3))
	assert.Equal(t, "äöü...", truncateString("äöüß", 3))
}
