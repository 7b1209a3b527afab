package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/vidfetch-go/internal/app"
	"github.com/yourusername/vidfetch-go/internal/domain"
	"github.com/yourusername/vidfetch-go/internal/i18n"
	"github.com/yourusername/vidfetch-go/internal/infrastructure"
	"github.com/yourusername/vidfetch-go/pkg/logger"
)

// lineBackend emits fixed lines, optionally waiting on release first
type lineBackend struct {
	lines   []string
	release chan struct{}
	started chan struct{}
}

func (b *lineBackend) Name() string { return "lines" }

func (b *lineBackend) Run(ctx context.Context, url string, cfg *domain.BackendConfiguration, hooks domain.BackendHooks) error {
	if b.started != nil {
		close(b.started)
	}
	if b.release != nil {
		select {
		case <-b.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	for _, line := range b.lines {
		level := domain.LogInfo
		if strings.HasPrefix(line, "ERROR:") {
			level = domain.LogError
		}
		if err := hooks.Log(level, line); err != nil {
			return err
		}
	}
	return nil
}

type testServer struct {
	*httptest.Server
	sessionMgr *app.SessionManager
	queueMgr   *app.QueueManager
	baseDir    string
}

func setupTestServer(t *testing.T, backend domain.Backend) *testServer {
	t.Helper()
	dir := t.TempDir()

	repo, err := infrastructure.NewSQLiteSessionRepository(filepath.Join(dir, "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	ml, err := logger.NewMultiLogger(logger.MultiLoggerConfig{Level: "info", LogsDir: filepath.Join(dir, "logs")})
	require.NoError(t, err)
	t.Cleanup(func() { ml.Close() })

	config := domain.DefaultConfig()
	config.Download.BaseDir = filepath.Join(dir, "media")
	config.Queue.CheckInterval = 10 * time.Millisecond

	sessionMgr := app.NewSessionManager(repo, backend, nil, &config.Download, i18n.Default(), ml, zap.NewNop())
	queueMgr := app.NewQueueManager(repo, sessionMgr, &config.Queue, ml)

	router := SetupRouter(RouterDeps{
		QueueMgr:    queueMgr,
		SessionMgr:  sessionMgr,
		Defaults:    &config.Download,
		Backend:     backend.Name(),
		Logger:      zap.NewNop(),
		MultiLogger: ml,
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &testServer{Server: server, sessionMgr: sessionMgr, queueMgr: queueMgr, baseDir: config.Download.BaseDir}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	return resp, result
}

func TestAPI_Health(t *testing.T) {
	s := setupTestServer(t, &lineBackend{})

	resp, body := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "lines", body["backend"])

	resp, _ = s.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	require.NoError(t, s.queueMgr.Start(context.Background()))
	t.Cleanup(func() { s.queueMgr.Stop() })
	resp, _ = s.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_AddSessionDefaults(t *testing.T) {
	s := setupTestServer(t, &lineBackend{})

	resp, body := s.do(t, http.MethodPost, "/api/v1/sessions", map[string]string{
		"url": "https://www.youtube.com/playlist?list=PL1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "queued", body["status"])
	assert.Equal(t, "mp4", body["container"])
	assert.Equal(t, true, body["treat_as_collection"])
	assert.Equal(t, s.baseDir, body["destination_dir"])

	resp, body = s.do(t, http.MethodPost, "/api/v1/sessions", map[string]string{
		"url": "https://www.youtube.com/playlist?list=PL1",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.NotNil(t, body["session"])
}

func TestAPI_AddSessionValidation(t *testing.T) {
	s := setupTestServer(t, &lineBackend{})

	tests := []struct {
		name string
		body interface{}
	}{
		{"missing url", map[string]string{"container": "mp3"}},
		{"unknown container", map[string]string{"url": "https://x/watch?v=a", "container": "flac"}},
		{"not json", "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := s.do(t, http.MethodPost, "/api/v1/sessions", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestAPI_Inspect(t *testing.T) {
	s := setupTestServer(t, &lineBackend{})

	resp, body := s.do(t, http.MethodPost, "/api/v1/inspect", map[string]interface{}{
		"url":        "https://www.youtube.com/watch?v=AAAAAAAAAAA&list=PL1",
		"container":  "MP3",
		"collection": false,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cfg := body["configuration"].(map[string]interface{})
	assert.Equal(t, true, cfg["no_playlist"])
	assert.Equal(t, "bestaudio/best", cfg["format_selector"])
	pp := cfg["post_processors"].([]interface{})
	require.Len(t, pp, 1)
	assert.Equal(t, "mp3", pp[0].(map[string]interface{})["codec"])
}

func TestAPI_SessionLifecycle(t *testing.T) {
	s := setupTestServer(t, &lineBackend{lines: []string{
		"[download] Destination: /tmp/Song A [AAAAAAAAAAA].mp3",
		"ERROR: [youtube] CCCCCCCCCCC: Private video",
	}})

	resp, body := s.do(t, http.MethodPost, "/api/v1/sessions", map[string]interface{}{
		"url":       "https://www.youtube.com/playlist?list=PL2",
		"container": "mp3",
		"quality":   "Hohe Qualität",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := body["id"].(string)

	require.NoError(t, s.queueMgr.Start(context.Background()))
	t.Cleanup(func() { s.queueMgr.Stop() })

	require.Eventually(t, func() bool {
		_, got := s.do(t, http.MethodGet, "/api/v1/sessions/"+id, nil)
		return got["status"] == "partial_success"
	}, 5*time.Second, 20*time.Millisecond)

	_, got := s.do(t, http.MethodGet, "/api/v1/sessions/"+id, nil)
	assert.Equal(t, "Finished with errors: 1 downloaded, 0 already existed, 1 failed.", got["summary"])
	items := got["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "CCCCCCCCCCC", items[0].(map[string]interface{})["item_id"])

	resp, progress := s.do(t, http.MethodGet, "/api/v1/sessions/"+id+"/progress", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "completed", progress["state"])

	resp, logs := s.do(t, http.MethodGet, "/api/v1/logs/backend?session="+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, logs["count"])

	resp, _ = s.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/cancel", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "finished sessions cannot be cancelled")

	resp, retried := s.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/retry", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "queued", retried["status"])

}

func TestAPI_ListStatsDelete(t *testing.T) {
	s := setupTestServer(t, &lineBackend{})

	_, first := s.do(t, http.MethodPost, "/api/v1/sessions", map[string]string{"url": "https://x/watch?v=one"})
	s.do(t, http.MethodPost, "/api/v1/sessions", map[string]string{"url": "https://x/watch?v=two", "container": "webm"})

	req, err := http.Get(s.URL + "/api/v1/sessions?container=webm")
	require.NoError(t, err)
	var list []map[string]interface{}
	require.NoError(t, json.NewDecoder(req.Body).Decode(&list))
	req.Body.Close()
	require.Len(t, list, 1)
	assert.Equal(t, "https://x/watch?v=two", list[0]["url"])

	_, stats := s.do(t, http.MethodGet, "/api/v1/sessions/stats", nil)
	assert.EqualValues(t, 2, stats["queued"])

	resp, _ := s.do(t, http.MethodDelete, "/api/v1/sessions/"+first["id"].(string), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = s.do(t, http.MethodGet, "/api/v1/sessions/"+first["id"].(string), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = s.do(t, http.MethodPost, "/api/v1/sessions/missing/retry", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_SessionEventsWebSocket(t *testing.T) {
	backend := &lineBackend{
		lines:   []string{"[download] Destination: /tmp/Song A [AAAAAAAAAAA]-best.mp4"},
		release: make(chan struct{}),
		started: make(chan struct{}),
	}
	s := setupTestServer(t, backend)

	_, body := s.do(t, http.MethodPost, "/api/v1/sessions", map[string]string{"url": "https://x/watch?v=AAAAAAAAAAA"})
	id := body["id"].(string)

	require.NoError(t, s.queueMgr.Start(context.Background()))
	t.Cleanup(func() { s.queueMgr.Stop() })

	select {
	case <-backend.started:
	case <-time.After(5 * time.Second):
		t.Fatal("session never started")
	}

	wsURL := "ws" + strings.TrimPrefix(s.URL, "http") + "/api/v1/sessions/" + id + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	close(backend.release)

	var kinds []string
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg map[string]interface{}
		if err := conn.ReadJSON(&msg); err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected error: %v", err)
			break
		}
		kinds = append(kinds, msg["kind"].(string))
	}

	require.NotEmpty(t, kinds)
	assert.Equal(t, "snapshot", kinds[0])
	assert.Equal(t, "terminal", kinds[len(kinds)-1])
	assert.Contains(t, kinds, "log")
}

func TestAPI_LogEndpoints(t *testing.T) {
	s := setupTestServer(t, &lineBackend{})

	resp, body := s.do(t, http.MethodGet, "/api/v1/logs/categories", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["categories"], 4)

	resp, _ = s.do(t, http.MethodGet, "/api/v1/logs/download", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do(t, http.MethodGet, "/api/v1/logs/queue?date=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do(t, http.MethodGet, "/api/v1/logs/queue/search", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do(t, http.MethodGet, "/api/v1/nothing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
