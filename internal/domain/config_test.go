package domain

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.NotNil(t, config)
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, 8090, config.Server.Port)
	assert.Equal(t, "yt-dlp", config.Download.YTDLPBinary)
	assert.Equal(t, 3, config.Download.ExtractorRetries)
	assert.Equal(t, 10, config.Download.FragmentRetries)
	assert.Equal(t, 3, config.Download.FileAccessRetries)
	assert.Equal(t, time.Second, config.Download.RetrySleep)
	assert.Equal(t, 1, config.Download.ConcurrentLimit)
	assert.NotEmpty(t, config.Download.PlayerClients)
	assert.Equal(t, 5*time.Second, config.Queue.CheckInterval)
	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, "en", config.Locale)
}

func TestDownloadConfig_Dirs(t *testing.T) {
	cfg := DownloadConfig{BaseDir: "/data/media"}

	assert.Equal(t, filepath.Join("/data/media", ".vidfetch"), cfg.ConfigDir())
	assert.Equal(t, filepath.Join("/data/media", ".vidfetch", "logs"), cfg.LogsDir())
}

func TestDownloadConfig_RetryPolicy(t *testing.T) {
	cfg := DefaultConfig().Download

	policy := cfg.RetryPolicy()
	assert.Equal(t, RetryPolicy{Extractor: 3, Fragment: 10, FileAccess: 3, Sleep: time.Second}, policy)
}
