package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/vidfetch-go/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9100
download:
  base_dir: /srv/media
  default_container: MP3
  default_quality: Hohe Qualität
  concurrent_limit: 3
  retry_sleep: 5s
  player_clients: [android, web]
queue:
  check_interval: 2s
locale: de
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, config.Server.Port)
	assert.Equal(t, "localhost", config.Server.Host, "unset keys keep defaults")
	assert.Equal(t, "/srv/media", config.Download.BaseDir)
	assert.Equal(t, 3, config.Download.ConcurrentLimit)
	assert.Equal(t, 5*time.Second, config.Download.RetrySleep)
	assert.Equal(t, []string{"android", "web"}, config.Download.PlayerClients)
	assert.Equal(t, string(domain.QualityHigh), config.Download.DefaultQuality)
	assert.Equal(t, 2*time.Second, config.Queue.CheckInterval)
	assert.Equal(t, domain.DefaultArchiveFileName, config.Download.ArchiveFileName)
	assert.Equal(t, "de", config.Locale)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("VIDFETCH_SERVER_PORT", "9200")
	t.Setenv("VIDFETCH_DOWNLOAD_YTDLP_BINARY", "/opt/yt-dlp")
	t.Setenv("VIDFETCH_NOTIFICATION_ENABLED", "true")

	config, err := LoadConfig(writeConfig(t, "server:\n  port: 9100\n"))
	require.NoError(t, err)

	assert.Equal(t, 9200, config.Server.Port)
	assert.Equal(t, "/opt/yt-dlp", config.Download.YTDLPBinary)
	assert.True(t, config.Notification.Enabled)
}

func TestLoadConfig_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	config, err := LoadConfig(writeConfig(t, "download:\n  base_dir: ~/media\n"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "media"), config.Download.BaseDir)
	assert.Equal(t, filepath.Join(home, "Downloads/vidfetch/.vidfetch/sessions.db"), config.Queue.DatabasePath)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"port", "server:\n  port: 70000\n"},
		{"container", "download:\n  default_container: flac\n"},
		{"concurrency", "download:\n  concurrent_limit: 0\n"},
		{"negative retries", "download:\n  fragment_retries: -1\n"},
		{"locale", "locale: \"@@\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "server: [unclosed\n"))
	assert.Error(t, err)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	config := domain.DefaultConfig()
	config.Server.Port = 9300
	config.Download.BaseDir = "/data/videos"
	config.Download.RetrySleep = 3 * time.Second
	config.Locale = "fr"

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, SaveConfig(config, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9300, loaded.Server.Port)
	assert.Equal(t, "/data/videos", loaded.Download.BaseDir)
	assert.Equal(t, 3*time.Second, loaded.Download.RetrySleep)
	assert.Equal(t, "fr", loaded.Locale)
}
