package domain

import (
	"path/filepath"
	"time"
)

// DefaultArchiveFileName is the backend's download archive, kept in each
// destination directory
const DefaultArchiveFileName = ".download-archive.txt"

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Download     DownloadConfig     `mapstructure:"download"`
	Queue        QueueConfig        `mapstructure:"queue"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Locale       string             `mapstructure:"locale"` // en, de, es, fr
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DownloadConfig contains download-related configuration
type DownloadConfig struct {
	BaseDir           string        `mapstructure:"base_dir"` // default destination
	YTDLPBinary       string        `mapstructure:"ytdlp_binary"`
	FFmpegLocation    string        `mapstructure:"ffmpeg_location"`
	ArchiveFileName   string        `mapstructure:"archive_file_name"`
	DefaultContainer  string        `mapstructure:"default_container"`
	DefaultQuality    string        `mapstructure:"default_quality"`
	ExtractorRetries  int           `mapstructure:"extractor_retries"`
	FragmentRetries   int           `mapstructure:"fragment_retries"`
	FileAccessRetries int           `mapstructure:"file_access_retries"`
	RetrySleep        time.Duration `mapstructure:"retry_sleep"`
	PlayerClients     []string      `mapstructure:"player_clients"`
	ConcurrentLimit   int           `mapstructure:"concurrent_limit"`
	AutoStartWorkers  bool          `mapstructure:"auto_start_workers"`
}

// LogsDir returns the directory holding category and backend logs
func (c DownloadConfig) LogsDir() string {
	return filepath.Join(c.BaseDir, ".vidfetch", "logs")
}

// ConfigDir returns the directory holding the session database
func (c DownloadConfig) ConfigDir() string {
	return filepath.Join(c.BaseDir, ".vidfetch")
}

// RetryPolicy returns the backend retry policy configured for downloads
func (c DownloadConfig) RetryPolicy() RetryPolicy {
	return RetryPolicy{
		Extractor:  c.ExtractorRetries,
		Fragment:   c.FragmentRetries,
		FileAccess: c.FileAccessRetries,
		Sleep:      c.RetrySleep,
	}
}

// QueueConfig contains queue-related configuration
type QueueConfig struct {
	DatabasePath    string        `mapstructure:"database_path"`
	CheckInterval   time.Duration `mapstructure:"check_interval"`
	AutoExitOnEmpty bool          `mapstructure:"auto_exit_on_empty"`
	EmptyWaitTime   time.Duration `mapstructure:"empty_wait_time"`
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Sound   bool   `mapstructure:"sound"`
	Method  string `mapstructure:"method"` // osascript, notify-send
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8090,
		},
		Download: DownloadConfig{
			BaseDir:           "$HOME/Downloads/vidfetch",
			YTDLPBinary:       "yt-dlp",
			FFmpegLocation:    "",
			ArchiveFileName:   DefaultArchiveFileName,
			DefaultContainer:  string(ContainerMP4),
			DefaultQuality:    string(QualityBest),
			ExtractorRetries:  3,
			FragmentRetries:   10,
			FileAccessRetries: 3,
			RetrySleep:        time.Second,
			PlayerClients:     []string{"default", "android", "ios", "web"},
			ConcurrentLimit:   1,
			AutoStartWorkers:  true,
		},
		Queue: QueueConfig{
			DatabasePath:    "$HOME/Downloads/vidfetch/.vidfetch/sessions.db",
			CheckInterval:   5 * time.Second,
			AutoExitOnEmpty: false,
			EmptyWaitTime:   5 * time.Minute,
		},
		Notification: NotificationConfig{
			Enabled: false,
			Sound:   false,
			Method:  "notify-send",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
		},
		Locale: "en",
	}
}
