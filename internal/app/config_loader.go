package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/yourusername/vidfetch-go/internal/domain"
	"github.com/yourusername/vidfetch-go/internal/format"
	"github.com/yourusername/vidfetch-go/internal/i18n"
)

// EnvPrefix prefixes every environment override, e.g. VIDFETCH_SERVER_PORT
const EnvPrefix = "VIDFETCH"

// LoadConfig loads configuration from defaults, an optional .env file, a YAML
// file and VIDFETCH_* environment variables, in increasing precedence
func LoadConfig(configPath string) (*domain.Config, error) {
	// a missing .env is the common case
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.vidfetch")
		v.AddConfigPath("/etc/vidfetch")
	}

	// every key needs a default for AutomaticEnv to reach it during Unmarshal
	for key, value := range configValues(domain.DefaultConfig()) {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	expandPaths(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// configValues flattens config into viper keys
func configValues(config *domain.Config) map[string]interface{} {
	return map[string]interface{}{
		"server.host": config.Server.Host,
		"server.port": config.Server.Port,

		"download.base_dir":            config.Download.BaseDir,
		"download.ytdlp_binary":        config.Download.YTDLPBinary,
		"download.ffmpeg_location":     config.Download.FFmpegLocation,
		"download.archive_file_name":   config.Download.ArchiveFileName,
		"download.default_container":   config.Download.DefaultContainer,
		"download.default_quality":     config.Download.DefaultQuality,
		"download.extractor_retries":   config.Download.ExtractorRetries,
		"download.fragment_retries":    config.Download.FragmentRetries,
		"download.file_access_retries": config.Download.FileAccessRetries,
		"download.retry_sleep":         config.Download.RetrySleep.String(),
		"download.player_clients":      config.Download.PlayerClients,
		"download.concurrent_limit":    config.Download.ConcurrentLimit,
		"download.auto_start_workers":  config.Download.AutoStartWorkers,

		"queue.database_path":      config.Queue.DatabasePath,
		"queue.check_interval":     config.Queue.CheckInterval.String(),
		"queue.auto_exit_on_empty": config.Queue.AutoExitOnEmpty,
		"queue.empty_wait_time":    config.Queue.EmptyWaitTime.String(),

		"notification.enabled": config.Notification.Enabled,
		"notification.sound":   config.Notification.Sound,
		"notification.method":  config.Notification.Method,

		"logging.level":       config.Logging.Level,
		"logging.format":      config.Logging.Format,
		"logging.output_path": config.Logging.OutputPath,

		"locale": config.Locale,
	}
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) {
	config.Download.BaseDir = expandPath(config.Download.BaseDir)
	config.Download.FFmpegLocation = expandPath(config.Download.FFmpegLocation)
	config.Queue.DatabasePath = expandPath(config.Queue.DatabasePath)

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}
}

// expandPath expands environment variables and a leading ~ in path
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return os.Expand(path, func(key string) string {
		if key == "HOME" {
			if home, err := os.UserHomeDir(); err == nil {
				return home
			}
		}
		return os.Getenv(key)
	})
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Download.BaseDir == "" {
		return fmt.Errorf("download base directory not configured")
	}

	if config.Download.YTDLPBinary == "" {
		return fmt.Errorf("yt-dlp binary not configured")
	}

	if _, err := domain.ParseContainer(config.Download.DefaultContainer); err != nil {
		return fmt.Errorf("default container: %w", err)
	}

	if config.Download.DefaultQuality != "" {
		config.Download.DefaultQuality = string(format.Canonicalize(config.Download.DefaultQuality))
	}

	if config.Download.ExtractorRetries < 0 || config.Download.FragmentRetries < 0 || config.Download.FileAccessRetries < 0 {
		return fmt.Errorf("retries cannot be negative")
	}

	if config.Download.ConcurrentLimit < 1 {
		return fmt.Errorf("concurrent limit must be at least 1")
	}

	if config.Queue.DatabasePath == "" {
		return fmt.Errorf("queue database path not configured")
	}

	if config.Queue.CheckInterval <= 0 {
		return fmt.Errorf("queue check interval must be positive")
	}

	if config.Locale == "" {
		config.Locale = "en"
	}
	if _, err := i18n.NewCatalog(config.Locale); err != nil {
		return fmt.Errorf("locale: %w", err)
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}

// SaveConfig writes config to path as YAML
func SaveConfig(config *domain.Config, path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	for key, value := range configValues(config) {
		v.Set(key, value)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
