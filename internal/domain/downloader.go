package domain

import (
	"context"
	"time"
)

// Backend is the external extraction tool. Run blocks until the tool is done.
// When a hook returns an error the backend must stop and return that error.
type Backend interface {
	// Run downloads url using cfg, reporting through hooks
	Run(ctx context.Context, url string, cfg *BackendConfiguration, hooks BackendHooks) error

	// Name identifies the backend in logs
	Name() string
}

// BackendHooks are the callbacks a backend reports through
type BackendHooks struct {
	Progress func(ProgressReport) error
	Log      func(level LogLevel, line string) error
}

// LogLevel is the channel a backend output line was emitted on
type LogLevel string

const (
	LogDebug   LogLevel = "debug"
	LogInfo    LogLevel = "info"
	LogWarning LogLevel = "warning"
	LogError   LogLevel = "error"
)

// Progress statuses reported by the backend
const (
	ProgressDownloading = "downloading"
	ProgressFinished    = "finished"
)

// ProgressReport is one byte-level progress tick for the current item
type ProgressReport struct {
	Status             string
	DownloadedBytes    int64
	TotalBytes         int64
	TotalBytesEstimate int64
	Filename           string
}

// PostProcessor kinds
const (
	PostProcessorExtractAudio = "FFmpegExtractAudio"
)

// PostProcessor is a post-download step run by the backend
type PostProcessor struct {
	Kind    string `json:"kind"`
	Codec   string `json:"codec"`
	Quality string `json:"quality,omitempty"` // empty for lossless codecs
}

// RetryPolicy bounds the backend's own retries
type RetryPolicy struct {
	Extractor  int           `json:"extractor"`
	Fragment   int           `json:"fragment"`
	FileAccess int           `json:"file_access"`
	Sleep      time.Duration `json:"sleep"`
}

// BackendConfiguration is derived once per session and consumed by one backend run
type BackendConfiguration struct {
	FormatSelector   string          `json:"format_selector"`
	PostProcessors   []PostProcessor `json:"post_processors"`
	OutputTemplate   string          `json:"output_template"`
	ArchivePath      string          `json:"archive_path"`
	NoPlaylist       bool            `json:"no_playlist"`
	Retry            RetryPolicy     `json:"retry"`
	ContinuePartial  bool            `json:"continue_partial"`
	NoOverwrites     bool            `json:"no_overwrites"`
	NoPostOverwrites bool            `json:"no_post_overwrites"`
	IgnoreErrors     bool            `json:"ignore_errors"`
	PlayerClients    []string        `json:"player_clients,omitempty"`
	FFmpegLocation   string          `json:"ffmpeg_location,omitempty"`
}
