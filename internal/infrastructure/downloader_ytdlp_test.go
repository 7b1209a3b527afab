package infrastructure

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/vidfetch-go/internal/domain"
)

func testConfiguration() *domain.BackendConfiguration {
	return &domain.BackendConfiguration{
		FormatSelector:   "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]",
		OutputTemplate:   "/tmp/out dir/%(title)s [%(id)s]-best.%(ext)s",
		ArchivePath:      "/tmp/out dir/.download-archive.txt",
		Retry:            domain.RetryPolicy{Extractor: 3, Fragment: 10, FileAccess: 3, Sleep: time.Second},
		ContinuePartial:  true,
		NoOverwrites:     true,
		NoPostOverwrites: true,
		IgnoreErrors:     true,
		PlayerClients:    []string{"default", "android", "ios", "web"},
	}
}

// argValue returns the argument following flag
func argValue(args []string, flag string) (string, bool) {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1], true
		}
	}
	return "", false
}

func TestBuildArgs_Video(t *testing.T) {
	cfg := testConfiguration()
	args := BuildArgs("https://x/playlist?list=PL1", cfg)

	format, ok := argValue(args, "-f")
	require.True(t, ok)
	assert.Equal(t, cfg.FormatSelector, format)

	// paths with spaces stay a single argument
	output, ok := argValue(args, "-o")
	require.True(t, ok)
	assert.Equal(t, cfg.OutputTemplate, output)
	archive, _ := argValue(args, "--download-archive")
	assert.Equal(t, "/tmp/out dir/.download-archive.txt", archive)

	for _, flag := range []string{"--continue", "--no-overwrites", "--no-post-overwrites", "--ignore-errors", "--yes-playlist", "--newline"} {
		assert.Contains(t, args, flag)
	}
	assert.NotContains(t, args, "--no-playlist")
	assert.NotContains(t, args, "-x")

	retries, _ := argValue(args, "--fragment-retries")
	assert.Equal(t, "10", retries)
	retries, _ = argValue(args, "--extractor-retries")
	assert.Equal(t, "3", retries)
	assert.Contains(t, args, "http:1")
	assert.Contains(t, args, "file_access:1")

	clients, _ := argValue(args, "--extractor-args")
	assert.Equal(t, "youtube:player_client=default,android,ios,web", clients)

	// url is always last, behind the option terminator
	assert.Equal(t, []string{"--", "https://x/playlist?list=PL1"}, args[len(args)-2:])
}

func TestBuildArgs_AudioAndSingleItem(t *testing.T) {
	cfg := testConfiguration()
	cfg.NoPlaylist = true
	cfg.FFmpegLocation = "/opt/ffmpeg/bin"
	cfg.PostProcessors = []domain.PostProcessor{{Kind: domain.PostProcessorExtractAudio, Codec: "mp3", Quality: "192K"}}

	args := BuildArgs("https://x/watch?v=abc", cfg)
	assert.Contains(t, args, "--no-playlist")
	assert.Contains(t, args, "-x")
	codec, _ := argValue(args, "--audio-format")
	assert.Equal(t, "mp3", codec)
	quality, _ := argValue(args, "--audio-quality")
	assert.Equal(t, "192K", quality)
	ffmpeg, _ := argValue(args, "--ffmpeg-location")
	assert.Equal(t, "/opt/ffmpeg/bin", ffmpeg)

	cfg.PostProcessors = []domain.PostProcessor{{Kind: domain.PostProcessorExtractAudio, Codec: "wav"}}
	args = BuildArgs("https://x/watch?v=abc", cfg)
	assert.NotContains(t, args, "--audio-quality")
}

func TestBuildArgs_ZeroRetryPolicyOmitsFlags(t *testing.T) {
	cfg := testConfiguration()
	cfg.Retry = domain.RetryPolicy{}
	args := BuildArgs("u", cfg)
	assert.NotContains(t, args, "--extractor-retries")
	assert.NotContains(t, args, "--retry-sleep")
}

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		line       string
		fromStderr bool
		expected   domain.LogLevel
	}{
		{"ERROR: [youtube] CCCCCCCCCCC: Private video", true, domain.LogError},
		{"WARNING: [youtube] SABR streaming", true, domain.LogWarning},
		{"[debug] Command-line config: []", true, domain.LogDebug},
		{"[download] Destination: /tmp/x.mp4", false, domain.LogInfo},
		{"Traceback (most recent call last):", true, domain.LogWarning},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyLine(tt.line, tt.fromStderr))
		})
	}
}

func TestParseProgressLine(t *testing.T) {
	report, ok := ParseProgressLine("[progress] downloading 1024 4096 NA AAAAAAAAAAA")
	require.True(t, ok)
	assert.Equal(t, domain.ProgressDownloading, report.Status)
	assert.Equal(t, int64(1024), report.DownloadedBytes)
	assert.Equal(t, int64(4096), report.TotalBytes)
	assert.Zero(t, report.TotalBytesEstimate)
	assert.Equal(t, "AAAAAAAAAAA", report.Filename)

	report, ok = ParseProgressLine("[progress] downloading 10 NA 2048.7 NA")
	require.True(t, ok)
	assert.Equal(t, int64(2048), report.TotalBytesEstimate)
	assert.Empty(t, report.Filename)

	_, ok = ParseProgressLine("[download]  10.0% of 1MiB")
	assert.False(t, ok)
	_, ok = ParseProgressLine("[progress] truncated")
	assert.False(t, ok)
}

// writeFakeYTDLP writes a shell script standing in for yt-dlp
func writeFakeYTDLP(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script backend not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "fake-yt-dlp")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755))
	return path
}

type recordedLine struct {
	level domain.LogLevel
	line  string
}

func TestYTDLPBackend_RunStreamsOutput(t *testing.T) {
	script := writeFakeYTDLP(t, `
echo "[download] Destination: /tmp/out/One [AAAAAAAAAAA]-best.mp4"
echo "[progress] downloading 50 100 NA AAAAAAAAAAA"
echo "[progress] finished 100 100 NA AAAAAAAAAAA"
echo "ERROR: [youtube] CCCCCCCCCCC: Private video" 1>&2
exit 1
`)

	var (
		mu       sync.Mutex
		lines    []recordedLine
		progress []domain.ProgressReport
	)
	hooks := domain.BackendHooks{
		Progress: func(p domain.ProgressReport) error {
			mu.Lock()
			defer mu.Unlock()
			progress = append(progress, p)
			return nil
		},
		Log: func(level domain.LogLevel, line string) error {
			mu.Lock()
			defer mu.Unlock()
			lines = append(lines, recordedLine{level, line})
			return nil
		},
	}

	backend := NewYTDLPBackend(script, nil)
	err := backend.Run(context.Background(), "https://x/playlist?list=PL1", testConfiguration(), hooks)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "yt-dlp failed"))

	require.Len(t, progress, 2)
	assert.Equal(t, domain.ProgressFinished, progress[1].Status)

	require.Len(t, lines, 2)
	levels := map[domain.LogLevel]string{}
	for _, l := range lines {
		levels[l.level] = l.line
	}
	assert.Contains(t, levels[domain.LogInfo], "Destination")
	assert.Contains(t, levels[domain.LogError], "Private video")
}

func TestYTDLPBackend_HookErrorStopsProcess(t *testing.T) {
	script := writeFakeYTDLP(t, `
echo "[download] Destination: /tmp/out/One [AAAAAAAAAAA]-best.mp4"
exec sleep 30
`)

	hooks := domain.BackendHooks{
		Log: func(level domain.LogLevel, line string) error {
			return domain.ErrAborted
		},
	}

	backend := NewYTDLPBackend(script, nil)
	start := time.Now()
	err := backend.Run(context.Background(), "u", testConfiguration(), hooks)
	assert.ErrorIs(t, err, domain.ErrAborted)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestYTDLPBackend_MissingBinary(t *testing.T) {
	backend := NewYTDLPBackend(filepath.Join(t.TempDir(), "does-not-exist"), nil)
	err := backend.Run(context.Background(), "u", testConfiguration(), domain.BackendHooks{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start yt-dlp")
}

func TestYTDLPBackend_Defaults(t *testing.T) {
	backend := NewYTDLPBackend("", nil)
	assert.Equal(t, "yt-dlp", backend.Binary())
	assert.Equal(t, "yt-dlp", backend.Name())
}
