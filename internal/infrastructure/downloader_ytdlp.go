package infrastructure

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/vidfetch-go/internal/domain"
)

// ProgressPrefix marks machine-readable progress lines on stdout
const ProgressPrefix = "[progress]"

// ProgressTemplate makes yt-dlp print one parseable line per progress hook.
// Missing values are printed as "NA".
const ProgressTemplate = "download:" + ProgressPrefix +
	" %(progress.status)s %(progress.downloaded_bytes)s %(progress.total_bytes)s" +
	" %(progress.total_bytes_estimate)s %(info.id)s"

var retrySleepKinds = []string{"http", "fragment", "file_access", "extractor"}

// YTDLPBackend runs the yt-dlp binary as the extraction backend
type YTDLPBackend struct {
	binary    string
	logger    *zap.Logger
	waitDelay time.Duration
}

// NewYTDLPBackend creates a backend invoking binary
func NewYTDLPBackend(binary string, logger *zap.Logger) *YTDLPBackend {
	if binary == "" {
		binary = "yt-dlp"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &YTDLPBackend{
		binary:    binary,
		logger:    logger,
		waitDelay: 2 * time.Second,
	}
}

// Name returns the backend name
func (b *YTDLPBackend) Name() string {
	return "yt-dlp"
}

// Binary returns the executable the backend invokes
func (b *YTDLPBackend) Binary() string {
	return b.binary
}

// Run executes yt-dlp and streams its output through hooks. When a hook
// returns an error the process is killed and that error is returned.
func (b *YTDLPBackend) Run(ctx context.Context, url string, cfg *domain.BackendConfiguration, hooks domain.BackendHooks) error {
	args := BuildArgs(url, cfg)

	// Note: exec.CommandContext passes args directly to the process; escaping is for the log only
	b.logger.Info("Running yt-dlp",
		zap.String("command", ShellEscapeCommand(b.binary, args...)))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd := exec.CommandContext(runCtx, b.binary, args...)
	cmd.WaitDelay = b.waitDelay

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to get stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start yt-dlp: %w", err)
	}

	// hooks are called from one goroutine at a time
	var (
		hookMu  sync.Mutex
		hookErr error
	)
	dispatch := func(line string, fromStderr bool) {
		hookMu.Lock()
		defer hookMu.Unlock()
		if hookErr != nil {
			return
		}
		if err := b.dispatch(line, fromStderr, hooks); err != nil {
			hookErr = err
			cancel()
		}
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		scanLines(stdout, func(line string) { dispatch(line, false) })
	}()
	go func() {
		defer wg.Done()
		scanLines(stderr, func(line string) { dispatch(line, true) })
	}()
	wg.Wait()

	waitErr := cmd.Wait()

	hookMu.Lock()
	defer hookMu.Unlock()
	if hookErr != nil {
		return hookErr
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if waitErr != nil {
		return fmt.Errorf("yt-dlp failed: %w", waitErr)
	}
	return nil
}

func (b *YTDLPBackend) dispatch(line string, fromStderr bool, hooks domain.BackendHooks) error {
	if report, ok := ParseProgressLine(line); ok {
		if hooks.Progress == nil {
			return nil
		}
		return hooks.Progress(report)
	}
	if hooks.Log == nil {
		return nil
	}
	return hooks.Log(ClassifyLine(line, fromStderr), line)
}

func scanLines(r io.Reader, fn func(string)) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		fn(line)
	}
}

// BuildArgs renders a backend configuration as yt-dlp command-line arguments
func BuildArgs(url string, cfg *domain.BackendConfiguration) []string {
	args := []string{"-f", cfg.FormatSelector, "-o", cfg.OutputTemplate}

	if cfg.ContinuePartial {
		args = append(args, "--continue")
	}
	if cfg.NoOverwrites {
		args = append(args, "--no-overwrites")
	}
	if cfg.NoPostOverwrites {
		args = append(args, "--no-post-overwrites")
	}
	if cfg.IgnoreErrors {
		args = append(args, "--ignore-errors")
	}

	if cfg.Retry.Extractor > 0 {
		args = append(args, "--extractor-retries", strconv.Itoa(cfg.Retry.Extractor))
	}
	if cfg.Retry.Fragment > 0 {
		args = append(args, "--fragment-retries", strconv.Itoa(cfg.Retry.Fragment))
	}
	if cfg.Retry.FileAccess > 0 {
		args = append(args, "--file-access-retries", strconv.Itoa(cfg.Retry.FileAccess))
	}
	if cfg.Retry.Sleep > 0 {
		secs := strconv.FormatFloat(cfg.Retry.Sleep.Seconds(), 'f', -1, 64)
		for _, kind := range retrySleepKinds {
			args = append(args, "--retry-sleep", kind+":"+secs)
		}
	}

	if cfg.ArchivePath != "" {
		args = append(args, "--download-archive", cfg.ArchivePath)
	}
	if cfg.NoPlaylist {
		args = append(args, "--no-playlist")
	} else {
		args = append(args, "--yes-playlist")
	}

	args = append(args, "--newline", "--progress-template", ProgressTemplate)

	for _, pp := range cfg.PostProcessors {
		if pp.Kind != domain.PostProcessorExtractAudio {
			continue
		}
		args = append(args, "-x", "--audio-format", pp.Codec)
		if pp.Quality != "" {
			args = append(args, "--audio-quality", pp.Quality)
		}
	}

	if len(cfg.PlayerClients) > 0 {
		args = append(args, "--extractor-args", "youtube:player_client="+strings.Join(cfg.PlayerClients, ","))
	}
	if cfg.FFmpegLocation != "" {
		args = append(args, "--ffmpeg-location", cfg.FFmpegLocation)
	}

	return append(args, "--", url)
}

// ClassifyLine assigns a log level to a yt-dlp output line
func ClassifyLine(line string, fromStderr bool) domain.LogLevel {
	switch {
	case strings.HasPrefix(line, "ERROR:"):
		return domain.LogError
	case strings.HasPrefix(line, "WARNING:"):
		return domain.LogWarning
	case strings.HasPrefix(line, "[debug]"):
		return domain.LogDebug
	case fromStderr:
		// tracebacks and other unprefixed stderr noise
		return domain.LogWarning
	default:
		return domain.LogInfo
	}
}

// ParseProgressLine parses a line printed by ProgressTemplate
func ParseProgressLine(line string) (domain.ProgressReport, bool) {
	if !strings.HasPrefix(line, ProgressPrefix) {
		return domain.ProgressReport{}, false
	}
	fields := strings.Fields(strings.TrimPrefix(line, ProgressPrefix))
	if len(fields) < 4 {
		return domain.ProgressReport{}, false
	}

	report := domain.ProgressReport{
		Status:             fields[0],
		DownloadedBytes:    parseBytes(fields[1]),
		TotalBytes:         parseBytes(fields[2]),
		TotalBytesEstimate: parseBytes(fields[3]),
	}
	if len(fields) > 4 && fields[4] != "NA" {
		report.Filename = fields[4]
	}
	return report, true
}

// parseBytes reads an integer or float byte count; "NA" and garbage are 0
func parseBytes(s string) int64 {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}
	return 0
}
