package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/yourusername/vidfetch-go/internal/domain"
	"github.com/yourusername/vidfetch-go/internal/format"
	"github.com/yourusername/vidfetch-go/internal/tracker"
)

// MessageCatalog renders display text for a semantic outcome code
type MessageCatalog interface {
	Summary(outcome domain.SessionOutcome) string
}

// LineObserver receives every raw backend output line
type LineObserver func(level domain.LogLevel, line string)

const defaultEventBuffer = 64

// Orchestrator owns a single download session. It is not reusable: Start may
// be called once.
type Orchestrator struct {
	backend  domain.Backend
	logger   *zap.Logger
	catalog  MessageCatalog
	settings domain.DownloadConfig
	buffer   int
	observer LineObserver

	mu        sync.Mutex
	sessionID string
	state     domain.SessionState
	request   domain.DownloadRequest
	tracker   *tracker.Tracker
	events    chan domain.Event
	done      chan struct{}
	outcome   domain.SessionOutcome

	aborted   atomic.Bool
	abortOnce sync.Once

	progressMu   sync.Mutex
	progressFile string
	lastPercent  int
}

// OrchestratorOption configures an Orchestrator
type OrchestratorOption func(*Orchestrator)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithCatalog sets the catalog used to render outcome summaries
func WithCatalog(catalog MessageCatalog) OrchestratorOption {
	return func(o *Orchestrator) {
		if catalog != nil {
			o.catalog = catalog
		}
	}
}

// WithDownloadConfig applies retry, client and archive settings
func WithDownloadConfig(cfg *domain.DownloadConfig) OrchestratorOption {
	return func(o *Orchestrator) {
		if cfg != nil {
			o.settings = *cfg
		}
	}
}

// WithSessionID stamps every published event with id
func WithSessionID(id string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.sessionID = id
	}
}

// WithEventBuffer sets the notification channel capacity
func WithEventBuffer(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.buffer = n
		}
	}
}

// WithLineObserver registers a sink for raw backend output
func WithLineObserver(fn LineObserver) OrchestratorOption {
	return func(o *Orchestrator) {
		o.observer = fn
	}
}

// NewOrchestrator creates an idle orchestrator around backend
func NewOrchestrator(backend domain.Backend, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		backend:     backend,
		logger:      zap.NewNop(),
		catalog:     codeCatalog{},
		settings:    domain.DefaultConfig().Download,
		buffer:      defaultEventBuffer,
		state:       domain.StateIdle,
		tracker:     tracker.New(),
		done:        make(chan struct{}),
		lastPercent: -1,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Plan validates req and derives the backend configuration without running
// anything.
func (o *Orchestrator) Plan(req domain.DownloadRequest) (*domain.BackendConfiguration, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	quality := format.Canonicalize(string(req.Quality))
	selector, postProcessors := format.Resolve(req.Container, quality)

	archiveName := o.settings.ArchiveFileName
	if archiveName == "" {
		archiveName = domain.DefaultArchiveFileName
	}

	return &domain.BackendConfiguration{
		FormatSelector:   selector,
		PostProcessors:   postProcessors,
		OutputTemplate:   OutputTemplate(req.DestinationDir, req.Container, quality),
		ArchivePath:      filepath.Join(req.DestinationDir, archiveName),
		NoPlaylist:       !req.TreatAsCollection,
		Retry:            o.settings.RetryPolicy(),
		ContinuePartial:  true,
		NoOverwrites:     true,
		NoPostOverwrites: true,
		IgnoreErrors:     true,
		PlayerClients:    append([]string(nil), o.settings.PlayerClients...),
		FFmpegLocation:   o.settings.FFmpegLocation,
	}, nil
}

// OutputTemplate builds the backend output path pattern. Video files carry a
// quality suffix; audio files are distinguished by post-processing only.
func OutputTemplate(dir string, container domain.Container, quality domain.Quality) string {
	if container.IsAudio() {
		return filepath.Join(dir, "%(title)s [%(id)s].%(ext)s")
	}
	if !isVideoQuality(quality) {
		quality = domain.QualityBest
	}
	return filepath.Join(dir, fmt.Sprintf("%%(title)s [%%(id)s]-%s.%%(ext)s", quality.FileSuffix()))
}

func isVideoQuality(q domain.Quality) bool {
	for _, v := range domain.VideoQualities {
		if v == q {
			return true
		}
	}
	return false
}

// Start begins the session and returns its notification channel. The channel
// delivers events in order, ends with exactly one terminal event and is then
// closed; the caller must drain it.
func (o *Orchestrator) Start(ctx context.Context, req domain.DownloadRequest) (<-chan domain.Event, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != domain.StateIdle {
		return nil, domain.ErrAlreadyStarted
	}

	cfg, err := o.Plan(req)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(req.DestinationDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create destination directory: %w", err)
	}

	o.request = req
	o.events = make(chan domain.Event, o.buffer)
	o.state = domain.StateRunning

	o.logger.Info("Starting session",
		zap.String("session_id", o.sessionID),
		zap.String("url", req.SourceURL),
		zap.String("container", string(req.Container)),
		zap.String("quality", string(req.Quality)),
		zap.Bool("collection", req.TreatAsCollection),
		zap.String("format", cfg.FormatSelector),
		zap.String("backend", o.backend.Name()))

	go o.run(ctx, req.SourceURL, cfg)

	return o.events, nil
}

// RequestAbort asks a running session to stop. The backend observes it at its
// next progress or log callback. It is a no-op in any other state.
func (o *Orchestrator) RequestAbort() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != domain.StateRunning {
		return
	}
	o.state = domain.StateAborting
	o.aborted.Store(true)
	o.logger.Info("Abort requested", zap.String("session_id", o.sessionID))
}

// Wait blocks until the session reaches a terminal state and returns its
// outcome. It returns immediately with a zero outcome if Start was never
// called.
func (o *Orchestrator) Wait() domain.SessionOutcome {
	o.mu.Lock()
	idle := o.state == domain.StateIdle
	o.mu.Unlock()
	if idle {
		return domain.SessionOutcome{}
	}

	<-o.done
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.outcome
}

// State returns the current state machine position
func (o *Orchestrator) State() domain.SessionState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Request returns the request the session was started with
func (o *Orchestrator) Request() domain.DownloadRequest {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.request
}

// Tracker exposes live item classification
func (o *Orchestrator) Tracker() *tracker.Tracker {
	return o.tracker
}

func (o *Orchestrator) run(ctx context.Context, url string, cfg *domain.BackendConfiguration) {
	defer close(o.done)
	defer close(o.events)

	o.publish(domain.NewStatusEvent(domain.StatusStarting))
	o.publish(domain.NewProgressEvent(0, ""))

	hooks := domain.BackendHooks{
		Progress: func(p domain.ProgressReport) error {
			if err := o.checkAbort(ctx); err != nil {
				return err
			}
			o.relayProgress(p)
			return nil
		},
		Log: func(level domain.LogLevel, line string) error {
			// classify first so an item completed before the abort is kept
			o.tracker.Handle(level, line)
			if o.observer != nil {
				o.observer(level, line)
			}
			// benign advisories stay in the raw backend log only
			if level != domain.LogWarning || !tracker.IsBenignWarning(line) {
				o.offer(domain.NewLogEvent(level, line))
			}
			return o.checkAbort(ctx)
		},
	}

	err := o.backend.Run(ctx, url, cfg, hooks)
	aborted := o.aborted.Load() || ctx.Err() != nil || errors.Is(err, domain.ErrAborted)

	if !aborted {
		o.publish(domain.NewStatusEvent(domain.StatusFinishing))
	}

	outcome := Reduce(o.tracker.Items(), o.tracker.Diagnostics(), err, aborted)
	outcome.Summary = o.catalog.Summary(outcome)

	o.mu.Lock()
	o.outcome = outcome
	switch {
	case aborted:
		o.state = domain.StateAborted
	case outcome.Status == domain.OverallFailure:
		o.state = domain.StateFailed
	default:
		o.state = domain.StateCompleted
	}
	o.mu.Unlock()

	fields := []zap.Field{
		zap.String("session_id", o.sessionID),
		zap.String("status", string(outcome.Status)),
		zap.Int("succeeded", outcome.Succeeded),
		zap.Int("skipped", outcome.Skipped),
		zap.Int("failed", outcome.Failed),
		zap.Int("suppressed_warnings", o.tracker.SuppressedWarnings()),
	}
	if err != nil && !aborted {
		fields = append(fields, zap.Error(err))
	}
	o.logger.Info("Session finished", fields...)

	o.publish(domain.NewTerminalEvent(outcome))
}

// checkAbort returns ErrAborted once an abort was requested or ctx is done
func (o *Orchestrator) checkAbort(ctx context.Context) error {
	if !o.aborted.Load() && ctx.Err() == nil {
		return nil
	}
	o.abortOnce.Do(func() {
		o.mu.Lock()
		o.aborted.Store(true)
		if o.state == domain.StateRunning {
			o.state = domain.StateAborting
		}
		o.mu.Unlock()
		o.publish(domain.NewStatusEvent(domain.StatusAborting))
	})
	return domain.ErrAborted
}

// relayProgress publishes a monotonic percentage for the current item
func (o *Orchestrator) relayProgress(p domain.ProgressReport) {
	o.progressMu.Lock()
	defer o.progressMu.Unlock()

	if p.Filename != o.progressFile {
		o.progressFile = p.Filename
		o.lastPercent = -1
	}

	if p.Status == domain.ProgressFinished {
		if o.lastPercent < 100 {
			o.offer(domain.NewProgressEvent(100, p.Filename))
		}
		o.publish(domain.NewStatusEvent(domain.StatusItemDone))
		o.progressFile = ""
		o.lastPercent = -1
		return
	}

	percent, ok := Percent(p)
	if !ok || percent <= o.lastPercent {
		return
	}
	o.lastPercent = percent
	o.offer(domain.NewProgressEvent(percent, p.Filename))
}

// Percent computes completion from a progress report, preferring the exact
// total over the estimate
func Percent(p domain.ProgressReport) (int, bool) {
	total := p.TotalBytes
	if total <= 0 {
		total = p.TotalBytesEstimate
	}
	if total <= 0 || p.DownloadedBytes < 0 {
		return 0, false
	}
	percent := int(p.DownloadedBytes * 100 / total)
	if percent > 100 {
		percent = 100
	}
	return percent, true
}

// publish delivers an event, blocking until the consumer has room
func (o *Orchestrator) publish(ev domain.Event) {
	ev.SessionID = o.sessionID
	o.events <- ev
}

// offer delivers a best-effort event, dropping it when the consumer lags
func (o *Orchestrator) offer(ev domain.Event) {
	ev.SessionID = o.sessionID
	select {
	case o.events <- ev:
	default:
	}
}

// Reduce folds tracked items and the backend result into a session outcome.
// Summary text is left to the caller's catalog.
func Reduce(items []domain.ItemOutcome, diagnostics []string, backendErr error, aborted bool) domain.SessionOutcome {
	var failures []domain.ItemOutcome
	outcome := domain.SessionOutcome{
		Items:       []domain.ItemOutcome{},
		Diagnostics: diagnostics,
	}
	for _, item := range items {
		switch item.Status {
		case domain.ItemSucceeded:
			outcome.Succeeded++
		case domain.ItemSkippedExisting:
			outcome.Skipped++
		case domain.ItemFailed:
			outcome.Failed++
			failures = append(failures, item)
		}
	}

	if aborted {
		outcome.Status = domain.OverallAborted
		outcome.Code = domain.SummaryAborted
		outcome.Items = append(outcome.Items, items...)
		return outcome
	}

	// unattributed errors are reported even when the table says success
	if len(diagnostics) > 0 {
		outcome.Error = diagnostics[0]
	} else if backendErr != nil {
		outcome.Error = backendErr.Error()
	}

	classified := len(items) > 0
	switch {
	case !classified && outcome.Error != "":
		outcome.Status = domain.OverallFailure
		outcome.Code = domain.SummaryBackendError
	case outcome.Failed == 0 && outcome.Skipped == 0:
		outcome.Status = domain.OverallSuccess
		outcome.Code = domain.SummaryComplete
	case outcome.Failed == 0:
		outcome.Status = domain.OverallSuccess
		outcome.Code = domain.SummaryCompleteWithSkipped
	case outcome.Succeeded > 0 || outcome.Skipped > 0:
		outcome.Status = domain.OverallPartialSuccess
		outcome.Code = domain.SummaryPartial
		outcome.Items = failures
	default:
		outcome.Status = domain.OverallFailure
		outcome.Code = domain.SummaryAllFailed
		outcome.Items = failures
	}

	// a non-zero exit is explained by failed items; diagnostics never are
	unexplained := len(diagnostics) > 0 || (backendErr != nil && outcome.Failed == 0)
	if classified && unexplained {
		switch outcome.Code {
		case domain.SummaryComplete, domain.SummaryCompleteWithSkipped:
			outcome.Code = domain.SummaryCompleteWithErrors
		case domain.SummaryPartial:
			outcome.Code = domain.SummaryPartialWithErrors
		}
	}
	return outcome
}

// codeCatalog renders the bare summary code when no catalog is configured
type codeCatalog struct{}

func (codeCatalog) Summary(outcome domain.SessionOutcome) string {
	return string(outcome.Code)
}
