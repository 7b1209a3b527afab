package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/yourusername/vidfetch-go/internal/domain"
	"github.com/yourusername/vidfetch-go/internal/infrastructure"
	"github.com/yourusername/vidfetch-go/pkg/logger"
)

const (
	defaultProgressInterval = 250 * time.Millisecond
	snapshotRetention       = 10 * time.Minute
	subscriberBuffer        = 32
)

var activeStatuses = []domain.SessionStatus{domain.SessionQueued, domain.SessionRunning}

// ProgressSnapshot is the latest known state of a session, kept while it runs
// and for a while after it finished
type ProgressSnapshot struct {
	SessionID string              `json:"session_id"`
	State     domain.SessionState `json:"state"`
	Status    domain.StatusCode   `json:"status,omitempty"`
	Percent   int                 `json:"percent"`
	Filename  string              `json:"filename,omitempty"`
	ItemsDone int                 `json:"items_done"`
	Succeeded int                 `json:"succeeded"`
	Skipped   int                 `json:"skipped"`
	Failed    int                 `json:"failed"`
	Summary   string              `json:"summary,omitempty"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// activeSession is a session running in this process
type activeSession struct {
	orchestrator *Orchestrator
	limiter      *rate.Limiter
	snapshot     ProgressSnapshot
	subscribers  map[int]chan domain.Event
}

// SessionManager runs persisted sessions through orchestrators and keeps
// their records and live progress current
type SessionManager struct {
	repo        domain.SessionRepository
	backend     domain.Backend
	notifier    *infrastructure.NotificationService
	config      *domain.DownloadConfig
	catalog     MessageCatalog
	multiLogger *logger.MultiLogger
	logger      *zap.Logger

	semaphore        chan struct{}
	progress         *cache.Cache
	progressInterval time.Duration

	mu      sync.Mutex
	active  map[string]*activeSession
	nextSub int
}

// NewSessionManager creates a new session manager. ConcurrentLimit bounds how
// many sessions run at once.
func NewSessionManager(
	repo domain.SessionRepository,
	backend domain.Backend,
	notifier *infrastructure.NotificationService,
	config *domain.DownloadConfig,
	catalog MessageCatalog,
	multiLogger *logger.MultiLogger,
	zapLogger *zap.Logger,
) *SessionManager {
	if config == nil {
		config = &domain.DefaultConfig().Download
	}
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	if catalog == nil {
		catalog = codeCatalog{}
	}

	limit := config.ConcurrentLimit
	if limit < 1 {
		limit = 1
	}

	return &SessionManager{
		repo:             repo,
		backend:          backend,
		notifier:         notifier,
		config:           config,
		catalog:          catalog,
		multiLogger:      multiLogger,
		logger:           zapLogger,
		semaphore:        make(chan struct{}, limit),
		progress:         cache.New(snapshotRetention, time.Minute),
		progressInterval: defaultProgressInterval,
		active:           make(map[string]*activeSession),
	}
}

// Submit validates req and queues a new session for it. If a session for the
// same URL is already queued or running it is returned with ErrSessionActive.
func (m *SessionManager) Submit(req domain.DownloadRequest) (*domain.Session, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := m.repo.FindByURL(req.SourceURL, activeStatuses)
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	if existing != nil {
		return existing, fmt.Errorf("%w: %s", domain.ErrSessionActive, existing.ID)
	}

	session := domain.NewSession(req)
	if err := m.repo.Create(session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	m.logSessionEvent("session_queued", session)
	m.notifier.NotifySessionQueued(session)
	return session, nil
}

// Inspect returns the backend configuration a request would run with
func (m *SessionManager) Inspect(req domain.DownloadRequest) (*domain.BackendConfiguration, error) {
	return NewOrchestrator(m.backend, WithDownloadConfig(m.config)).Plan(req)
}

// Process runs a queued session to completion. It waits for a free slot,
// skips sessions that left the queue meanwhile and returns the updated
// record. Download failures are recorded on the session, not returned.
func (m *SessionManager) Process(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	select {
	case m.semaphore <- struct{}{}:
		defer func() { <-m.semaphore }()
	case <-ctx.Done():
		return session, ctx.Err()
	}

	orch := NewOrchestrator(m.backend,
		WithLogger(m.logger),
		WithCatalog(m.catalog),
		WithDownloadConfig(m.config),
		WithSessionID(session.ID),
		WithLineObserver(func(level domain.LogLevel, line string) {
			if m.multiLogger != nil {
				m.multiLogger.LogBackendLine(session.ID, string(level), line)
			}
		}))

	current, entry, err := m.claim(session.ID, orch)
	if err != nil || entry == nil {
		return current, err
	}
	defer m.release(current.ID)

	m.logSessionEvent("session_started", current)
	m.notifier.NotifySessionStarted(current)

	var outcome domain.SessionOutcome
	events, err := orch.Start(ctx, current.Request())
	if err != nil {
		outcome = domain.SessionOutcome{
			Status: domain.OverallFailure,
			Code:   domain.SummaryBackendError,
			Error:  err.Error(),
			Items:  []domain.ItemOutcome{},
		}
		outcome.Summary = m.catalog.Summary(outcome)
	} else {
		for ev := range events {
			m.record(current.ID, ev)
		}
		outcome = orch.Wait()
	}

	current.MarkFinished(outcome)
	if err := m.repo.Update(current); err != nil {
		if m.multiLogger != nil {
			m.multiLogger.LogAppError("Failed to save session outcome",
				zap.String("session_id", current.ID),
				zap.Error(err))
		}
		return current, fmt.Errorf("failed to update session: %w", err)
	}

	m.logSessionEvent("session_finished", current,
		zap.String("summary_code", string(current.SummaryCode)),
		zap.Int("succeeded", current.Succeeded),
		zap.Int("skipped", current.Skipped),
		zap.Int("failed", current.Failed))
	m.notifier.NotifySessionFinished(current)
	return current, nil
}

// claim reloads the session and marks it running. It returns a nil entry
// when the session is no longer queued.
func (m *SessionManager) claim(id string, orch *Orchestrator) (*domain.Session, *activeSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, err := m.repo.FindByID(id)
	if err != nil {
		return nil, nil, err
	}
	if current.Status != domain.SessionQueued {
		m.logger.Debug("Skipping session that left the queue",
			zap.String("session_id", id),
			zap.String("status", string(current.Status)))
		return current, nil, nil
	}

	current.MarkRunning()
	if err := m.repo.Update(current); err != nil {
		return current, nil, fmt.Errorf("failed to update session status: %w", err)
	}

	entry := &activeSession{
		orchestrator: orch,
		limiter:      rate.NewLimiter(rate.Every(m.progressInterval), 1),
		snapshot: ProgressSnapshot{
			SessionID: id,
			State:     domain.StateRunning,
			UpdatedAt: time.Now(),
		},
		subscribers: make(map[int]chan domain.Event),
	}
	m.active[id] = entry
	m.progress.Set(id, entry.snapshot, cache.NoExpiration)
	return current, entry, nil
}

// release closes subscriber channels and keeps the final snapshot around
func (m *SessionManager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.active[id]
	if !ok {
		return
	}
	delete(m.active, id)
	for _, ch := range entry.subscribers {
		close(ch)
	}
	entry.subscribers = map[int]chan domain.Event{}
	m.progress.Set(id, entry.snapshot, cache.DefaultExpiration)
}

// record folds an event into the snapshot and fans it out. Progress events
// are throttled; every other kind is always delivered.
func (m *SessionManager) record(id string, ev domain.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.active[id]
	if !ok {
		return
	}

	snap := &entry.snapshot
	switch ev.Kind {
	case domain.EventProgress:
		if ev.Percent < 100 && !entry.limiter.Allow() {
			return
		}
		snap.Percent = ev.Percent
		snap.Filename = ev.Filename
	case domain.EventStatus:
		snap.Status = ev.Status
		if ev.Status == domain.StatusItemDone {
			snap.ItemsDone++
			snap.Percent = 100
		}
	case domain.EventLog:
		// log lines go to subscribers only
	case domain.EventTerminal:
		if ev.Outcome != nil {
			snap.Succeeded = ev.Outcome.Succeeded
			snap.Skipped = ev.Outcome.Skipped
			snap.Failed = ev.Outcome.Failed
			snap.Summary = ev.Outcome.Summary
		}
	}

	if ev.Kind != domain.EventLog {
		counts := entry.orchestrator.Tracker().Counts()
		if ev.Kind != domain.EventTerminal {
			snap.Succeeded, snap.Skipped, snap.Failed = counts.Succeeded, counts.Skipped, counts.Failed
		}
		snap.State = entry.orchestrator.State()
		snap.UpdatedAt = ev.Time
		m.progress.Set(id, *snap, cache.NoExpiration)
	}

	for _, ch := range entry.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Cancel stops a session. A queued session is marked cancelled; a running one
// is asked to abort and finishes as aborted.
func (m *SessionManager) Cancel(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, ok := m.active[id]; ok {
		entry.orchestrator.RequestAbort()
		m.logger.Info("Session abort requested", zap.String("session_id", id))
		return nil
	}

	session, err := m.repo.FindByID(id)
	if err != nil {
		return err
	}
	if session.Status != domain.SessionQueued {
		return fmt.Errorf("%w: %s", domain.ErrSessionTerminal, session.Status)
	}

	session.MarkCancelled()
	if err := m.repo.Update(session); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	m.logSessionEvent("session_cancelled", session)
	return nil
}

// Retry puts a session that did not fully succeed back into the queue
func (m *SessionManager) Retry(id string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, err := m.repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if !session.CanRetry() {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotRetryable, session.Status)
	}

	session.ResetForRetry()
	if err := m.repo.Update(session); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}
	m.progress.Delete(id)
	m.logSessionEvent("session_requeued", session)
	return session, nil
}

// Delete removes a session that is not running in this process
func (m *SessionManager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.active[id]; ok {
		return fmt.Errorf("%w: %s", domain.ErrSessionActive, id)
	}
	if err := m.repo.Delete(id); err != nil {
		return err
	}
	m.progress.Delete(id)
	return nil
}

// Get returns a session with its items
func (m *SessionManager) Get(id string) (*domain.Session, error) {
	return m.repo.FindByID(id)
}

// List returns sessions matching filters
func (m *SessionManager) List(filters map[string]interface{}) ([]*domain.Session, error) {
	return m.repo.FindAll(filters)
}

// Stats returns session counts by status
func (m *SessionManager) Stats() (*domain.SessionStats, error) {
	return m.repo.GetStats()
}

// Progress returns the latest snapshot of a running or recently finished session
func (m *SessionManager) Progress(id string) (ProgressSnapshot, bool) {
	v, ok := m.progress.Get(id)
	if !ok {
		return ProgressSnapshot{}, false
	}
	return v.(ProgressSnapshot), true
}

// Subscribe streams the events of a session running in this process. The
// channel is closed when the session ends or unsubscribe is called. Slow
// subscribers miss events rather than stall the session.
func (m *SessionManager) Subscribe(id string) (<-chan domain.Event, func(), bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.active[id]
	if !ok {
		return nil, func() {}, false
	}

	m.nextSub++
	key := m.nextSub
	ch := make(chan domain.Event, subscriberBuffer)
	entry.subscribers[key] = ch

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if sub, ok := entry.subscribers[key]; ok {
				delete(entry.subscribers, key)
				close(sub)
			}
		})
	}
	return ch, unsubscribe, true
}

// AbortAll asks every running session to stop
func (m *SessionManager) AbortAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, entry := range m.active {
		entry.orchestrator.RequestAbort()
	}
}

// ActiveCount returns how many sessions are running in this process
func (m *SessionManager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}

func (m *SessionManager) logSessionEvent(event string, session *domain.Session, fields ...zap.Field) {
	if m.multiLogger == nil {
		return
	}
	base := []zap.Field{
		zap.String("session_id", session.ID),
		zap.String("url", session.URL),
		zap.String("container", string(session.Container)),
		zap.String("status", string(session.Status)),
	}
	m.multiLogger.LogSessionEvent(event, append(base, fields...)...)
}
