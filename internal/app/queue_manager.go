package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/vidfetch-go/internal/domain"
	"github.com/yourusername/vidfetch-go/pkg/logger"
)

// QueueManager polls the repository for queued sessions and hands them to the
// session manager
type QueueManager struct {
	repo        domain.SessionRepository
	sessionMgr  *SessionManager
	config      *domain.QueueConfig
	multiLogger *logger.MultiLogger
	notifyEmpty func()

	mu       sync.RWMutex
	running  bool
	stopChan chan struct{}
	workerWg sync.WaitGroup
	inFlight map[string]struct{}
}

// NewQueueManager creates a new queue manager
func NewQueueManager(
	repo domain.SessionRepository,
	sessionMgr *SessionManager,
	config *domain.QueueConfig,
	multiLogger *logger.MultiLogger,
) *QueueManager {
	qm := &QueueManager{
		repo:        repo,
		sessionMgr:  sessionMgr,
		config:      config,
		multiLogger: multiLogger,
		inFlight:    make(map[string]struct{}),
	}
	if sessionMgr != nil {
		qm.notifyEmpty = sessionMgr.notifier.NotifyQueueEmpty
	}
	return qm
}

// Start starts the queue processor. It returns once the processor goroutine
// is running; Done reports when it exits.
func (qm *QueueManager) Start(ctx context.Context) error {
	qm.mu.Lock()
	if qm.running {
		qm.mu.Unlock()
		return fmt.Errorf("queue manager already running")
	}
	qm.running = true
	qm.stopChan = make(chan struct{})
	qm.mu.Unlock()

	qm.logQueueEvent("queue_started")

	qm.workerWg.Add(1)
	go qm.processQueue(ctx, qm.stopChan)

	return nil
}

// Stop stops the queue processor and waits for running sessions to finish
func (qm *QueueManager) Stop() error {
	qm.mu.Lock()
	if !qm.running {
		qm.mu.Unlock()
		return fmt.Errorf("queue manager not running")
	}
	qm.running = false
	close(qm.stopChan)
	qm.mu.Unlock()

	qm.logQueueEvent("queue_stopped")
	qm.workerWg.Wait()

	return nil
}

// Wait blocks until the processor and its sessions have exited
func (qm *QueueManager) Wait() {
	qm.workerWg.Wait()
}

// IsRunning returns whether the queue manager is running
func (qm *QueueManager) IsRunning() bool {
	qm.mu.RLock()
	defer qm.mu.RUnlock()
	return qm.running
}

// Submit queues a request
func (qm *QueueManager) Submit(req domain.DownloadRequest) (*domain.Session, error) {
	return qm.sessionMgr.Submit(req)
}

// processQueue dispatches queued sessions on every tick until stopped
func (qm *QueueManager) processQueue(ctx context.Context, stop <-chan struct{}) {
	defer qm.workerWg.Done()

	ticker := time.NewTicker(qm.config.CheckInterval)
	defer ticker.Stop()

	var emptySince time.Time
	for {
		if qm.dispatch(ctx) > 0 || qm.busy() {
			emptySince = time.Time{}
		} else if emptySince.IsZero() {
			emptySince = time.Now()
			qm.logQueueEvent("queue_empty")
			if qm.notifyEmpty != nil {
				qm.notifyEmpty()
			}
		} else if qm.config.AutoExitOnEmpty && time.Since(emptySince) > qm.config.EmptyWaitTime {
			qm.logQueueEvent("queue_auto_exit", zap.String("reason", "empty_timeout"))
			qm.mu.Lock()
			qm.running = false
			qm.mu.Unlock()
			return
		}

		select {
		case <-ctx.Done():
			qm.logQueueEvent("queue_processor_stopped", zap.String("reason", "context_cancelled"))
			return
		case <-stop:
			qm.logQueueEvent("queue_processor_stopped", zap.String("reason", "stop_signal"))
			return
		case <-ticker.C:
		}
	}
}

// dispatch starts a worker for every queued session not already handed out
// and returns how many were started
func (qm *QueueManager) dispatch(ctx context.Context) int {
	pending, err := qm.repo.FindPending()
	if err != nil {
		if qm.multiLogger != nil {
			qm.multiLogger.LogAppError("Failed to fetch pending sessions", zap.Error(err))
		}
		return 0
	}

	started := 0
	for _, session := range pending {
		if !qm.claim(session.ID) {
			continue
		}
		started++

		qm.logQueueEvent("session_dispatched",
			zap.String("session_id", session.ID),
			zap.String("url", session.URL))

		// the session manager's semaphore bounds how many actually run
		qm.workerWg.Add(1)
		go func(s *domain.Session) {
			defer qm.workerWg.Done()
			defer qm.unclaim(s.ID)
			qm.runSession(ctx, s)
		}(session)
	}
	return started
}

func (qm *QueueManager) runSession(ctx context.Context, session *domain.Session) {
	done, err := qm.sessionMgr.Process(ctx, session)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		qm.logQueueEvent("session_error",
			zap.String("session_id", session.ID),
			zap.Error(err))
		if qm.multiLogger != nil {
			qm.multiLogger.LogAppError("Failed to process session",
				zap.String("session_id", session.ID),
				zap.Error(err))
		}
		return
	}

	qm.logQueueEvent("session_completed",
		zap.String("session_id", done.ID),
		zap.String("status", string(done.Status)),
		zap.String("summary", done.Summary))
}

func (qm *QueueManager) claim(id string) bool {
	qm.mu.Lock()
	defer qm.mu.Unlock()
	if _, ok := qm.inFlight[id]; ok {
		return false
	}
	qm.inFlight[id] = struct{}{}
	return true
}

func (qm *QueueManager) unclaim(id string) {
	qm.mu.Lock()
	defer qm.mu.Unlock()
	delete(qm.inFlight, id)
}

func (qm *QueueManager) busy() bool {
	qm.mu.RLock()
	defer qm.mu.RUnlock()
	return len(qm.inFlight) > 0
}

func (qm *QueueManager) logQueueEvent(event string, fields ...zap.Field) {
	if qm.multiLogger != nil {
		qm.multiLogger.LogQueueEvent(event, fields...)
	}
}
