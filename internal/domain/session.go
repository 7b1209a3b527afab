package domain

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus represents the persisted status of a session
type SessionStatus string

const (
	SessionQueued         SessionStatus = "queued"
	SessionRunning        SessionStatus = "running"
	SessionSuccess        SessionStatus = "success"
	SessionPartialSuccess SessionStatus = "partial_success"
	SessionFailure        SessionStatus = "failure"
	SessionAborted        SessionStatus = "aborted"
	SessionCancelled      SessionStatus = "cancelled" // cancelled before it started
)

// Session is the persisted record of one download session
type Session struct {
	ID                string        `json:"id" gorm:"primaryKey"`
	URL               string        `json:"url" gorm:"not null"`
	Container         Container     `json:"container" gorm:"not null"`
	Quality           Quality       `json:"quality"`
	TreatAsCollection bool          `json:"treat_as_collection"`
	DestinationDir    string        `json:"destination_dir" gorm:"not null"`
	Status            SessionStatus `json:"status" gorm:"not null;index"`
	Priority          int           `json:"priority" gorm:"default:0;index"`
	SummaryCode       SummaryCode   `json:"summary_code,omitempty"`
	Summary           string        `json:"summary,omitempty"`
	ErrorMessage      string        `json:"error_message,omitempty"`
	Succeeded         int           `json:"succeeded"`
	Skipped           int           `json:"skipped"`
	Failed            int           `json:"failed"`
	Items             []SessionItem `json:"items,omitempty" gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
	StartedAt         *time.Time    `json:"started_at,omitempty"`
	CompletedAt       *time.Time    `json:"completed_at,omitempty"`
}

// SessionItem is a persisted ItemOutcome
type SessionItem struct {
	ID          uint       `json:"-" gorm:"primaryKey;autoIncrement"`
	SessionID   string     `json:"-" gorm:"index;not null"`
	ItemID      string     `json:"item_id"`
	Title       string     `json:"title"`
	Status      ItemStatus `json:"status"`
	ErrorDetail string     `json:"error_detail,omitempty"`
	SourceURL   string     `json:"source_url,omitempty"`
}

// NewSession creates a queued session for a request
func NewSession(req DownloadRequest) *Session {
	now := time.Now()
	return &Session{
		ID:                uuid.New().String(),
		URL:               req.SourceURL,
		Container:         req.Container,
		Quality:           req.Quality,
		TreatAsCollection: req.TreatAsCollection,
		DestinationDir:    req.DestinationDir,
		Status:            SessionQueued,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Request rebuilds the download request the session was created from
func (s *Session) Request() DownloadRequest {
	return DownloadRequest{
		SourceURL:         s.URL,
		Container:         s.Container,
		Quality:           s.Quality,
		TreatAsCollection: s.TreatAsCollection,
		DestinationDir:    s.DestinationDir,
	}
}

// MarkRunning marks the session as running
func (s *Session) MarkRunning() {
	s.Status = SessionRunning
	now := time.Now()
	s.StartedAt = &now
	s.UpdatedAt = now
}

// MarkFinished records the terminal outcome
func (s *Session) MarkFinished(outcome SessionOutcome) {
	s.Status = sessionStatusFor(outcome.Status)
	s.SummaryCode = outcome.Code
	s.Summary = outcome.Summary
	s.ErrorMessage = outcome.Error
	s.Succeeded = outcome.Succeeded
	s.Skipped = outcome.Skipped
	s.Failed = outcome.Failed
	s.Items = make([]SessionItem, 0, len(outcome.Items))
	for _, item := range outcome.Items {
		s.Items = append(s.Items, SessionItem{
			SessionID:   s.ID,
			ItemID:      item.ItemID,
			Title:       item.Title,
			Status:      item.Status,
			ErrorDetail: item.ErrorDetail,
			SourceURL:   item.SourceURL,
		})
	}
	now := time.Now()
	s.CompletedAt = &now
	s.UpdatedAt = now
}

// MarkCancelled marks a session that never started as cancelled
func (s *Session) MarkCancelled() {
	s.Status = SessionCancelled
	s.UpdatedAt = time.Now()
}

// ResetForRetry puts a finished session back into the queue
func (s *Session) ResetForRetry() {
	s.Status = SessionQueued
	s.SummaryCode = ""
	s.Summary = ""
	s.ErrorMessage = ""
	s.Succeeded, s.Skipped, s.Failed = 0, 0, 0
	s.Items = nil
	s.StartedAt = nil
	s.CompletedAt = nil
	s.UpdatedAt = time.Now()
}

// IsTerminal checks if the session is in a terminal state
func (s *Session) IsTerminal() bool {
	switch s.Status {
	case SessionQueued, SessionRunning:
		return false
	}
	return true
}

// CanRetry reports whether the session may be queued again
func (s *Session) CanRetry() bool {
	switch s.Status {
	case SessionPartialSuccess, SessionFailure, SessionAborted, SessionCancelled:
		return true
	}
	return false
}

func sessionStatusFor(status OverallStatus) SessionStatus {
	switch status {
	case OverallSuccess:
		return SessionSuccess
	case OverallPartialSuccess:
		return SessionPartialSuccess
	case OverallAborted:
		return SessionAborted
	}
	return SessionFailure
}
