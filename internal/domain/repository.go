package domain

// SessionRepository defines the interface for session persistence
type SessionRepository interface {
	// Create creates a new session
	Create(session *Session) error

	// Update updates an existing session, replacing its items
	Update(session *Session) error

	// Delete deletes a session and its items by ID
	Delete(id string) error

	// FindByID finds a session by ID, items included.
	// Returns ErrSessionNotFound if it does not exist.
	FindByID(id string) (*Session, error)

	// FindByURL finds the most recent session for url in one of statuses.
	// Returns nil, nil when none matches.
	FindByURL(url string, statuses []SessionStatus) (*Session, error)

	// FindPending finds queued sessions ordered by priority and creation time
	FindPending() ([]*Session, error)

	// FindAll finds all sessions with optional column filters
	FindAll(filters map[string]interface{}) ([]*Session, error)

	// GetStats returns session statistics
	GetStats() (*SessionStats, error)
}

// SessionStats represents session statistics
type SessionStats struct {
	Total          int64 `json:"total"`
	Queued         int64 `json:"queued"`
	Running        int64 `json:"running"`
	Success        int64 `json:"success"`
	PartialSuccess int64 `json:"partial_success"`
	Failure        int64 `json:"failure"`
	Aborted        int64 `json:"aborted"`
	Cancelled      int64 `json:"cancelled"`
}
