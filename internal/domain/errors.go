package domain

import "errors"

var (
	// ErrEmptyURL is returned when a request carries no source URL
	ErrEmptyURL = errors.New("source url is empty")

	// ErrUnknownContainer is returned for containers other than mp4, webm, mp3 and wav
	ErrUnknownContainer = errors.New("unknown container")

	// ErrNoDestination is returned when a request has no destination directory
	ErrNoDestination = errors.New("destination directory not set")

	// ErrAborted is returned from backend hooks once an abort was requested
	ErrAborted = errors.New("download aborted")

	// ErrAlreadyStarted is returned when Start is called on a used orchestrator
	ErrAlreadyStarted = errors.New("session already started")

	// ErrSessionNotFound is returned by repositories and managers for unknown IDs
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionActive is returned when a session for the same URL is queued or
	// running, or when an active session would be deleted
	ErrSessionActive = errors.New("session is active")

	// ErrNotRetryable is returned by Retry for sessions that are queued, running or succeeded
	ErrNotRetryable = errors.New("session cannot be retried")

	// ErrSessionTerminal is returned when cancelling a finished session
	ErrSessionTerminal = errors.New("session already finished")
)
