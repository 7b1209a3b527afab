package domain

import "time"

// EventKind tags the payload of an Event
type EventKind string

const (
	EventStatus   EventKind = "status"
	EventProgress EventKind = "progress"
	EventLog      EventKind = "log"
	EventTerminal EventKind = "terminal"
)

// StatusCode is a semantic status update; front ends render the text
type StatusCode string

const (
	StatusStarting  StatusCode = "starting"
	StatusAborting  StatusCode = "aborting"
	StatusItemDone  StatusCode = "item_done"
	StatusFinishing StatusCode = "finishing"
)

// Event is published by a running session on its notification channel
type Event struct {
	Kind      EventKind       `json:"kind"`
	Time      time.Time       `json:"time"`
	Status    StatusCode      `json:"status,omitempty"`
	Percent   int             `json:"percent,omitempty"`
	Filename  string          `json:"filename,omitempty"`
	Level     LogLevel        `json:"level,omitempty"`
	Text      string          `json:"text,omitempty"`
	Outcome   *SessionOutcome `json:"outcome,omitempty"`
	SessionID string          `json:"session_id,omitempty"`
}

// NewStatusEvent builds a status event
func NewStatusEvent(code StatusCode) Event {
	return Event{Kind: EventStatus, Time: time.Now(), Status: code}
}

// NewProgressEvent builds a progress event
func NewProgressEvent(percent int, filename string) Event {
	return Event{Kind: EventProgress, Time: time.Now(), Percent: percent, Filename: filename}
}

// NewLogEvent builds a log line event
func NewLogEvent(level LogLevel, text string) Event {
	return Event{Kind: EventLog, Time: time.Now(), Level: level, Text: text}
}

// NewTerminalEvent builds the final event of a session
func NewTerminalEvent(outcome SessionOutcome) Event {
	return Event{Kind: EventTerminal, Time: time.Now(), Outcome: &outcome}
}
