package domain

// ItemStatus is the per-item result reported by the tracker
type ItemStatus string

const (
	ItemSucceeded       ItemStatus = "succeeded"
	ItemSkippedExisting ItemStatus = "skipped_existing"
	ItemFailed          ItemStatus = "failed"
)

// UnknownTitle is used when no title can be recovered from the backend output
const UnknownTitle = "Unknown Title"

// ItemOutcome is the result for one element of a collection, or the single item
type ItemOutcome struct {
	ItemID      string     `json:"item_id"`
	Title       string     `json:"title"`
	Status      ItemStatus `json:"status"`
	ErrorDetail string     `json:"error_detail,omitempty"`
	SourceURL   string     `json:"source_url,omitempty"`
}

// OverallStatus is the terminal status of a session
type OverallStatus string

const (
	OverallSuccess        OverallStatus = "success"
	OverallPartialSuccess OverallStatus = "partial_success"
	OverallFailure        OverallStatus = "failure"
	OverallAborted        OverallStatus = "aborted"
)

// SummaryCode identifies which summary message describes an outcome.
// Display text is rendered from the code by a message catalog.
type SummaryCode string

const (
	SummaryComplete            SummaryCode = "complete"
	SummaryCompleteWithSkipped SummaryCode = "complete_with_skipped"
	SummaryCompleteWithErrors  SummaryCode = "complete_with_errors"
	SummaryPartial             SummaryCode = "partial"
	SummaryPartialWithErrors   SummaryCode = "partial_with_errors"
	SummaryAllFailed           SummaryCode = "all_failed"
	SummaryBackendError        SummaryCode = "backend_error"
	SummaryAborted             SummaryCode = "aborted"
)

// SessionOutcome is the terminal result handed back to the caller
type SessionOutcome struct {
	Status      OverallStatus `json:"status"`
	Code        SummaryCode   `json:"code"`
	Summary     string        `json:"summary"`
	Items       []ItemOutcome `json:"items"`
	Succeeded   int           `json:"succeeded"`
	Skipped     int           `json:"skipped"`
	Failed      int           `json:"failed"`
	Error       string        `json:"error,omitempty"`
	Diagnostics []string      `json:"diagnostics,omitempty"`
}

// SessionState is the orchestrator state machine position
type SessionState string

const (
	StateIdle      SessionState = "idle"
	StateRunning   SessionState = "running"
	StateCompleted SessionState = "completed"
	StateFailed    SessionState = "failed"
	StateAborting  SessionState = "aborting"
	StateAborted   SessionState = "aborted"
)

// IsTerminal reports whether no further transitions are possible
func (s SessionState) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateAborted
}
