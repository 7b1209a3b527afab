// Package tracker classifies the free-text log stream of an extraction
// backend into per-item outcomes.
package tracker

import (
	"sync"

	"github.com/yourusername/vidfetch-go/internal/domain"
)

// Counts is a snapshot of per-status item totals
type Counts struct {
	Succeeded int
	Skipped   int
	Failed    int
}

// Total returns the number of classified items
func (c Counts) Total() int {
	return c.Succeeded + c.Skipped + c.Failed
}

// Tracker accumulates item outcomes for a single session. It is safe for
// concurrent use; the backend may emit stdout and stderr lines from separate
// goroutines.
type Tracker struct {
	mu sync.Mutex

	items  []domain.ItemOutcome
	byID   map[string]int
	titles map[string]string
	// identifier of the item the backend is currently working on
	current string

	warnings    []string
	suppressed  int
	unattrib    []string
	linesByType map[domain.LogLevel]int
}

// New creates an empty tracker
func New() *Tracker {
	return &Tracker{
		byID:        make(map[string]int),
		titles:      make(map[string]string),
		linesByType: make(map[domain.LogLevel]int),
	}
}

// Handle dispatches a line by level
func (t *Tracker) Handle(level domain.LogLevel, line string) {
	switch level {
	case domain.LogDebug:
		t.Debug(line)
	case domain.LogWarning:
		t.Warning(line)
	case domain.LogError:
		t.Error(line)
	default:
		t.Info(line)
	}
}

// Debug counts a debug line
func (t *Tracker) Debug(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.linesByType[domain.LogDebug]++
}

// Info classifies destination and skip lines
func (t *Tracker) Info(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.linesByType[domain.LogInfo]++

	id, found := ExtractID(line)
	if found && !IsDestinationLine(line) && !IsSkipLine(line) {
		// "[youtube] ID: Downloading webpage" and similar announce the next item
		if extractorIDPattern.MatchString(line) {
			t.current = id
		}
		return
	}
	if !found {
		id = t.current
	}

	switch {
	case IsSkipLine(line):
		if id == "" {
			return
		}
		t.record(id, t.titleFor(id, line), domain.ItemSkippedExisting, "")
	case IsDestinationLine(line):
		if id == "" {
			return
		}
		t.record(id, t.titleFor(id, line), domain.ItemSucceeded, "")
	}
}

// Warning retains a warning line, hiding known benign advisories
func (t *Tracker) Warning(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.linesByType[domain.LogWarning]++
	if IsBenignWarning(line) {
		t.suppressed++
		return
	}
	t.warnings = append(t.warnings, line)
}

// Error records a failed item when the line can be attributed to one,
// otherwise keeps it as an unattributed diagnostic
func (t *Tracker) Error(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.linesByType[domain.LogError]++

	id, found := ExtractID(line)
	if !found {
		t.unattrib = append(t.unattrib, line)
		return
	}
	title := t.titles[id]
	if title == "" {
		title = domain.UnknownTitle
	}
	t.record(id, title, domain.ItemFailed, line)
}

// record must be called with mu held. One record per identifier: a failure
// replaces an earlier success or skip since destination lines are printed
// before the write completes.
func (t *Tracker) record(id, title string, status domain.ItemStatus, detail string) {
	outcome := domain.ItemOutcome{
		ItemID:      id,
		Title:       title,
		Status:      status,
		ErrorDetail: detail,
		SourceURL:   ItemURL(id),
	}
	idx, seen := t.byID[id]
	if !seen {
		t.byID[id] = len(t.items)
		t.items = append(t.items, outcome)
		return
	}
	if status == domain.ItemFailed && t.items[idx].Status != domain.ItemFailed {
		t.items[idx] = outcome
	}
}

// titleFor must be called with mu held
func (t *Tracker) titleFor(id, line string) string {
	if title := ExtractTitle(line); title != "" {
		t.titles[id] = title
		return title
	}
	if title, ok := t.titles[id]; ok {
		return title
	}
	return "Item " + id
}

// Items returns every classified item in first-seen order
func (t *Tracker) Items() []domain.ItemOutcome {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.ItemOutcome, len(t.items))
	copy(out, t.items)
	return out
}

// Succeeded returns items recorded as downloaded
func (t *Tracker) Succeeded() []domain.ItemOutcome {
	return t.filter(domain.ItemSucceeded)
}

// Skipped returns items that were already present
func (t *Tracker) Skipped() []domain.ItemOutcome {
	return t.filter(domain.ItemSkippedExisting)
}

// Failed returns items that errored
func (t *Tracker) Failed() []domain.ItemOutcome {
	return t.filter(domain.ItemFailed)
}

func (t *Tracker) filter(status domain.ItemStatus) []domain.ItemOutcome {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []domain.ItemOutcome
	for _, item := range t.items {
		if item.Status == status {
			out = append(out, item)
		}
	}
	return out
}

// Counts returns current per-status totals
func (t *Tracker) Counts() Counts {
	t.mu.Lock()
	defer t.mu.Unlock()
	var c Counts
	for _, item := range t.items {
		switch item.Status {
		case domain.ItemSucceeded:
			c.Succeeded++
		case domain.ItemSkippedExisting:
			c.Skipped++
		case domain.ItemFailed:
			c.Failed++
		}
	}
	return c
}

// Warnings returns user-facing warnings
func (t *Tracker) Warnings() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.warnings...)
}

// SuppressedWarnings returns how many benign warnings were hidden
func (t *Tracker) SuppressedWarnings() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.suppressed
}

// Diagnostics returns error lines that could not be attributed to an item
func (t *Tracker) Diagnostics() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.unattrib...)
}

// LineCount returns how many lines of a level were seen
func (t *Tracker) LineCount(level domain.LogLevel) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.linesByType[level]
}

// CurrentItem returns the identifier the backend most recently announced
func (t *Tracker) CurrentItem() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}
