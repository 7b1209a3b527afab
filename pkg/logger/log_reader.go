package logger

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// LogEntry represents a parsed log entry
type LogEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Category  string                 `json:"category"`
	SessionID string                 `json:"session_id,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// backendLinePattern matches lines written by MultiLogger.LogBackendLine
var backendLinePattern = regexp.MustCompile(`^(\S+) \[([^\]]*)\] (\S+)\s+(.*)$`)

// LogReader reads and streams category log files
type LogReader struct {
	logsDir  string
	pollWait time.Duration
}

// NewLogReader creates a new log reader
func NewLogReader(logsDir string) *LogReader {
	return &LogReader{
		logsDir:  logsDir,
		pollWait: 200 * time.Millisecond,
	}
}

// GetLogPath returns the path to a category log file for a specific date
func (lr *LogReader) GetLogPath(category LogCategory, date time.Time) string {
	return filepath.Join(lr.logsDir, fmt.Sprintf("%s-%s.log", category, date.Format("20060102")))
}

// ReadLogs returns the last limit entries of a category log. A missing file
// yields no entries.
func (lr *LogReader) ReadLogs(category LogCategory, date time.Time, limit int) ([]LogEntry, error) {
	return lr.read(category, date, limit, func(LogEntry) bool { return true })
}

// SearchLogs returns the last limit entries whose message, level or session
// contains query, case-insensitively
func (lr *LogReader) SearchLogs(category LogCategory, date time.Time, query string, limit int) ([]LogEntry, error) {
	query = strings.ToLower(query)
	return lr.read(category, date, limit, func(e LogEntry) bool {
		return strings.Contains(strings.ToLower(e.Message), query) ||
			strings.Contains(strings.ToLower(e.Level), query) ||
			strings.Contains(strings.ToLower(e.SessionID), query)
	})
}

// SessionLogs returns the entries of a category log that belong to sessionID
func (lr *LogReader) SessionLogs(category LogCategory, date time.Time, sessionID string, limit int) ([]LogEntry, error) {
	return lr.read(category, date, limit, func(e LogEntry) bool {
		return e.SessionID == sessionID
	})
}

func (lr *LogReader) read(category LogCategory, date time.Time, limit int, keep func(LogEntry) bool) ([]LogEntry, error) {
	file, err := os.Open(lr.GetLogPath(category, date))
	if err != nil {
		if os.IsNotExist(err) {
			return []LogEntry{}, nil
		}
		return nil, err
	}
	defer file.Close()

	entries := []LogEntry{}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		entry := ParseLine(category, line)
		if !keep(entry) {
			continue
		}
		entries = append(entries, entry)
		if limit > 0 && len(entries) > limit {
			entries = entries[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// ParseLine decodes one log file line. JSON lines come from the structured
// categories; backend lines use the plain layout of LogBackendLine.
func ParseLine(category LogCategory, line string) LogEntry {
	entry := LogEntry{Category: string(category)}

	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(line), &raw); err == nil {
		entry.Timestamp = takeString(raw, "ts")
		entry.Level = takeString(raw, "level")
		entry.Message = takeString(raw, "msg")
		if id, ok := raw["session_id"].(string); ok {
			entry.SessionID = id
		}
		if len(raw) > 0 {
			entry.Fields = raw
		}
		return entry
	}

	if m := backendLinePattern.FindStringSubmatch(line); m != nil {
		entry.Timestamp = m[1]
		entry.SessionID = m[2]
		entry.Level = strings.ToLower(m[3])
		entry.Message = m[4]
		return entry
	}

	entry.Level = "info"
	entry.Message = line
	return entry
}

func takeString(m map[string]interface{}, key string) string {
	v, _ := m[key].(string)
	delete(m, key)
	return v
}

// TailLogs streams entries appended to today's category log until stop is
// closed. It waits for the file to appear and follows the date change.
func (lr *LogReader) TailLogs(category LogCategory, entries chan<- LogEntry, stop <-chan struct{}) error {
	for {
		path := lr.GetLogPath(category, time.Now())
		file, err := os.Open(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return err
			}
			select {
			case <-stop:
				return nil
			case <-time.After(lr.pollWait):
			}
			continue
		}

		rotated, err := lr.follow(file, path, category, entries, stop)
		file.Close()
		if err != nil || !rotated {
			return err
		}
	}
}

// follow reads from the end of file. It returns rotated=true once the
// current date maps to a different path.
func (lr *LogReader) follow(file *os.File, path string, category LogCategory, entries chan<- LogEntry, stop <-chan struct{}) (bool, error) {
	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return false, err
	}

	reader := bufio.NewReader(file)
	var partial string
	for {
		select {
		case <-stop:
			return false, nil
		default:
		}

		chunk, err := reader.ReadString('\n')
		partial += chunk
		if err == io.EOF {
			if lr.GetLogPath(category, time.Now()) != path {
				return true, nil
			}
			select {
			case <-stop:
				return false, nil
			case <-time.After(lr.pollWait):
			}
			continue
		}
		if err != nil {
			return false, err
		}

		line := strings.TrimSpace(partial)
		partial = ""
		if line == "" {
			continue
		}

		select {
		case entries <- ParseLine(category, line):
		case <-stop:
			return false, nil
		}
	}
}
