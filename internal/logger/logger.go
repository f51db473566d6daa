// Package logger is a small leveled logger. Entries are kept in memory,
// echoed to the console writer (stderr by default) and optionally appended
// to a JSON-lines file.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Levels, lowest first.
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

var levelRank = map[string]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// LogEntry represents a single log record.
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

var (
	mu          sync.RWMutex
	logEntries  []LogEntry
	maxEntries  = 1000
	minLevel    = LevelWarn
	console     io.Writer = os.Stderr
	logFile     *os.File

	bearerRegex = regexp.MustCompile(`(?i)(bearer\s+)[A-Za-z0-9\-._~+/]+=*`)
	secretRegex = regexp.MustCompile(`(?i)(client_secret=)[^&\s]+`)
)

// ParseLevel normalizes a user supplied level name.
func ParseLevel(level string) (string, error) {
	l := strings.ToUpper(strings.TrimSpace(level))
	if l == "WARNING" {
		l = LevelWarn
	}
	if _, ok := levelRank[l]; !ok {
		return "", fmt.Errorf("unknown log level: %s", level)
	}
	return l, nil
}

// SetLevel sets the minimum level that is recorded.
func SetLevel(level string) error {
	l, err := ParseLevel(level)
	if err != nil {
		return err
	}
	mu.Lock()
	minLevel = l
	mu.Unlock()
	return nil
}

// SetConsole replaces the console writer. A nil writer disables echoing.
func SetConsole(w io.Writer) {
	mu.Lock()
	console = w
	mu.Unlock()
}

// Init opens path for appending. An empty path keeps file logging off.
func Init(path string) error {
	if path == "" {
		return nil
	}
	mu.Lock()
	defer mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	if logFile != nil {
		logFile.Close()
	}
	logFile = f
	return nil
}

// Redact masks bearer tokens and client secrets.
func Redact(message string) string {
	message = bearerRegex.ReplaceAllString(message, "${1}REDACTED")
	return secretRegex.ReplaceAllString(message, "${1}REDACTED")
}

// AddLog adds a new log entry.
func AddLog(level, message string) {
	l, err := ParseLevel(level)
	if err != nil {
		l = LevelInfo
	}

	mu.Lock()
	if levelRank[l] < levelRank[minLevel] {
		mu.Unlock()
		return
	}
	entry := LogEntry{
		Timestamp: time.Now().Format(time.RFC3339),
		Level:     l,
		Message:   Redact(message),
	}
	logEntries = append(logEntries, entry)
	if len(logEntries) > maxEntries {
		logEntries = logEntries[len(logEntries)-maxEntries:]
	}
	if console != nil {
		fmt.Fprintf(console, "[%s] [%s] %s\n", entry.Timestamp, entry.Level, entry.Message)
	}
	if logFile != nil {
		if data, err := json.Marshal(entry); err == nil {
			logFile.Write(append(data, '\n'))
		}
	}
	mu.Unlock()
}

// Debugf, Infof, Warnf and Errorf format and record an entry.
func Debugf(format string, args ...interface{}) { AddLog(LevelDebug, fmt.Sprintf(format, args...)) }
func Infof(format string, args ...interface{})  { AddLog(LevelInfo, fmt.Sprintf(format, args...)) }
func Warnf(format string, args ...interface{})  { AddLog(LevelWarn, fmt.Sprintf(format, args...)) }
func Errorf(format string, args ...interface{}) { AddLog(LevelError, fmt.Sprintf(format, args...)) }

// GetLogs returns all logs currently in memory.
func GetLogs() []LogEntry {
	mu.RLock()
	defer mu.RUnlock()
	res := make([]LogEntry, len(logEntries))
	copy(res, logEntries)
	return res
}

// AtLeast reports whether the entry is at level or above.
func (e LogEntry) AtLeast(level string) bool {
	return levelRank[e.Level] >= levelRank[level]
}

// ClearLogs wipes the in-memory entries.
func ClearLogs() {
	mu.Lock()
	logEntries = []LogEntry{}
	mu.Unlock()
}

// Close closes the log file.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}
