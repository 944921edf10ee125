package core

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AuditLogLevel defines the verbosity of audit logging
type AuditLogLevel string

const (
	// AuditLogLevelMinimal logs only warnings and above
	AuditLogLevelMinimal AuditLogLevel = "minimal"

	// AuditLogLevelStandard logs all events with truncated detail
	AuditLogLevelStandard AuditLogLevel = "standard"

	// AuditLogLevelVerbose logs all events with full detail
	AuditLogLevelVerbose AuditLogLevel = "verbose"
)

// AuditLogSeverity defines the severity of audit log events
type AuditLogSeverity string

const (
	// SeverityInfo for normal operations
	SeverityInfo AuditLogSeverity = "info"

	// SeverityWarning for degraded operations (retries, skipped files)
	SeverityWarning AuditLogSeverity = "warning"

	// SeverityError for failures (exhausted directories, write failures)
	SeverityError AuditLogSeverity = "error"
)

// Screening event types recorded in the audit log
const (
	EventRunStarted         = "run_started"
	EventDirectoryScanned   = "directory_scanned"
	EventDirectoryRetry     = "directory_retry"
	EventDirectoryExhausted = "directory_exhausted"
	EventFileSkipped        = "file_skipped"
	EventReportWritten      = "report_written"
	EventRunCompleted       = "run_completed"
	EventRunFailed          = "run_failed"
)

// AuditEvent represents one screening audit log entry
type AuditEvent struct {
	// Core fields for traceability
	EntryID   string           `json:"entry_id"`
	RunID     string           `json:"run_id"`
	Timestamp string           `json:"timestamp"`
	EventType string           `json:"event_type"`
	Severity  AuditLogSeverity `json:"severity"`

	// Scan context
	Directory string `json:"directory,omitempty"`
	Path      string `json:"path,omitempty"`
	Attempt   int    `json:"attempt,omitempty"`

	// Free-form detail; truncated depending on log level
	Detail string `json:"detail,omitempty"`

	Metadata map[string]string `json:"metadata,omitempty"`
}

// AuditLogger manages the JSONL screening audit log
type AuditLogger struct {
	mu            sync.Mutex
	logPath       string
	level         AuditLogLevel
	writer        io.Writer
	file          *os.File
	rotationSize  int64 // Size in bytes after which logs should rotate
	currentSize   int64
	logRetention  int // Number of days to retain rotated logs
	initialized   bool
	enableConsole bool
}

// Global default logger
var defaultLogger *AuditLogger
var loggerOnce sync.Once

// GetAuditLogger returns the singleton audit logger instance
func GetAuditLogger() *AuditLogger {
	loggerOnce.Do(func() {
		// Default to writing to screening_audit.log in the current directory
		defaultLogger = &AuditLogger{
			logPath:      "screening_audit.log",
			level:        AuditLogLevelStandard,
			rotationSize: 100 * 1024 * 1024, // 100MB default rotation size
			logRetention: 90,                // 90 days default retention
		}
		defaultLogger.initialize()
	})

	return defaultLogger
}

// ConfigureLogger configures the audit logger with specific settings
func ConfigureLogger(path string, level AuditLogLevel, rotationSize int64, retention int, enableConsole bool) error {
	logger := GetAuditLogger()

	logger.mu.Lock()
	defer logger.mu.Unlock()

	logger.logPath = path
	logger.level = level
	logger.rotationSize = rotationSize
	logger.logRetention = retention
	logger.enableConsole = enableConsole

	return logger.initialize()
}

// initialize the logger with current settings
func (l *AuditLogger) initialize() error {
	dir := filepath.Dir(l.logPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	f, err := os.OpenFile(l.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to get log file info: %w", err)
	}

	// Release the previously opened log file, if any
	if l.file != nil {
		l.file.Close()
	}
	l.file = f
	l.currentSize = info.Size()

	if l.enableConsole {
		l.writer = io.MultiWriter(f, os.Stderr)
	} else {
		l.writer = f
	}

	l.initialized = true
	return nil
}

// maybeRotateLog checks if log rotation is needed and performs it if so
func (l *AuditLogger) maybeRotateLog() error {
	if l.currentSize >= l.rotationSize {
		if l.file != nil {
			l.file.Close()
			l.file = nil
		}

		timestamp := time.Now().Format("20060102-150405")
		rotatedPath := fmt.Sprintf("%s.%s", l.logPath, timestamp)

		if err := os.Rename(l.logPath, rotatedPath); err != nil {
			return fmt.Errorf("failed to rotate log file: %w", err)
		}

		l.cleanupOldLogs()

		return l.initialize()
	}

	return nil
}

// cleanupOldLogs removes rotated log files older than the retention period
func (l *AuditLogger) cleanupOldLogs() {
	dir := filepath.Dir(l.logPath)
	base := filepath.Base(l.logPath)

	cutoffTime := time.Now().AddDate(0, 0, -l.logRetention)

	files, err := filepath.Glob(filepath.Join(dir, base+".*"))
	if err != nil {
		return
	}

	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoffTime) {
			os.Remove(file)
		}
	}
}

// LogEvent appends an audit event to the screening audit log
func (l *AuditLogger) LogEvent(event AuditEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.initialized {
		if err := l.initialize(); err != nil {
			return err
		}
	}

	if err := l.maybeRotateLog(); err != nil {
		return err
	}

	if event.Timestamp == "" {
		event.Timestamp = time.Now().Format(time.RFC3339Nano)
	}
	if event.EntryID == "" {
		event.EntryID = uuid.NewString()
	}
	if event.Severity == "" {
		event.Severity = SeverityInfo
	}

	// Apply log level filtering
	if l.level == AuditLogLevelMinimal && event.Severity == SeverityInfo {
		return nil
	}

	// Truncate detail in standard mode
	if l.level == AuditLogLevelStandard && len(event.Detail) > 200 {
		event.Detail = event.Detail[:200] + "... [truncated]"
	}

	entry, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal log entry: %w", err)
	}

	n, err := fmt.Fprintln(l.writer, string(entry))
	if err != nil {
		return fmt.Errorf("failed to write to log: %w", err)
	}

	l.currentSize += int64(n)

	return nil
}

// LogScreeningEvent is a helper to log one screening event on the
// singleton logger
func LogScreeningEvent(runID, eventType string, severity AuditLogSeverity, metadata map[string]string) error {
	return GetAuditLogger().LogEvent(AuditEvent{
		RunID:     runID,
		EventType: eventType,
		Severity:  severity,
		Metadata:  metadata,
	})
}
