package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/harrison/frontend-diff/internal/models"
)

// FileLogger writes run events to timestamped log files and keeps a
// latest.log symlink pointing to the most recent run. It is thread-safe.
type FileLogger struct {
	logDir   string
	runLog   *os.File
	runFile  string
	logLevel string
	mu       sync.Mutex
}

// NewFileLogger creates a FileLogger in logDir with the default "info" level.
func NewFileLogger(logDir string) (*FileLogger, error) {
	return NewFileLoggerWithLevel(logDir, "info")
}

// NewFileLoggerWithLevel creates a FileLogger in logDir. The directory is
// created if missing and a run-YYYYMMDD-HHMMSS.log file is opened.
func NewFileLoggerWithLevel(logDir string, logLevel string) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	stamp := time.Now().Format("20060102-150405")
	runFile := filepath.Join(logDir, fmt.Sprintf("run-%s.log", stamp))

	file, err := os.OpenFile(runFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create run log file: %w", err)
	}

	symlinkPath := filepath.Join(logDir, "latest.log")
	if _, err := os.Lstat(symlinkPath); err == nil {
		if err := os.Remove(symlinkPath); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to remove old symlink: %w", err)
		}
	}
	if err := os.Symlink(filepath.Base(runFile), symlinkPath); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create symlink: %w", err)
	}

	fl := &FileLogger{
		logDir:   logDir,
		runLog:   file,
		runFile:  runFile,
		logLevel: normalizeLogLevel(logLevel),
	}

	fl.writeRunLog("=== frontend-diff Run Log ===\n")
	fl.writeRunLog(fmt.Sprintf("Started at: %s\n\n", time.Now().Format(time.RFC3339)))

	return fl, nil
}

// Path returns the path of the current run log file.
func (fl *FileLogger) Path() string {
	return fl.runFile
}

func (fl *FileLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(fl.logLevel)
}

// LogTrace logs a trace-level message (most verbose).
func (fl *FileLogger) LogTrace(message string) {
	fl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (fl *FileLogger) LogDebug(message string) {
	fl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (fl *FileLogger) LogInfo(message string) {
	fl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (fl *FileLogger) LogWarn(message string) {
	fl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (fl *FileLogger) LogError(message string) {
	fl.logWithLevel("ERROR", message)
}

func (fl *FileLogger) logWithLevel(level string, message string) {
	if !fl.shouldLog(strings.ToLower(level)) {
		return
	}
	fl.writeRunLog(fmt.Sprintf("[%s] [%s] %s\n", timestamp(), level, message))
}

// LogRunStart records the start of a run at INFO level.
func (fl *FileLogger) LogRunStart(version string, components int) {
	if !fl.shouldLog("info") {
		return
	}
	fl.writeRunLog(fmt.Sprintf("[%s] Testing %d component(s) against %s\n", timestamp(), components, version))
}

// LogComponentResult records every example of a component at INFO level.
// Failed examples include their reason and error, if any.
func (fl *FileLogger) LogComponentResult(outcome models.ComponentOutcome) {
	if !fl.shouldLog("info") {
		return
	}

	ts := timestamp()
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] Component %s: %d/%d passed\n",
		ts, outcome.Component, len(outcome.Results)-outcome.Failed(), len(outcome.Results))
	for _, r := range outcome.Results {
		if r.Passed {
			fmt.Fprintf(&b, "[%s]   PASS %s (%s)\n", ts, r.Example, formatDuration(r.Duration))
			continue
		}
		fmt.Fprintf(&b, "[%s]   FAIL %s [%s]", ts, r.Example, r.Reason)
		if r.Error != "" {
			fmt.Fprintf(&b, ": %s", r.Error)
		}
		b.WriteString("\n")
		for _, c := range r.Diff.Changes {
			fmt.Fprintf(&b, "[%s]     %s at %s\n", ts, c.Kind, c.Path)
		}
	}
	fl.writeRunLog(b.String())
}

// LogSummary records the run totals at INFO level.
func (fl *FileLogger) LogSummary(report *models.RunReport) {
	if report == nil || !fl.shouldLog("info") {
		return
	}

	ts := timestamp()
	var b strings.Builder
	fmt.Fprintf(&b, "\n[%s] === Run Summary ===\n", ts)
	fmt.Fprintf(&b, "[%s] Run: %s\n", ts, report.RunID)
	fmt.Fprintf(&b, "[%s] Version: %s\n", ts, report.Version)
	fmt.Fprintf(&b, "[%s] Examples: %d\n", ts, report.Total)
	fmt.Fprintf(&b, "[%s] Passed: %d\n", ts, report.Passed)
	fmt.Fprintf(&b, "[%s] Failed: %d\n", ts, report.Failed)
	fmt.Fprintf(&b, "[%s] Duration: %s\n", ts, formatDuration(report.Duration))
	status := "SUCCESS"
	if !report.Success() {
		status = "FAILED"
	}
	fmt.Fprintf(&b, "[%s] Status: %s\n", ts, status)
	fl.writeRunLog(b.String())
}

// Close closes the run log file.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog == nil {
		return nil
	}
	err := fl.runLog.Close()
	fl.runLog = nil
	return err
}

func (fl *FileLogger) writeRunLog(message string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog == nil {
		return
	}
	fl.runLog.WriteString(message)
}
