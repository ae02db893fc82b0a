package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"nexus/internal/core"
)

// LogLevel defines the severity level for log messages.
type LogLevel int

// Log level constants.
const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

// AppLogger is the application logger implementation.
type AppLogger struct {
	logger     *log.Logger
	debug      bool
	prefix     string
	fileHandle *os.File
	mu         sync.RWMutex
}

// NewAppLoggerWithConfig creates a logger instance with configuration.
func NewAppLoggerWithConfig(output io.Writer, debugMode bool) *AppLogger {
	return &AppLogger{
		logger:     log.New(output, "", log.LstdFlags),
		debug:      debugMode,
		fileHandle: nil,
	}
}

// Debug logs a message at DEBUG level.
func (l *AppLogger) Debug(format string, args ...any) {
	if l != nil && l.debug {
		l.logger.Printf("[DEBUG] "+l.prefix+format, args...)
	}
}

// Info logs a message at INFO level.
func (l *AppLogger) Info(format string, args ...any) {
	if l != nil {
		l.logger.Printf("[INFO] "+l.prefix+format, args...)
	}
}

// Warn logs a message at WARN level.
func (l *AppLogger) Warn(format string, args ...any) {
	if l != nil {
		l.logger.Printf("[WARN] "+l.prefix+format, args...)
	}
}

// Error logs a message at ERROR level.
func (l *AppLogger) Error(format string, args ...any) {
	if l != nil {
		l.logger.Printf("[ERROR] "+l.prefix+format, args...)
	}
}

// Fatal logs a message at FATAL level and terminates the process.
func (l *AppLogger) Fatal(format string, args ...any) {
	if l != nil {
		l.logger.Fatalf("[FATAL] "+l.prefix+format, args...)
		return
	}
	_, _ = fmt.Fprintf(os.Stderr, "[FATAL] "+format+"\n", args...)
	os.Exit(1)
}

// Named returns a logger writing to the same output with every line tagged
// "[component]". The child never owns the file handle.
func (l *AppLogger) Named(component string) core.Logger {
	if l == nil {
		return l
	}
	return &AppLogger{
		logger: l.logger,
		debug:  l.debug,
		prefix: l.prefix + "[" + component + "] ",
	}
}

// Close safely closes log file handle.
func (l *AppLogger) Close() error {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fileHandle != nil {
		err := l.fileHandle.Close()
		l.fileHandle = nil
		return err
	}
	return nil
}

// containsPathTraversal reports whether any element of path is "..".
func containsPathTraversal(path string) bool {
	normalized := strings.ReplaceAll(path, "\\", "/")
	for _, part := range strings.Split(normalized, "/") {
		if part == ".." {
			return true
		}
	}
	return false
}

// createDebugFileOutput picks the log destination. A non-empty warning means
// DEBUG_FILE was rejected and stdout is used instead.
func createDebugFileOutput() (io.Writer, *os.File, string) {
	debugFile := os.Getenv("DEBUG_FILE")
	if debugFile == "" {
		return os.Stdout, nil, ""
	}

	if len(debugFile) > core.MaxDebugFilePathLength {
		return os.Stdout, nil, "DEBUG_FILE path too long, falling back to stdout"
	}

	if containsPathTraversal(debugFile) {
		return os.Stdout, nil, "DEBUG_FILE contains path traversal characters, falling back to stdout"
	}

	//nolint:gosec // G304: debugFile from env var, validated by containsPathTraversal
	file, err := os.OpenFile(debugFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, core.FilePermissionReadWrite)
	if err != nil {
		return os.Stdout, nil, fmt.Sprintf("Failed to open DEBUG_FILE '%s': %v, falling back to stdout", debugFile, err)
	}

	return file, file, ""
}

// IsDebug returns whether the app is running in debug mode.
func IsDebug() bool {
	return os.Getenv("GIN_MODE") == "debug" || os.Getenv("NEXUS_DEBUG") == "true"
}

// CreateLogger creates a logger instance (for dependency injection).
func CreateLogger() core.Logger {
	output, fileHandle, warning := createDebugFileOutput()

	logger := &AppLogger{
		logger:     log.New(output, "", log.LstdFlags),
		debug:      IsDebug(),
		fileHandle: fileHandle,
	}
	if warning != "" {
		logger.Warn("%s", warning)
	}

	return logger
}
