// Package logging provides the shared logger for sitegen.
//
// Log lines go to stderr so that stdout stays reserved for command output
// (including JSONL events). When a log directory is configured the same lines
// are also appended to sitegen.log inside it.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Logger wraps the standard logger with optional file output.
type Logger struct {
	*log.Logger
	file *os.File
	mu   sync.Mutex
}

var (
	defaultLogger *Logger
	mu            sync.Mutex
)

// Initialize sets up the logging system. An empty logDir logs to errOut only.
func Initialize(logDir string, errOut io.Writer) error {
	mu.Lock()
	defer mu.Unlock()

	if errOut == nil {
		errOut = os.Stderr
	}

	var (
		writer = errOut
		file   *os.File
	)
	if logDir != "" {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}

		logPath := filepath.Join(logDir, "sitegen.log")
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		file = f
		writer = io.MultiWriter(errOut, f)
	}

	if defaultLogger != nil && defaultLogger.file != nil {
		_ = defaultLogger.file.Close()
	}

	defaultLogger = &Logger{
		Logger: log.New(writer, "", log.LstdFlags),
		file:   file,
	}

	log.SetOutput(writer)
	log.SetFlags(log.LstdFlags)
	return nil
}

// Close closes the log file, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if defaultLogger != nil && defaultLogger.file != nil {
		err := defaultLogger.file.Close()
		defaultLogger.file = nil
		return err
	}
	return nil
}

func output(prefix, format string, v ...interface{}) {
	msg := fmt.Sprintf(prefix+format, v...)
	mu.Lock()
	l := defaultLogger
	mu.Unlock()
	if l != nil {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.Println(msg)
		return
	}
	log.Println(msg)
}

// Infof logs an info message.
func Infof(format string, v ...interface{}) {
	output("[INFO] ", format, v...)
}

// Warnf logs a warning message.
func Warnf(format string, v ...interface{}) {
	output("[WARN] ", format, v...)
}

// Errorf logs an error message.
func Errorf(format string, v ...interface{}) {
	output("[ERROR] ", format, v...)
}

// Debugf logs a debug message (only when DEBUG=true).
func Debugf(format string, v ...interface{}) {
	if os.Getenv("DEBUG") == "true" {
		output("[DEBUG] ", format, v...)
	}
}
