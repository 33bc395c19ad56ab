// Package logger provides logging implementations for altsheet
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/memtensor/altsheet/pkg/interfaces"
)

var levelRank = map[string]int{
	"debug": 0,
	"info":  1,
	"warn":  2,
	"error": 3,
}

// ConsoleLogger writes leveled "[LEVEL] msg key=value" lines.
// With no Output set it goes through the standard log package.
type ConsoleLogger struct {
	Level  string
	File   string
	Output *log.Logger

	fields map[string]interface{}
	closer io.Closer
}

// Debug logs debug level messages
func (l *ConsoleLogger) Debug(msg string, fields ...map[string]interface{}) {
	if l.enabled("debug") {
		l.logWithFields("DEBUG", msg, fields...)
	}
}

// Info logs info level messages
func (l *ConsoleLogger) Info(msg string, fields ...map[string]interface{}) {
	if l.enabled("info") {
		l.logWithFields("INFO", msg, fields...)
	}
}

// Warn logs warning level messages
func (l *ConsoleLogger) Warn(msg string, fields ...map[string]interface{}) {
	if l.enabled("warn") {
		l.logWithFields("WARN", msg, fields...)
	}
}

// Error logs error level messages
func (l *ConsoleLogger) Error(msg string, err error, fields ...map[string]interface{}) {
	var allFields []map[string]interface{}
	if err != nil {
		allFields = append(allFields, map[string]interface{}{"error": err.Error()})
	}
	allFields = append(allFields, fields...)
	l.logWithFields("ERROR", msg, allFields...)
}

// Fatal logs fatal level messages and exits
func (l *ConsoleLogger) Fatal(msg string, err error, fields ...map[string]interface{}) {
	l.Error(msg, err, fields...)
	os.Exit(1)
}

// WithFields returns a logger that adds fields to every line
func (l *ConsoleLogger) WithFields(fields map[string]interface{}) interfaces.Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &ConsoleLogger{
		Level:  l.Level,
		File:   l.File,
		Output: l.Output,
		fields: merged,
	}
}

// Close releases the log file, if the logger opened one
func (l *ConsoleLogger) Close() error {
	if l.closer == nil {
		return nil
	}
	err := l.closer.Close()
	l.closer = nil
	return err
}

func (l *ConsoleLogger) enabled(level string) bool {
	want, ok := levelRank[strings.ToLower(l.Level)]
	if !ok {
		want = levelRank["info"]
	}
	return levelRank[level] >= want
}

func (l *ConsoleLogger) logWithFields(level, msg string, fields ...map[string]interface{}) {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", level, msg)

	merged := make(map[string]interface{}, len(l.fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for _, fieldMap := range fields {
		for k, v := range fieldMap {
			merged[k] = v
		}
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, merged[k])
	}

	if l.Output != nil {
		l.Output.Println(b.String())
		return
	}
	log.Println(b.String())
}

// NewConsoleLogger creates a new console logger
func NewConsoleLogger(level string) interfaces.Logger {
	return &ConsoleLogger{
		Level: level,
	}
}

// NewFileLogger creates a logger that writes to stderr and appends to path
func NewFileLogger(level, path string) (*ConsoleLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return &ConsoleLogger{
		Level:  level,
		File:   path,
		Output: log.New(io.MultiWriter(os.Stderr, f), "", log.LstdFlags),
		closer: f,
	}, nil
}

// NewTestLogger creates a logger for testing
func NewTestLogger() interfaces.Logger {
	return &ConsoleLogger{
		Level: "debug",
	}
}

// NewLogger creates a new logger with default settings
func NewLogger() interfaces.Logger {
	return &ConsoleLogger{
		Level: "info",
	}
}
