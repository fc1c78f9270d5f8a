package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"sync/atomic"
	"time"
)

// ApplicationLogger writes leveled, structured entries tagged with the
// correlation ID found in the context.
type ApplicationLogger interface {
	Debug(ctx context.Context, message string, fields Fields)
	Info(ctx context.Context, message string, fields Fields)
	Warn(ctx context.Context, message string, fields Fields)
	Error(ctx context.Context, message string, fields Fields)
	ErrorWithError(ctx context.Context, err error, message string, fields Fields)
	LogPerformance(ctx context.Context, operation string, duration time.Duration, fields Fields)
	WithComponent(component string) ApplicationLogger

	// SetLevel changes the minimum level for this logger and every logger
	// derived from it through WithComponent.
	SetLevel(level string) error
}

// Fields are attached to an entry as metadata.
type Fields map[string]interface{}

// Config selects the level, format and destination of a logger.
type Config struct {
	Level  string
	Format string // json, text
	Output string // stdout, stderr, buffer (for testing)

	// Writer overrides Output when set.
	Writer io.Writer
}

// Log levels in ascending severity.
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

var levelRanks = map[string]int32{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// LogEntry is one JSON log line.
type LogEntry struct {
	Timestamp     string                 `json:"timestamp"`
	Level         string                 `json:"level"`
	Message       string                 `json:"message"`
	CorrelationID string                 `json:"correlation_id"`
	Component     string                 `json:"component"`
	Operation     string                 `json:"operation,omitempty"`
	Duration      string                 `json:"duration,omitempty"`
	Error         string                 `json:"error,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

type applicationLoggerImpl struct {
	format    string
	component string
	level     *atomic.Int32
	buffer    *bytes.Buffer // For testing
	logger    *log.Logger
}

// NewApplicationLogger validates config and builds a logger from it.
func NewApplicationLogger(config Config) (ApplicationLogger, error) {
	if err := validateConfig(config); err != nil {
		return nil, err
	}

	logger := &applicationLoggerImpl{
		format: config.Format,
		level:  &atomic.Int32{},
	}
	logger.level.Store(levelRanks[strings.ToUpper(config.Level)])

	switch {
	case config.Writer != nil:
		logger.logger = log.New(config.Writer, "", 0)
	case config.Output == "buffer":
		logger.buffer = &bytes.Buffer{}
		logger.logger = log.New(logger.buffer, "", 0)
	case config.Output == "stdout":
		logger.logger = log.New(os.Stdout, "", 0)
	default:
		logger.logger = log.New(os.Stderr, "", 0)
	}

	return logger, nil
}

// NewNopLogger returns a logger that discards every entry.
func NewNopLogger() ApplicationLogger {
	logger, _ := NewApplicationLogger(Config{Level: LevelError, Format: "json", Writer: io.Discard})
	return logger
}

func validateConfig(config Config) error {
	if !IsValidLevel(config.Level) {
		return fmt.Errorf("invalid log level: %s", config.Level)
	}

	if config.Format != "json" && config.Format != "text" {
		return fmt.Errorf("invalid log format: %s", config.Format)
	}

	if config.Writer == nil {
		switch config.Output {
		case "", "stdout", "stderr", "buffer":
		default:
			return fmt.Errorf("invalid log output: %s", config.Output)
		}
	}

	return nil
}

// IsValidLevel reports whether level names a supported log level, ignoring case.
func IsValidLevel(level string) bool {
	_, ok := levelRanks[strings.ToUpper(level)]
	return ok
}

// SetLevel changes the minimum level shared by this logger and its components.
func (l *applicationLoggerImpl) SetLevel(level string) error {
	rank, ok := levelRanks[strings.ToUpper(level)]
	if !ok {
		return fmt.Errorf("invalid log level: %s", level)
	}
	l.level.Store(rank)
	return nil
}

func (l *applicationLoggerImpl) shouldLog(level string) bool {
	return levelRanks[level] >= l.level.Load()
}

func (l *applicationLoggerImpl) Debug(ctx context.Context, message string, fields Fields) {
	if l.shouldLog(LevelDebug) {
		l.logEntry(ctx, LevelDebug, message, "", fields)
	}
}

func (l *applicationLoggerImpl) Info(ctx context.Context, message string, fields Fields) {
	if l.shouldLog(LevelInfo) {
		l.logEntry(ctx, LevelInfo, message, "", fields)
	}
}

func (l *applicationLoggerImpl) Warn(ctx context.Context, message string, fields Fields) {
	if l.shouldLog(LevelWarn) {
		l.logEntry(ctx, LevelWarn, message, "", fields)
	}
}

func (l *applicationLoggerImpl) Error(ctx context.Context, message string, fields Fields) {
	if l.shouldLog(LevelError) {
		l.logEntry(ctx, LevelError, message, "", fields)
	}
}

// ErrorWithError logs at error level with err recorded in the entry.
func (l *applicationLoggerImpl) ErrorWithError(ctx context.Context, err error, message string, fields Fields) {
	if l.shouldLog(LevelError) {
		errStr := ""
		if err != nil {
			errStr = err.Error()
		}
		l.logEntry(ctx, LevelError, message, errStr, fields)
	}
}

// LogPerformance records how long operation took. Debug level only.
func (l *applicationLoggerImpl) LogPerformance(
	ctx context.Context,
	operation string,
	duration time.Duration,
	fields Fields,
) {
	if !l.shouldLog(LevelDebug) {
		return
	}
	merged := make(Fields, len(fields)+2)
	for k, v := range fields {
		merged[k] = v
	}
	merged["operation"] = operation
	merged["duration"] = duration.String()
	l.logEntry(ctx, LevelDebug, fmt.Sprintf("Performance metrics for %s", operation), "", merged)
}

// WithComponent returns a logger sharing this one's output and level.
func (l *applicationLoggerImpl) WithComponent(component string) ApplicationLogger {
	return &applicationLoggerImpl{
		format:    l.format,
		component: component,
		level:     l.level,
		buffer:    l.buffer,
		logger:    l.logger,
	}
}

func (l *applicationLoggerImpl) logEntry(ctx context.Context, level, message, errorStr string, fields Fields) {
	component := l.component
	if component == "" {
		component = "default"
	}

	entry := &LogEntry{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Level:         level,
		Message:       message,
		CorrelationID: getOrGenerateCorrelationID(ctx),
		Component:     component,
		Error:         errorStr,
	}

	if len(fields) > 0 {
		entry.Metadata = make(map[string]interface{}, len(fields))
	}
	for key, value := range fields {
		switch key {
		case "operation":
			if operation, ok := value.(string); ok {
				entry.Operation = operation
				continue
			}
		case "duration":
			if duration, ok := value.(string); ok {
				entry.Duration = duration
				continue
			}
		}
		entry.Metadata[key] = value
	}

	l.writeLogEntry(entry)
}

// writeLogEntry emits one line per entry; text lines list metadata sorted by key.
func (l *applicationLoggerImpl) writeLogEntry(entry *LogEntry) {
	if l.format == "json" {
		jsonData, err := json.Marshal(entry)
		if err != nil {
			return
		}
		l.logger.Println(string(jsonData))
		return
	}

	logLine := fmt.Sprintf("[%s] %s %s: %s", entry.Timestamp, entry.Level, entry.Component, entry.Message)
	if entry.Error != "" {
		logLine += " error=" + entry.Error
	}
	keys := make([]string, 0, len(entry.Metadata))
	for k := range entry.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		logLine += fmt.Sprintf(" %s=%v", k, entry.Metadata[k])
	}
	l.logger.Println(logLine)
}
