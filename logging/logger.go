// Package logging provides structured, category-tagged JSON logging on top of zap.
package logging

import (
	"context"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents the severity of a log entry.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case DEBUG:
		return zapcore.DebugLevel
	case WARN:
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// ParseLevel maps "debug", "info", "warn" and "error" to a Level. Anything
// else resolves to INFO.
func ParseLevel(raw string) Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// Entry mirrors a single JSON line written by Logger.
type Entry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Site      string         `json:"site,omitempty"`
	Category  string         `json:"category"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Logger writes category-tagged entries to every configured writer.
type Logger struct {
	site string
	base *zap.Logger
}

// New creates a Logger for site that drops entries below minLevel. With no
// writers it logs to stdout.
func New(site string, minLevel Level, writers ...io.Writer) *Logger {
	if len(writers) == 0 {
		writers = []io.Writer{os.Stdout}
	}
	syncers := make([]zapcore.WriteSyncer, 0, len(writers))
	for _, w := range writers {
		if w == nil {
			continue
		}
		syncers = append(syncers, zapcore.AddSync(w))
	}

	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		MessageKey:     "message",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.NewMultiWriteSyncer(syncers...),
		zap.NewAtomicLevelAt(minLevel.zapLevel()),
	)

	base := zap.New(core)
	if site != "" {
		base = base.With(zap.String("site", site))
	}
	return &Logger{site: site, base: base}
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return &Logger{base: zap.NewNop()}
}

// Debug logs a debug message.
func (l *Logger) Debug(category, message string, fields map[string]any) {
	l.log(DEBUG, category, message, nil, fields)
}

// Info logs an info message.
func (l *Logger) Info(category, message string, fields map[string]any) {
	l.log(INFO, category, message, nil, fields)
}

// Warn logs a warning message.
func (l *Logger) Warn(category, message string, fields map[string]any) {
	l.log(WARN, category, message, nil, fields)
}

// Error logs an error message along with err.
func (l *Logger) Error(category, message string, err error, fields map[string]any) {
	l.log(ERROR, category, message, err, fields)
}

func (l *Logger) log(level Level, category, message string, err error, fields map[string]any) {
	if l == nil || l.base == nil {
		return
	}
	ce := l.base.Check(level.zapLevel(), message)
	if ce == nil {
		return
	}
	if category == "" {
		category = "general"
	}
	zfields := make([]zap.Field, 0, 3)
	zfields = append(zfields, zap.String("category", category))
	if len(fields) > 0 {
		zfields = append(zfields, zap.Any("fields", fields))
	}
	if err != nil {
		zfields = append(zfields, zap.String("error", err.Error()))
	}
	ce.Write(zfields...)
}

// WithRequestID returns a child logger that stamps every entry with requestID.
func (l *Logger) WithRequestID(requestID string) *Logger {
	if l == nil || l.base == nil || requestID == "" {
		return l
	}
	return &Logger{site: l.site, base: l.base.With(zap.String("request_id", requestID))}
}

// FromContext returns a child logger carrying the request ID stored by the
// HTTP middleware, or l itself when there is none.
func (l *Logger) FromContext(ctx context.Context) *Logger {
	return l.WithRequestID(RequestIDFromContext(ctx))
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	if l == nil || l.base == nil {
		return nil
	}
	return l.base.Sync()
}
