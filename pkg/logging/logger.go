// Package logging provides a small global slog wrapper used by the pager,
// the B-tree engine, and the DBM to emit structured diagnostic output.
package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"grovedb/pkg/dberr"
)

var (
	logger   *slog.Logger
	loggerMu sync.RWMutex
	logFile  *os.File
	isInited bool
	initOnce sync.Once
)

// Level is the logging verbosity.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Config holds logger configuration, normally populated from config.Config.
type Config struct {
	Level      Level
	OutputPath string // empty means stdout
	Format     string // "json" or "text"
}

// Init installs the global logger. Calling Init twice without an
// intervening Close returns an error to avoid silently discarding an
// already-open log file handle.
func Init(cfg Config) error {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if isInited {
		return fmt.Errorf("logging: already initialized; call Close first")
	}

	var w io.Writer = os.Stdout
	if cfg.OutputPath != "" {
		if dir := filepath.Dir(cfg.OutputPath); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return fmt.Errorf("logging: create log dir: %w", err)
			}
		}
		f, err := os.OpenFile(cfg.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("logging: open log file: %w", err)
		}
		w = f
		logFile = f
	}

	opts := &slog.HandlerOptions{Level: level(cfg.Level)}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger = slog.New(handler)
	isInited = true
	return nil
}

// InitDefault installs a text handler over stdout at INFO if nothing has
// been initialized yet. Safe to call more than once.
func InitDefault() {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if isInited {
		return
	}
	logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	isInited = true
}

// Close releases any open log file and resets the global logger so Init can
// be called again.
func Close() error {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if !isInited {
		return nil
	}

	var err error
	if logFile != nil {
		err = logFile.Close()
		logFile = nil
	}
	logger = nil
	isInited = false
	initOnce = sync.Once{}
	return err
}

// Get returns the current logger, lazily defaulting on first use.
func Get() *slog.Logger {
	loggerMu.RLock()
	if isInited {
		l := logger
		loggerMu.RUnlock()
		return l
	}
	loggerMu.RUnlock()

	initOnce.Do(InitDefault)

	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

func level(l Level) slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// CategoryLevel maps a dberr.Category to the Level a *dberr.Error of that
// category should be logged at, so callers don't have to duplicate this
// judgment call at every log site: a CategoryUser error (key not found, a
// duplicate insert) is an expected outcome and gets logged at Warn, while
// CategorySystem and CategoryData both indicate something is actually wrong
// (I/O failure, a corrupted page) and get logged at Error.
func CategoryLevel(cat dberr.Category) Level {
	if cat == dberr.CategoryUser {
		return LevelWarn
	}
	return LevelError
}

// LogError logs err on l, using structured attributes instead of a
// formatted string wherever err is a *dberr.Error: component, operation,
// code, and category become their own fields, and the level is picked by
// CategoryLevel rather than always logging at Error. A plain error (one
// that never passed through dberr.New/dberr.Wrap) falls back to a bare
// Error-level log, since there's no component/operation to attach.
func LogError(l *slog.Logger, msg string, err error) {
	var dbErr *dberr.Error
	if !errors.As(err, &dbErr) {
		l.Error(msg, "error", err)
		return
	}

	attrs := []any{
		"code", string(dbErr.Code),
		"component", dbErr.Component,
		"operation", dbErr.Operation,
	}
	if dbErr.Detail != "" {
		attrs = append(attrs, "detail", dbErr.Detail)
	}
	if dbErr.Cause != nil {
		attrs = append(attrs, "cause", dbErr.Cause)
	}

	switch CategoryLevel(dbErr.Category) {
	case LevelWarn:
		l.Warn(msg, attrs...)
	default:
		l.Error(msg, attrs...)
	}
}

func Debug(msg string, args ...any) { Get().Debug(msg, args...) }
func Info(msg string, args ...any)  { Get().Info(msg, args...) }
func Warn(msg string, args ...any)  { Get().Warn(msg, args...) }
func Error(msg string, args ...any) { Get().Error(msg, args...) }
