// Package logging builds the zerolog logger shared by every plugin context.
//
// The plugin lives inside a host process, so it never writes to stdout: logs go
// to stderr or to the configured file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/ironsheep/vision-tools-plugin/internal/config"
)

// Logger wraps zerolog.Logger with the file it may own.
type Logger struct {
	zerolog.Logger
	file *os.File
}

// New creates a logger from the plugin configuration. An unknown level falls
// back to warn.
func New(cfg config.Config) (*Logger, error) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.WarnLevel
	}

	var (
		writer io.Writer = os.Stderr
		file   *os.File
	)
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		file, err = os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		writer = file
	} else if cfg.LogPretty {
		writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	logger := zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Str("component", "vision-plugin").
		Logger()

	return &Logger{Logger: logger, file: file}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}
