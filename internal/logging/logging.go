package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config contains logging configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string
	// FilePath is the log file.
	FilePath string
	// MaxSizeMB is the size that triggers rotation.
	MaxSizeMB int
	// MaxFiles is the number of rotated files kept next to the active one.
	MaxFiles int
	// WriteToStderr tees log lines to stderr.
	WriteToStderr bool
}

// DefaultConfig logs info and above to the default file only.
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		FilePath:  DefaultLogPath(),
		MaxSizeMB: 10,
		MaxFiles:  5,
	}
}

// DebugConfig returns configuration for --debug runs.
func DebugConfig() Config {
	cfg := DefaultConfig()
	cfg.Level = "debug"
	return cfg
}

// Setup builds a JSON logger over a rotating file. The returned cleanup
// flushes and closes the file.
func Setup(cfg Config) (*slog.Logger, func(), error) {
	if cfg.FilePath == "" {
		cfg.FilePath = DefaultLogPath()
	}
	writer, err := NewRotatingWriter(cfg.FilePath, cfg.MaxSizeMB, cfg.MaxFiles)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	var output io.Writer = writer
	if cfg.WriteToStderr {
		output = io.MultiWriter(writer, os.Stderr)
	}

	handler := slog.NewJSONHandler(output, &slog.HandlerOptions{Level: LevelFromString(cfg.Level)})

	cleanup := func() {
		_ = writer.Sync()
		_ = writer.Close()
	}
	return slog.New(handler), cleanup, nil
}

// SetupDefault installs the CLI logger as the slog default. level overrides
// the configured level unless debug is set.
func SetupDefault(level string, debug bool) (func(), error) {
	cfg := DefaultConfig()
	if level != "" {
		cfg.Level = level
	}
	if debug {
		cfg.Level = "debug"
	}

	logger, cleanup, err := Setup(cfg)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return cleanup, nil
}

// Discard installs a logger that drops everything. Used when the log file
// cannot be opened, so that library logging never reaches the terminal.
func Discard() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(io.Discard, nil)))
}

// LevelFromString converts a level name to slog.Level. Unknown names mean
// info.
func LevelFromString(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
