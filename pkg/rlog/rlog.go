// Package rlog wires up the zerolog logger used across rigd: a console
// sink for the operator's terminal and a rotating file sink for the
// rig's own tmpdir log, which gets swept into the final archive.
package rlog

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls how New builds a logger.
type Config struct {
	// Level is a zerolog level string (debug, info, warn, error).
	Level string
	// Pretty enables the colored console writer instead of JSON lines.
	Pretty bool
	// FilePath, if set, adds a rotating file sink at this path.
	FilePath string
}

// New builds a zerolog.Logger per cfg. The returned logger always writes
// to stderr; FilePath additionally fans out to a lumberjack-rotated file.
func New(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var console io.Writer = os.Stderr
	if cfg.Pretty {
		console = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	}

	writers := []io.Writer{console}
	if cfg.FilePath != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    1, // megabytes
			MaxBackups: 5,
			MaxAge:     0,
			Compress:   false,
		})
	}

	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger()
}
