// Package logging configures the process-wide zerolog logger.
//
// Output goes to two places: a human-readable console writer on stderr and a
// plain-text rolling log file in the working directory. The file is rotated
// by size when the logger is opened, keeping a single previous generation.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// DefaultFile is the operational log file name.
const DefaultFile = "instagram-bot.log"

// maxLogSize is the size at which the log file is rolled on open.
const maxLogSize = 5 << 20 // 5 MiB

// New returns a logger writing to stderr and, when the file can be opened,
// to the rolling log at path. File problems degrade to console-only logging.
func New(path string) zerolog.Logger {
	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}

	writers := []io.Writer{console}
	if f := openRolling(path); f != nil {
		writers = append(writers, zerolog.ConsoleWriter{Out: f, TimeFormat: time.RFC3339, NoColor: true})
	}

	return zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
}

// Nop returns a logger that discards everything. For tests.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

// openRolling opens path for appending, rotating it aside first when it has
// grown past maxLogSize. Returns nil when the file cannot be opened.
func openRolling(path string) *os.File {
	if info, err := os.Stat(path); err == nil && info.Size() > maxLogSize {
		// Best-effort rotation; an error just means we keep appending.
		_ = os.Rename(path, path+".1")
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil
	}
	return f
}
