// Package logging builds the charmbracelet loggers the commands share.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// New creates a timestamped logger writing to w, which defaults to os.Stderr.
// An unknown level falls back to info.
func New(w io.Writer, level string) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	l := log.NewWithOptions(w, log.Options{ReportTimestamp: true})
	l.SetLevel(ParseLevel(level))
	return l
}

// NewFile appends to the log file at path, creating its directory. The TUI
// logs here while it owns the terminal.
func NewFile(path, level string) (*log.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, nil, fmt.Errorf("error creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening log file: %w", err)
	}
	l := log.NewWithOptions(f, log.Options{ReportTimestamp: true, Formatter: log.LogfmtFormatter})
	l.SetLevel(ParseLevel(level))
	return l, f, nil
}

func ParseLevel(level string) log.Level {
	lvl, err := log.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}
