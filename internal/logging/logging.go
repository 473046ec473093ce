// Package logging builds the zerolog logger described by the logging configuration.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/dysession"
)

// New returns a logger writing to stdout or appending to the configured file. Console output is
// coloured when stdout is a terminal and JSON otherwise. The returned closer releases the log file.
func New(cfg dysession.LoggingConfig) (zerolog.Logger, io.Closer, error) {
	switch strings.ToLower(cfg.Type) {
	case dysession.LoggingFile:
		f, err := os.OpenFile(cfg.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("failed to open log file: %w", err)
		}

		logger, err := NewWithWriter(f, cfg.Level)
		if err != nil {
			_ = f.Close()
			return zerolog.Nop(), nil, err
		}

		return logger, f, nil
	default:
		var w io.Writer = os.Stdout
		if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
			w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		}

		logger, err := NewWithWriter(w, cfg.Level)
		if err != nil {
			return zerolog.Nop(), nil, err
		}

		return logger, nopCloser{}, nil
	}
}

// NewWithWriter returns a logger at the named level writing to w, an empty level means info.
func NewWithWriter(w io.Writer, level string) (zerolog.Logger, error) {
	lvl := zerolog.InfoLevel

	if level != "" {
		var err error

		lvl, err = zerolog.ParseLevel(strings.ToLower(level))
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
