package main

import (
	"io"
	"log/slog"

	charmlog "github.com/charmbracelet/log"

	"storefront/internal/config"
)

// newLogger builds the process logger: colored, timestamped text in
// development and JSON everywhere else.
func newLogger(w io.Writer, cfg *config.Config) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}

	if cfg.IsDev() {
		return slog.New(charmlog.NewWithOptions(w, charmlog.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           charmlog.Level(level),
		})), nil
	}

	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})), nil
}
