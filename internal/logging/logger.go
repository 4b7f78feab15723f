package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Format is the output encoding of log records.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// New builds a logger writing to out at the named level ("debug", "info",
// "warn", "error") in the named format.
func New(out io.Writer, level string, format Format) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch Format(strings.ToLower(string(format))) {
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(out, opts)), nil
	case FormatText, "":
		return slog.New(slog.NewTextHandler(out, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}
