package main

import (
	"io"
	"log/slog"
	"os"
)

// newLogger builds the process-wide structured logger: JSON when the
// operator asked for --json output or stderr isn't a terminal, text
// otherwise. It always writes to stderr so a logged line never
// corrupts a --format receipts or --json stdout stream.
func newLogger(stderr io.Writer, args []string) *slog.Logger {
	jsonRequested := false
	for _, a := range args {
		if a == "--json" {
			jsonRequested = true
			break
		}
	}
	isTTY := false
	if f, ok := stderr.(*os.File); ok {
		if fi, err := f.Stat(); err == nil {
			isTTY = fi.Mode()&os.ModeCharDevice != 0
		}
	}

	var handler slog.Handler
	if jsonRequested || !isTTY {
		handler = slog.NewJSONHandler(stderr, nil)
	} else {
		handler = slog.NewTextHandler(stderr, nil)
	}
	return slog.New(handler)
}
