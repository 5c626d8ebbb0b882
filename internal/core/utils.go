package core

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// NewLogger returns the stderr logger shared by all components.
// verbose enables debug output, quiet limits output to warnings and errors.
func NewLogger(w io.Writer, verbose, quiet bool) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	level := log.InfoLevel
	switch {
	case verbose:
		level = log.DebugLevel
	case quiet:
		level = log.WarnLevel
	}
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: verbose,
		TimeFormat:      time.Kitchen,
	})
}

// OrDiscard returns logger, or a logger that drops everything when logger is nil.
func OrDiscard(logger *log.Logger) *log.Logger {
	if logger != nil {
		return logger
	}
	return log.New(io.Discard)
}

// SplitList tokenizes a separator-delimited list, dropping blank entries.
// Surrounding whitespace of each entry is removed.
func SplitList(s string, sep rune) []string {
	var out []string
	for _, tok := range strings.Split(s, string(sep)) {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// RandomToken returns a fresh random string. Used as throwaway file content
// where only the write itself matters.
func RandomToken() string {
	return uuid.NewString()
}
