package common

import (
	"log/slog"
	"os"
	"strings"
)

// redactedAttrs are log attribute keys whose values are PII and must never be
// written out in full.
var redactedAttrs = map[string]struct{}{
	"name":            {},
	"document_number": {},
	"date_of_birth":   {},
}

// SetupLogger configures the global logger with appropriate settings.
// Attribute values for known PII keys are redacted before they reach any
// handler, so call sites can log record fields without leaking them.
func SetupLogger(level slog.Level, format string) error {
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if _, ok := redactedAttrs[a.Key]; ok {
				a.Value = slog.StringValue(Redact(a.Value.String()))
			}
			return a
		},
	}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	case "console":
		handler = slog.NewTextHandler(os.Stderr, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))

	return nil
}

// Redact masks all but the first rune of a value. Empty values pass through.
func Redact(value string) string {
	if value == "" {
		return value
	}
	runes := []rune(value)
	return string(runes[0]) + strings.Repeat("*", len(runes)-1)
}

// ParseLevel converts a level name to a slog.Level, defaulting to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
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
