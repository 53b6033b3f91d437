package logger

import (
	"strings"

	"github.com/wayneeseguin/syncore/pkg/errs"
)

// Level is a record severity, and for sinks a minimum threshold.
type Level uint8

// Log levels
const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
	// LevelNone is not a record level. Used as a sink threshold it would
	// reject everything, so sinks cannot be registered with it.
	LevelNone
)

var levelNames = [...]string{
	LevelTrace: "TRACE",
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
	LevelFatal: "FATAL",
	LevelNone:  "NONE",
}

// levelTags are the fixed-width forms used in rendered lines.
var levelTags = [...]string{
	LevelTrace: "TRACE",
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO ",
	LevelWarn:  "WARN ",
	LevelError: "ERROR",
	LevelFatal: "FATAL",
}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "UNKNOWN"
}

func (l Level) tag() string {
	if int(l) < len(levelTags) {
		return levelTags[l]
	}
	return "?????"
}

// valid reports whether l can be attached to a record.
func (l Level) valid() bool {
	return l < LevelNone
}

// ParseLevel converts a case-insensitive level name ("warn", "WARNING",
// "info", ...) to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return LevelTrace, nil
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	case "FATAL":
		return LevelFatal, nil
	case "NONE", "OFF":
		return LevelNone, nil
	}
	return LevelNone, errs.New(errs.PrimitiveLogger, "parse level", errs.KindInvalidState)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(text []byte) error {
	v, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func recordLevelNames() []string {
	names := make([]string, LevelNone)
	for i := range names {
		names[i] = levelNames[i]
	}
	return names
}
