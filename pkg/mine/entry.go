package mine

import (
	"strings"
	"time"
)

// Level is a normalized log severity label.
type Level string

const (
	LevelDebug       Level = "debug"
	LevelInformation Level = "information"
	LevelWarning     Level = "warning"
	LevelError       Level = "error"
	LevelFatal       Level = "fatal"
)

// levelWeights orders severities for the cluster severity update rule.
// Unknown levels weigh 0 and never displace a known severity.
var levelWeights = map[Level]int{
	LevelDebug:       1,
	LevelInformation: 2,
	LevelWarning:     3,
	LevelError:       4,
	LevelFatal:       5,
}

// Weight returns the severity ordering weight of the level.
func (l Level) Weight() int {
	return levelWeights[l]
}

// ParseLevel normalizes common severity spellings to a Level.
// Unrecognized input is returned lowercased as-is with weight 0.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "dbg", "trace":
		return LevelDebug
	case "info", "information", "notice":
		return LevelInformation
	case "warn", "warning":
		return LevelWarning
	case "error", "err":
		return LevelError
	case "fatal", "panic", "critical":
		return LevelFatal
	}
	return Level(strings.ToLower(strings.TrimSpace(s)))
}

// LogEntry is one observed log record. The mining pipeline reads it but
// never mutates it; ownership stays with the caller.
type LogEntry struct {
	Message   string
	Timestamp time.Time
	Level     Level
}
