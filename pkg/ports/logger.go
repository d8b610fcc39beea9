// Package ports defines the interfaces between the conversion pipeline and
// its adapters.
package ports

import "strings"

// LogLevel represents the severity level of a log message.
type LogLevel int

const (
	// LevelDebug is for per-record details such as decoded sizes and
	// dropped access units.
	LevelDebug LogLevel = iota
	// LevelInfo is for run progress and the completion report.
	LevelInfo
	// LevelWarn is for skipped records and other recoverable problems.
	LevelWarn
	// LevelError is for problems that end the run.
	LevelError
	// LevelQuiet suppresses all log output.
	LevelQuiet
)

var levelNames = [...]string{"debug", "info", "warn", "error", "quiet"}

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return "unknown"
	}
	return levelNames[l]
}

// ParseLogLevel parses a level name case-insensitively. "warning" is
// accepted for warn. Unknown names give LevelInfo.
func ParseLogLevel(s string) LogLevel {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		return LevelWarn
	}
	for i, name := range levelNames {
		if name == s {
			return LogLevel(i)
		}
	}
	return LevelInfo
}

// Logger abstracts logging with translated messages. msg is both a format
// string and the lexicon key, so callers pass the untranslated format and
// its arguments separately.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})

	// WithComponent returns a Logger that tags lines with component,
	// e.g. "decode" or "remux".
	WithComponent(component string) Logger
}
