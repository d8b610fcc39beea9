// Package logger provides the console implementation of ports.Logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/mattn/go-isatty"

	"github.com/user/mcapvideo/pkg/ports"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGray   = "\033[90m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
)

// ConsoleLogger writes translated messages to the terminal. Debug and info
// messages go to stdout, warnings and errors to stderr.
type ConsoleLogger struct {
	level     ports.LogLevel
	component string
	color     bool

	elapsed bool
	start   time.Time
	now     func() time.Time

	stdout io.Writer
	stderr io.Writer
}

// Option configures a ConsoleLogger.
type Option func(*ConsoleLogger)

// WithColor forces color output on or off.
func WithColor(enabled bool) Option {
	return func(l *ConsoleLogger) {
		l.color = enabled
	}
}

// WithWriters sets the streams for debug/info and warn/error messages.
func WithWriters(stdout, stderr io.Writer) Option {
	return func(l *ConsoleLogger) {
		l.stdout = stdout
		l.stderr = stderr
	}
}

// WithElapsed prefixes every line with the time since the logger was
// created. now defaults to time.Now.
func WithElapsed(now func() time.Time) Option {
	return func(l *ConsoleLogger) {
		if now == nil {
			now = time.Now
		}
		l.elapsed = true
		l.now = now
		l.start = now()
	}
}

// NewConsole creates a console logger with the specified level.
// Color output is enabled when stdout is a terminal unless overridden.
func NewConsole(level ports.LogLevel, opts ...Option) *ConsoleLogger {
	l := &ConsoleLogger{
		level:  level,
		color:  isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()),
		now:    time.Now,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewConsoleWriters creates a console logger without color on the given
// streams.
func NewConsoleWriters(level ports.LogLevel, stdout, stderr io.Writer) *ConsoleLogger {
	return NewConsole(level, WithColor(false), WithWriters(stdout, stderr))
}

// NewNoop returns a logger that discards every message.
func NewNoop() *ConsoleLogger {
	return NewConsoleWriters(ports.LevelQuiet, io.Discard, io.Discard)
}

// Debug logs a debug message.
func (l *ConsoleLogger) Debug(msg string, args ...interface{}) {
	l.log(ports.LevelDebug, msg, args...)
}

// Info logs an informational message.
func (l *ConsoleLogger) Info(msg string, args ...interface{}) {
	l.log(ports.LevelInfo, msg, args...)
}

// Warn logs a warning message.
func (l *ConsoleLogger) Warn(msg string, args ...interface{}) {
	l.log(ports.LevelWarn, msg, args...)
}

// Error logs an error message.
func (l *ConsoleLogger) Error(msg string, args ...interface{}) {
	l.log(ports.LevelError, msg, args...)
}

// WithComponent returns a copy of the logger that tags lines with component.
func (l *ConsoleLogger) WithComponent(component string) ports.Logger {
	c := *l
	c.component = component
	return &c
}

func (l *ConsoleLogger) log(level ports.LogLevel, msg string, args ...interface{}) {
	if level < l.level {
		return
	}

	var b strings.Builder
	if l.elapsed {
		fmt.Fprintf(&b, "[%7.1fs] ", l.now().Sub(l.start).Seconds())
	}
	if l.component != "" {
		if l.color {
			fmt.Fprintf(&b, "%s[%s]%s ", colorCyan, l.component, colorReset)
		} else {
			fmt.Fprintf(&b, "[%s] ", l.component)
		}
	}

	// Without color the severity is spelled out.
	if !l.color {
		switch level {
		case ports.LevelWarn:
			b.WriteString(l10n.T("Warning: "))
		case ports.LevelError:
			b.WriteString(l10n.T("Error: "))
		}
	}
	b.WriteString(l10n.F(msg, args...))

	line := b.String()
	if l.color {
		switch level {
		case ports.LevelDebug:
			line = colorGray + line + colorReset
		case ports.LevelWarn:
			line = colorYellow + line + colorReset
		case ports.LevelError:
			line = colorRed + line + colorReset
		}
	}

	w := l.stdout
	if level >= ports.LevelWarn {
		w = l.stderr
	}
	fmt.Fprintln(w, line)
}

var _ ports.Logger = (*ConsoleLogger)(nil)
