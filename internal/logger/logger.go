// Package logger provides a leveled, tagged logger on top of the standard log package.
// Level prefixes are colored when the output is a terminal.
package logger

import (
	"log"

	"github.com/fatih/color"
)

// LogLevel selects which messages are written. Higher levels include lower ones.
type LogLevel int

const (
	LogLevelNone LogLevel = iota
	LogLevelError
	LogLevelWarning
	LogLevelInfo
	LogLevelDebug
)

var (
	debugPrefix = color.New(color.FgCyan).SprintFunc()
	warnPrefix  = color.New(color.FgYellow).SprintFunc()
	errorPrefix = color.New(color.FgRed).SprintFunc()
	fatalPrefix = color.New(color.FgRed, color.Bold).SprintFunc()
)

// Logger writes leveled messages with an optional tag to a standard logger.
type Logger struct {
	logger *log.Logger
	level  LogLevel
	tag    string
}

// NewLogger wraps logger, dropping messages above level.
func NewLogger(logger *log.Logger, level LogLevel) *Logger {
	return &Logger{
		logger: logger,
		level:  level,
	}
}

// WithTag returns a logger sharing the output and level that prefixes messages with [tag].
func (l *Logger) WithTag(tag string) *Logger {
	return &Logger{
		logger: l.logger,
		level:  l.level,
		tag:    tag,
	}
}

// Level returns the configured level.
func (l *Logger) Level() LogLevel {
	return l.level
}

func (l *Logger) formatMessage(level string, format string) string {
	if l.tag != "" {
		if level != "" {
			return "[" + l.tag + "] " + level + " " + format
		}
		return "[" + l.tag + "] " + format
	}
	if level != "" {
		return level + " " + format
	}
	return format
}

// Debugf logs at debug level with a colored DEBUG: prefix.
func (l *Logger) Debugf(format string, v ...interface{}) {
	if l.level >= LogLevelDebug {
		l.logger.Printf(l.formatMessage(debugPrefix("DEBUG:"), format), v...)
	}
}

// Infof logs at info level without a level prefix.
func (l *Logger) Infof(format string, v ...interface{}) {
	if l.level >= LogLevelInfo {
		l.logger.Printf(l.formatMessage("", format), v...)
	}
}

// Printf is Infof, so Logger can stand in for *log.Logger.
func (l *Logger) Printf(format string, v ...interface{}) {
	l.Infof(format, v...)
}

// Warnf logs at warning level.
func (l *Logger) Warnf(format string, v ...interface{}) {
	if l.level >= LogLevelWarning {
		l.logger.Printf(l.formatMessage(warnPrefix("WARN:"), format), v...)
	}
}

// Errorf logs at error level.
func (l *Logger) Errorf(format string, v ...interface{}) {
	if l.level >= LogLevelError {
		l.logger.Printf(l.formatMessage(errorPrefix("ERROR:"), format), v...)
	}
}

// Fatalf logs regardless of level and exits.
func (l *Logger) Fatalf(format string, v ...interface{}) {
	l.logger.Fatalf(l.formatMessage(fatalPrefix("FATAL:"), format), v...)
}
