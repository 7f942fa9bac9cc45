package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// FormatPlain selects ConsoleLogger in New.
const FormatPlain = "plain"

// Logger defines the interface for logging throughout the application.
// Different implementations can be used for different contexts (console, silent, structured, etc.)
type Logger interface {
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Debug(msg string, args ...interface{})
}

// ConsoleLogger writes plain "[LEVEL] message" lines, for terminals and CI
// logs where structured output is noise.
type ConsoleLogger struct {
	out   io.Writer
	debug bool
	quiet bool // drop Info
}

// NewConsoleLogger writes to stderr so command output on stdout stays clean.
func NewConsoleLogger() *ConsoleLogger {
	return NewConsoleLoggerTo(os.Stderr)
}

// NewConsoleLoggerTo writes to w.
func NewConsoleLoggerTo(w io.Writer) *ConsoleLogger {
	return &ConsoleLogger{out: w}
}

// SetLevel applies a debug/info/warn/error threshold. Error is always written.
func (c *ConsoleLogger) SetLevel(level string) {
	switch strings.ToLower(level) {
	case "debug":
		c.debug, c.quiet = true, false
	case "warn", "error":
		c.debug, c.quiet = false, true
	default:
		c.debug, c.quiet = false, false
	}
}

func (c *ConsoleLogger) Info(msg string, args ...interface{}) {
	if c.quiet {
		return
	}
	fmt.Fprintf(c.out, "[INFO] "+msg+"\n", args...)
}

func (c *ConsoleLogger) Warn(msg string, args ...interface{}) {
	fmt.Fprintf(c.out, "[WARN] "+msg+"\n", args...)
}

func (c *ConsoleLogger) Error(msg string, args ...interface{}) {
	fmt.Fprintf(c.out, "[ERROR] "+msg+"\n", args...)
}

func (c *ConsoleLogger) Debug(msg string, args ...interface{}) {
	if !c.debug {
		return
	}
	fmt.Fprintf(c.out, "[DEBUG] "+msg+"\n", args...)
}

// New picks an implementation by format: "plain" selects ConsoleLogger,
// anything else a zap logger with that encoder.
func New(level, format string) (Logger, error) {
	if strings.EqualFold(format, FormatPlain) {
		l := NewConsoleLogger()
		l.SetLevel(level)
		return l, nil
	}
	return NewZapLogger(level, format)
}

// Sync flushes l if it buffers output.
func Sync(l Logger) error {
	if s, ok := l.(interface{ Sync() error }); ok {
		return s.Sync()
	}
	return nil
}

// SilentLogger discards all log messages.
// Used by the MCP server, where stdout carries the protocol stream.
type SilentLogger struct{}

func NewSilentLogger() *SilentLogger {
	return &SilentLogger{}
}

func (s *SilentLogger) Info(msg string, args ...interface{})  {}
func (s *SilentLogger) Warn(msg string, args ...interface{})  {}
func (s *SilentLogger) Error(msg string, args ...interface{}) {}
func (s *SilentLogger) Debug(msg string, args ...interface{}) {}
