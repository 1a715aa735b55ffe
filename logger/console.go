package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

const isWindows = runtime.GOOS == "windows"

var noColor = os.Getenv("TERM") == "dumb" ||
	(!isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()))

func color(val string) string {
	if isWindows || noColor {
		return ""
	}
	return val
}

const (
	reset  = "\033[0m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
	gray   = "\033[1;90m"
)

var levelNames = map[LogLevel]string{
	LevelTrace: "TRACE",
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

var levelColors = map[LogLevel]string{
	LevelTrace: gray,
	LevelDebug: cyan,
	LevelInfo:  green,
	LevelWarn:  yellow,
	LevelError: red,
}

type consoleLogger struct {
	level    LogLevel
	prefixes []string
	metadata map[string]interface{}
	sink     io.Writer
	mu       *sync.Mutex
}

var _ Logger = (*consoleLogger)(nil)

func (c *consoleLogger) clone() *consoleLogger {
	metadata := make(map[string]interface{}, len(c.metadata))
	for k, v := range c.metadata {
		metadata[k] = v
	}
	prefixes := make([]string, len(c.prefixes))
	copy(prefixes, c.prefixes)
	return &consoleLogger{
		level:    c.level,
		prefixes: prefixes,
		metadata: metadata,
		sink:     c.sink,
		mu:       c.mu,
	}
}

func (c *consoleLogger) With(metadata map[string]interface{}) Logger {
	l := c.clone()
	for k, v := range metadata {
		l.metadata[k] = v
	}
	return l
}

// WithPrefix will return a new logger with a prefix prepended to the message
func (c *consoleLogger) WithPrefix(prefix string) Logger {
	l := c.clone()
	if !slices.Contains(l.prefixes, prefix) {
		l.prefixes = append(l.prefixes, prefix)
	}
	return l
}

func (c *consoleLogger) IsLevelEnabled(level LogLevel) bool {
	return level >= c.level
}

func (c *consoleLogger) log(level LogLevel, msg string, args ...interface{}) {
	if !c.IsLevelEnabled(level) {
		return
	}
	var buf strings.Builder
	buf.WriteString(color(gray))
	buf.WriteString(time.Now().Format("2006-01-02 15:04:05.000"))
	buf.WriteString(color(reset))
	buf.WriteString(" ")
	buf.WriteString(color(levelColors[level]))
	buf.WriteString(fmt.Sprintf("[%s]", levelNames[level]))
	buf.WriteString(color(reset))
	buf.WriteString(" ")
	if len(c.prefixes) > 0 {
		buf.WriteString(strings.Join(c.prefixes, " "))
		buf.WriteString(" ")
	}
	buf.WriteString(fmt.Sprintf(msg, args...))
	if len(c.metadata) > 0 {
		if data, err := json.Marshal(c.metadata); err == nil {
			buf.WriteString(" ")
			buf.WriteString(color(gray))
			buf.Write(data)
			buf.WriteString(color(reset))
		}
	}
	buf.WriteString("\n")
	c.mu.Lock()
	defer c.mu.Unlock()
	io.WriteString(c.sink, buf.String())
}

func (c *consoleLogger) Trace(msg string, args ...interface{}) {
	c.log(LevelTrace, msg, args...)
}

func (c *consoleLogger) Debug(msg string, args ...interface{}) {
	c.log(LevelDebug, msg, args...)
}

func (c *consoleLogger) Info(msg string, args ...interface{}) {
	c.log(LevelInfo, msg, args...)
}

func (c *consoleLogger) Warn(msg string, args ...interface{}) {
	c.log(LevelWarn, msg, args...)
}

func (c *consoleLogger) Error(msg string, args ...interface{}) {
	c.log(LevelError, msg, args...)
}

// NewConsole returns a Logger that writes human-readable lines to stderr.
func NewConsole(level LogLevel) Logger {
	return NewConsoleWith(os.Stderr, level)
}

// NewConsoleWith returns a console Logger writing to the given sink.
func NewConsoleWith(sink io.Writer, level LogLevel) Logger {
	return &consoleLogger{
		level: level,
		sink:  sink,
		mu:    &sync.Mutex{},
	}
}
