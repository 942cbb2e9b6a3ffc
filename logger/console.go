package logger

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"runtime"
	"sort"
	"strings"

	"github.com/mattn/go-isatty"
)

const isWindows = runtime.GOOS == "windows"

var noColor = os.Getenv("TERM") == "dumb" ||
	(!isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()))

func color(val string) string {
	if isWindows || noColor {
		return ""
	}
	return val
}

const (
	reset      = "\033[0m"
	red        = "\033[31m"
	green      = "\033[32m"
	yellow     = "\033[33m"
	cyan       = "\033[36m"
	gray       = "\033[1;90m"
	redBold    = "\033[31;1m"
	yellowBold = "\033[33;1m"
)

type consoleLogger struct {
	prefixes []string
	metadata map[string]interface{}
	logLevel LogLevel
}

var _ Logger = (*consoleLogger)(nil)

// NewConsoleLogger returns a new Logger instance which will log to the console
func NewConsoleLogger(levels ...LogLevel) Logger {
	level := GetLevelFromEnv()
	if len(levels) > 0 {
		level = levels[0]
	}
	return &consoleLogger{
		logLevel: level,
		metadata: map[string]interface{}{},
	}
}

func (c *consoleLogger) clone() *consoleLogger {
	metadata := make(map[string]interface{}, len(c.metadata))
	for k, v := range c.metadata {
		metadata[k] = v
	}
	return &consoleLogger{
		prefixes: append([]string{}, c.prefixes...),
		metadata: metadata,
		logLevel: c.logLevel,
	}
}

func (c *consoleLogger) With(metadata map[string]interface{}) Logger {
	clone := c.clone()
	for k, v := range metadata {
		clone.metadata[k] = v
	}
	return clone
}

func (c *consoleLogger) WithPrefix(prefix string) Logger {
	clone := c.clone()
	clone.prefixes = append(clone.prefixes, prefix)
	return clone
}

func (c *consoleLogger) IsLevelEnabled(level LogLevel) bool {
	return level >= c.logLevel
}

func (c *consoleLogger) suffix() string {
	if len(c.metadata) == 0 {
		return ""
	}
	keys := make([]string, 0, len(c.metadata))
	for k := range c.metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		buf, err := json.Marshal(c.metadata[k])
		if err != nil {
			continue
		}
		sb.WriteString(fmt.Sprintf(" %s=%s", k, string(buf)))
	}
	return color(gray) + sb.String() + color(reset)
}

func (c *consoleLogger) write(levelColor string, level string, msgColor string, msg string, args ...interface{}) {
	var prefix string
	if len(c.prefixes) > 0 {
		prefix = strings.Join(c.prefixes, " ") + " "
	}
	formatted := msg
	if len(args) > 0 {
		formatted = fmt.Sprintf(msg, args...)
	}
	log.Printf("%s[%s]%s %s%s%s%s%s\n",
		color(levelColor), level, color(reset),
		prefix,
		color(msgColor), formatted, color(reset),
		c.suffix(),
	)
}

func (c *consoleLogger) Trace(msg string, args ...interface{}) {
	if c.IsLevelEnabled(LevelTrace) {
		c.write(gray, "TRACE", gray, msg, args...)
	}
}

func (c *consoleLogger) Debug(msg string, args ...interface{}) {
	if c.IsLevelEnabled(LevelDebug) {
		c.write(cyan, "DEBUG", "", msg, args...)
	}
}

func (c *consoleLogger) Info(msg string, args ...interface{}) {
	if c.IsLevelEnabled(LevelInfo) {
		c.write(green, "INFO ", "", msg, args...)
	}
}

func (c *consoleLogger) Warn(msg string, args ...interface{}) {
	if c.IsLevelEnabled(LevelWarn) {
		c.write(yellowBold, "WARN ", yellow, msg, args...)
	}
}

func (c *consoleLogger) Error(msg string, args ...interface{}) {
	if c.IsLevelEnabled(LevelError) {
		c.write(redBold, "ERROR", red, msg, args...)
	}
}

func (c *consoleLogger) Fatal(msg string, args ...interface{}) {
	c.write(redBold, "FATAL", red, msg, args...)
	os.Exit(1)
}
