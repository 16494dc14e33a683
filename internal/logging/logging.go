// ABOUTME: Process-wide logrus configuration and component loggers
// ABOUTME: Logs go to stderr so stdout stays free for answers and the MCP stdio transport
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Format selects the log line encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Init configures the standard logrus logger.
// level is one of logrus' level names ("debug", "info", "warn", ...).
func Init(level string, format Format) error {
	return Configure(logrus.StandardLogger(), os.Stderr, level, format)
}

// Configure applies level, format and output to the given logger
func Configure(logger *logrus.Logger, out io.Writer, level string, format Format) error {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	switch format {
	case FormatJSON, "":
		logger.SetFormatter(&logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	case FormatText:
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("invalid log format %q", format)
	}

	logger.SetOutput(out)
	logger.SetLevel(lvl)
	return nil
}

// New returns an entry tagged with the component name
func New(component string) *logrus.Entry {
	return logrus.WithField("component", component)
}

// Discard returns a logger that drops everything (for tests and quiet mode)
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// OrDefault returns l, or a component logger when l is nil
func OrDefault(l logrus.FieldLogger, component string) logrus.FieldLogger {
	if l != nil {
		return l
	}
	return New(component)
}
