package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New builds a text logger writing to stderr. Unknown levels fall back to info with a warning.
func New(level string) *logrus.Logger {
	return NewWithOutput(level, os.Stderr)
}

func NewWithOutput(level string, output io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(output)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if parsed, err := logrus.ParseLevel(strings.ToLower(level)); err == nil {
		logger.SetLevel(parsed)
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.WithField("invalid_level", level).Warn("Invalid log level, using info")
	}

	return logger
}

// Component returns an entry tagged with the component name and run id
func Component(logger *logrus.Logger, component, runID string) *logrus.Entry {
	return logger.WithFields(logrus.Fields{
		"component": component,
		"run_id":    runID,
	})
}
