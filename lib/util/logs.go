package util

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// SetLogLevel maps a level string from the environment onto the logger.
// Unknown values fall back to info.
func SetLogLevel(logger *logrus.Logger, level string) {
	switch strings.ToLower(level) {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "warn", "warning":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}
}

// NewLogger builds the portal's standard JSON logger, pretty-printed for
// local runs.
func NewLogger(level string, isLocal bool) *logrus.Logger {
	logger := logrus.New()
	SetLogLevel(logger, level)
	logger.SetFormatter(&logrus.JSONFormatter{PrettyPrint: isLocal})
	return logger
}
