package helpers

import (
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the process logger. Development defaults to colored text
// at debug level, other environments to JSON at info. level overrides the
// default when it parses; an unknown level is reported and ignored.
func NewLogger(appName, env, level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.JSONFormatter{})
	if env == "development" {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	entry := logger.WithFields(logrus.Fields{"app": appName, "env": env})
	if level != "" {
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			entry.WithError(err).Warn("ignoring LOG_LEVEL")
		} else {
			logger.SetLevel(lvl)
		}
	}
	entry.WithField("level", logger.GetLevel().String()).Info("logger initialized")
	return logger
}
