package logger

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// LevelEnvVar names the environment variable used to override the log level.
const LevelEnvVar = "HYPERTONE_LOG_LEVEL"

var (
	projectLogger *logrus.Logger
	once          sync.Once
)

// GetProjectLogger returns the logger shared by every package in the project.
func GetProjectLogger() *logrus.Logger {
	once.Do(func() {
		projectLogger = newLogger(os.Getenv(LevelEnvVar))
	})
	return projectLogger
}

func newLogger(level string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.InfoLevel)

	if level != "" {
		if lvl, err := logrus.ParseLevel(level); err == nil {
			l.SetLevel(lvl)
		} else {
			l.Warnf("ignoring invalid %s=%q", LevelEnvVar, level)
		}
	}

	return l
}
