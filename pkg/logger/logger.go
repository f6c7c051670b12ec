package logger

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	once sync.Once
	log  *logrus.Logger
)

// Init configures the package-level logger. level is parsed with
// logrus.ParseLevel; an unrecognized value falls back to info.
func Init(level string) {
	once.Do(func() {
		log = logrus.New()
		log.SetOutput(os.Stdout)
		log.SetFormatter(&logrus.JSONFormatter{})
	})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)
}

// GetLogger returns the package-level logger, initializing it at info
// level on first use so packages that only import logger for a handful of
// calls don't need to call Init explicitly.
func GetLogger() *logrus.Logger {
	once.Do(func() {
		log = logrus.New()
		log.SetOutput(os.Stdout)
		log.SetFormatter(&logrus.JSONFormatter{})
		log.SetLevel(logrus.InfoLevel)
	})
	return log
}
