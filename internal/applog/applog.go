package applog

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a logrus.Logger writing structured text to stderr. level
// is parsed with logrus.ParseLevel; an invalid level falls back to Info.
func New(level string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)
	return log
}
