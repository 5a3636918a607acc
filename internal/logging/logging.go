// Package logging builds the shared logrus logger used across the backend.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a JSON-formatted logger at the given level. Unknown level
// strings fall back to info so a typo in LOG_LEVEL never silences the app.
func New(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)

	return log
}
