package cmd

import (
	"github.com/sirupsen/logrus"
)

// newLogger creates a new logger with the appropriate log level based on the verbose flag.
// If verbose is true, the logger is set to DebugLevel, otherwise it keeps the
// level chosen through LOG_LEVEL.
func newLogger(verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(Logger.Out)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(Logger.GetLevel())
	}
	return log
}
