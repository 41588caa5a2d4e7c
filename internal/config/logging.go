package config

import (
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger configures the standard logrus logger and returns it so services can
// hand it to middleware and jobs.
func NewLogger(level, service string) *logrus.Entry {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetOutput(os.Stdout)
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(lvl)
	return logrus.WithField("service", service)
}
