// Package logger configures the process-wide logrus logger.
package logger

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// Configure sets the standard logger's level and output format. Format is
// "json" (default) or "text".
func Configure(level, format string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	logrus.SetLevel(lvl)
	logrus.SetOutput(os.Stderr)

	switch format {
	case "", "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("invalid log format %q", format)
	}

	return nil
}
