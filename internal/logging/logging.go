package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// AppName is attached to every log entry.
const AppName = "mtn"

var Log *logrus.Logger

func init() {
	Log = logrus.New()
	Log.Out = os.Stderr
	Log.Formatter = &logrus.TextFormatter{DisableTimestamp: true}
	Log.Level = logrus.InfoLevel
	Log.AddHook(&DefaultFieldsHook{})
}

type DefaultFieldsHook struct {
}

func (hook *DefaultFieldsHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (hook *DefaultFieldsHook) Fire(e *logrus.Entry) error {
	e.Data["app"] = AppName
	return nil
}

// Configure applies the level ("debug", "info", ...) and format ("text" or
// "json") from the config file to Log.
func Configure(level, format string) error {
	if level != "" {
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
		Log.SetLevel(lvl)
	}
	switch format {
	case "", "text":
		Log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	case "json":
		Log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("invalid log format %q (want text or json)", format)
	}
	return nil
}

// Discard returns a logger that drops everything; handy for tests.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.Out = io.Discard
	return l
}
