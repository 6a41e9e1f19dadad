package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/dcurrey/dupReport/internal/config"
)

// LevelFor maps the 0-3 verbosity setting onto a logrus level.
func LevelFor(verbose int) logrus.Level {
	switch {
	case verbose <= 0:
		return logrus.ErrorLevel
	case verbose == 1:
		return logrus.InfoLevel
	case verbose == 2:
		return logrus.DebugLevel
	default:
		return logrus.TraceLevel
	}
}

// setupLogging points logrus at the configured log file.
func setupLogging(cfg *config.Config) (*os.File, error) {
	switch cfg.Main.LogFormat {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	}
	logrus.SetLevel(LevelFor(cfg.Main.Verbose))

	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if cfg.Main.LogAppend {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(cfg.LogFile, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logrus.SetOutput(f)
	return f, nil
}
