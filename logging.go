package main

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gearitforward/gearscout-sync/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// setupLogging configures the package-level logger. When a log file is set,
// output also goes to a rotating file, which is returned so it can be closed.
func setupLogging(cfg config.LogConfig) *lumberjack.Logger {
	if strings.EqualFold(cfg.Format, "json") {
		log.SetFormatter(log.JSONFormatter)
	}
	if level, err := log.ParseLevel(cfg.Level); err == nil {
		log.SetLevel(level)
	} else {
		log.Warn("Unknown log level, using info", "level", cfg.Level)
	}
	log.SetReportTimestamp(true)

	if cfg.File == "" {
		return nil
	}
	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     14, // days
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, rotator))
	return rotator
}
