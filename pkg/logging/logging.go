package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Config selects how the process logs.
type Config struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
	Caller bool   `mapstructure:"caller"`
}

var logFile *os.File

/*
Init configures the default charmbracelet logger. With File set, output is
written to the file as well as to stderr.
*/
func Init(cfg Config) error {
	level := log.InfoLevel

	if cfg.Level != "" {
		parsed, err := log.ParseLevel(cfg.Level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}

		level = parsed
	}

	formatter, err := parseFormat(cfg.Format)
	if err != nil {
		return err
	}

	var out io.Writer = os.Stderr

	if cfg.File != "" {
		Close()

		if logFile, err = os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644); err != nil {
			return fmt.Errorf("failed to open log file %s: %w", cfg.File, err)
		}

		out = io.MultiWriter(os.Stderr, logFile)
	}

	log.SetOutput(out)
	log.SetLevel(level)
	log.SetFormatter(formatter)
	log.SetReportTimestamp(true)
	log.SetTimeFormat(time.DateTime)
	log.SetReportCaller(cfg.Caller)

	return nil
}

func parseFormat(format string) (log.Formatter, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return log.TextFormatter, nil
	case "json":
		return log.JSONFormatter, nil
	case "logfmt":
		return log.LogfmtFormatter, nil
	default:
		return log.TextFormatter, fmt.Errorf("unknown log format %q", format)
	}
}

// Close closes the log file, if any, and points the logger back at stderr.
func Close() {
	if logFile == nil {
		return
	}

	log.SetOutput(os.Stderr)
	logFile.Close()
	logFile = nil
}
