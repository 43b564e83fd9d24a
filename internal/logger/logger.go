package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

type Config struct {
	Level  string
	Format string // "text", "json", "logfmt"
	Output io.Writer
}

var (
	once sync.Once
	lg   *log.Logger
)

// Init builds the process logger once and installs it as the charm default.
func Init(cfg Config) {
	once.Do(func() {
		lg = New(cfg)
		log.SetDefault(lg)
	})
}

// L returns the process logger, initialising a text logger at info if
// nothing called Init.
func L() *log.Logger {
	Init(Config{Level: "info", Format: "text"})
	return lg
}

// New returns a standalone logger for cfg.
func New(cfg Config) *log.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	l := log.NewWithOptions(cfg.Output, log.Options{
		Level:           parseLevel(cfg.Level),
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Formatter:       parseFormat(cfg.Format),
	})
	return l
}

func parseLevel(s string) log.Level {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

func parseFormat(s string) log.Formatter {
	switch strings.ToLower(s) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}
