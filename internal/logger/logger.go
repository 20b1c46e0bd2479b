// Package logger is the process-wide structured logger. Every helper is a
// no-op until Init runs, so libraries and tests can log freely.
package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/prompt2production/needled-mobile-sub000/internal/constants"
)

// Logger is nil until Init.
var Logger *log.Logger

var (
	sink    *lumberjack.Logger
	discard = log.New(io.Discard)
)

type Config struct {
	Debug     bool
	ConfigDir string
	// FileName overrides the log file name inside <ConfigDir>/logs.
	FileName string
	// Console mirrors output to stderr at info level even without Debug.
	Console bool
	// JSON switches to one JSON object per line.
	JSON bool
}

func (c Config) level() log.Level {
	switch {
	case c.Debug:
		return log.DebugLevel
	case c.Console:
		return log.InfoLevel
	default:
		return log.WarnLevel
	}
}

// Init opens the rotating log file under <ConfigDir>/logs and installs the
// global logger. Calling it again replaces the previous file.
func Init(cfg Config) error {
	dir := filepath.Join(cfg.ConfigDir, "logs")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	name := cfg.FileName
	if name == "" {
		name = constants.AppName + ".log"
	}

	Close()
	sink = &lumberjack.Logger{
		Filename:   filepath.Join(dir, name),
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	var out io.Writer = sink
	if cfg.Debug || cfg.Console {
		out = io.MultiWriter(os.Stderr, sink)
	}

	opts := log.Options{
		ReportCaller:    cfg.Debug,
		ReportTimestamp: true,
		Level:           cfg.level(),
		Prefix:          constants.AppName,
	}
	if cfg.JSON {
		opts.Formatter = log.JSONFormatter
	}
	Logger = log.NewWithOptions(out, opts)
	return nil
}

// Close flushes and closes the log file.
func Close() error {
	if sink == nil {
		return nil
	}
	err := sink.Close()
	sink = nil
	return err
}

// Named returns a logger tagged with component. Before Init it discards.
func Named(component string) *log.Logger {
	if Logger == nil {
		return discard
	}
	return Logger.With("component", component)
}

func Debug(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Debug(msg, keyvals...)
	}
}

func Info(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Info(msg, keyvals...)
	}
}

func Warn(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Warn(msg, keyvals...)
	}
}

func Error(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Error(msg, keyvals...)
	}
}

// Fatal logs and exits with status 1.
func Fatal(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Fatal(msg, keyvals...)
	}
	os.Exit(1)
}
