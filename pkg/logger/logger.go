// Package logger wraps logrus with the output and rotation settings used by
// every binary in this module.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls how the application logger is built.
type Options struct {
	Level  string // logrus level name, defaults to info
	Format string // "json" or "text"
	Output string // "stdout", "file" or "both"
	File   string // log file path when Output includes file
}

var (
	mu  sync.Mutex
	app *logrus.Logger
)

// Init (re)builds the application logger. It is safe to call before any
// other package asks for GetAppLogger.
func Init(opts Options) error {
	l, err := build(opts)
	if err != nil {
		return err
	}

	mu.Lock()
	app = l
	mu.Unlock()
	return nil
}

// GetAppLogger returns the application logger, building a stdout text logger
// on first use when Init was never called (tests, CLI).
func GetAppLogger() *logrus.Logger {
	mu.Lock()
	defer mu.Unlock()

	if app == nil {
		app, _ = build(Options{})
	}
	return app
}

func build(opts Options) (*logrus.Logger, error) {
	l := logrus.New()

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if opts.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05.000",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
				logrus.FieldKeyFunc:  "function",
				logrus.FieldKeyFile:  "file",
			},
		})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000",
			CallerPrettyfier: func(f *runtime.Frame) (string, string) {
				s := strings.Split(f.Function, ".")
				return s[len(s)-1], fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
			},
		})
	}

	var writers []io.Writer
	if opts.Output == "file" || opts.Output == "both" {
		if opts.File == "" {
			return nil, fmt.Errorf("log output %q requires a log file", opts.Output)
		}
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    100, // MB
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		})
	}
	if opts.Output != "file" {
		writers = append(writers, os.Stdout)
	}
	l.SetOutput(io.MultiWriter(writers...))
	l.SetReportCaller(true)

	return l, nil
}
