// Package logging builds the diagnostic zap logger for sentlabel.
//
// Diagnostics go to a JSON file under the logs directory and, with
// --verbose, to stderr. They are separate from the per-session log file
// written by package sessionlog. Each subsystem logs through a named child
// logger for its Category; categories can be switched off in config.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"sentlabel/internal/config"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot      Category = "boot"      // Startup, config, directory bootstrap
	CategorySession   Category = "session"   // Labeling loop
	CategoryValidate  Category = "validate"  // Record rejections
	CategoryResume    Category = "resume"    // Prior-output detection
	CategoryReconcile Category = "reconcile" // Output reconciliation
	CategoryMerge     Category = "merge"     // Output merging
	CategoryReport    Category = "report"    // Report and session log writes
	CategoryStore     Category = "store"     // JSON file I/O
)

// AllCategories lists every category, for help and config templates.
var AllCategories = []Category{
	CategoryBoot, CategorySession, CategoryValidate, CategoryResume,
	CategoryReconcile, CategoryMerge, CategoryReport, CategoryStore,
}

// Options controls logger construction.
type Options struct {
	Config  config.LoggingConfig
	LogsDir string
	Verbose bool      // tee debug-level console output
	Stderr  io.Writer // console destination; defaults to os.Stderr
}

// Logger is the root diagnostic logger plus the file it owns.
type Logger struct {
	*zap.Logger
	cfg  config.LoggingConfig
	file *os.File
}

// New creates the root logger. With no file configured and Verbose off it
// returns a no-op logger.
func New(opts Options) (*Logger, error) {
	level, err := zapcore.ParseLevel(opts.Config.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", opts.Config.Level, err)
	}

	var cores []zapcore.Core
	l := &Logger{cfg: opts.Config}

	if opts.Config.File != "" && opts.LogsDir != "" {
		if err := os.MkdirAll(opts.LogsDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create logs directory: %w", err)
		}
		path := filepath.Join(opts.LogsDir, opts.Config.File)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		l.file = f

		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(f), level))
	}

	if opts.Verbose {
		w := opts.Stderr
		if w == nil {
			w = os.Stderr
		}
		encCfg := zap.NewDevelopmentEncoderConfig()
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), zapcore.DebugLevel))
	}

	if len(cores) == 0 {
		l.Logger = zap.NewNop()
		return l, nil
	}
	l.Logger = zap.New(zapcore.NewTee(cores...))
	return l, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// Get returns the named child logger for a category, or a no-op logger when
// the category is disabled.
func (l *Logger) Get(category Category) *zap.Logger {
	if l == nil || l.Logger == nil {
		return zap.NewNop()
	}
	if !l.cfg.IsCategoryEnabled(string(category)) {
		return zap.NewNop()
	}
	return l.Named(string(category))
}

// Close flushes buffered entries and closes the log file.
func (l *Logger) Close() error {
	if l == nil || l.Logger == nil {
		return nil
	}
	_ = l.Sync()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}
