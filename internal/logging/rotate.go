package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the rotating log file created under the log directory
const FileName = "sun-clicker.log"

// Options configures process-wide logging
type Options struct {
	Level      LogLevel
	Dir        string // empty disables the file output
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	Console    io.Writer // defaults to stdout
}

// Configure installs the console writer and, when Dir is set, a size-rotated
// log file. The returned closer flushes and closes the file.
func Configure(opts Options) (io.Closer, error) {
	console := opts.Console
	if console == nil {
		console = os.Stdout
	}

	if opts.Level == "" {
		opts.Level = LogLevelInfo
	}

	if opts.Dir == "" {
		SetDefaults(opts.Level, console)
		return nopCloser{}, nil
	}

	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file := &lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, FileName),
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	}

	SetDefaults(opts.Level, console, file)
	return file, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
