// Package logging configures the global zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LevelEnv overrides the default log level
const LevelEnv = "BOOTH_LOG_LEVEL"

// Options controls logger setup
type Options struct {
	Level   string    // debug, info, warn, error; empty uses LevelEnv or info
	File    string    // optional rotating log file
	Console io.Writer // defaults to stderr
	NoColor bool
}

// Init sets the global logger. It returns the rotating file writer, if
// any, so the caller can close it on exit.
func Init(opts Options) (io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	var writers []io.Writer
	writers = append(writers, zerolog.ConsoleWriter{
		Out:        console,
		TimeFormat: time.Kitchen,
		NoColor:    opts.NoColor,
	})

	var closer io.Closer
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		rotating := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // MB
			MaxBackups: 2,
			MaxAge:     28, // days
			Compress:   true,
		}
		writers = append(writers, rotating)
		closer = rotating
	}

	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
	return closer, nil
}

// ParseLevel resolves a level name, consulting LevelEnv when name is empty
func ParseLevel(name string) (zerolog.Level, error) {
	if name == "" {
		name = os.Getenv(LevelEnv)
	}
	if name == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(name))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}
