package logging

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/writer"
)

// Setup configures the standard logger, see Configure.
func Setup(level string, file string) (func() error, error) {
	return Configure(log.StandardLogger(), os.Stderr, level, file)
}

// Configure sends entries at level and above to console and every entry down
// to debug to file. LOG_LEVEL, when set, wins over level. The returned function
// closes the log file.
func Configure(logger *log.Logger, console io.Writer, level string, file string) (func() error, error) {
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		level = env
	}
	consoleLevel := log.InfoLevel
	if level != "" {
		parsed, err := log.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		consoleLevel = parsed
	}

	logger.SetOutput(io.Discard)
	logger.ReplaceHooks(make(log.LevelHooks))
	logger.AddHook(&writer.Hook{Writer: console, LogLevels: levelsUpTo(consoleLevel)})
	if file == "" {
		logger.SetLevel(consoleLevel)
		return func() error { return nil }, nil
	}

	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("unable to open log file %s: %w", file, err)
	}
	logger.AddHook(&writer.Hook{Writer: f, LogLevels: levelsUpTo(log.DebugLevel)})
	logger.SetLevel(max(consoleLevel, log.DebugLevel))
	return f.Close, nil
}

func levelsUpTo(level log.Level) []log.Level {
	levels := make([]log.Level, 0, len(log.AllLevels))
	for _, l := range log.AllLevels {
		if l <= level {
			levels = append(levels, l)
		}
	}
	return levels
}
