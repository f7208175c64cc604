package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var log zerolog.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

// InitLogging configures the global logger. When filePath is non-empty the
// logger writes both to the console and to that file (append, created if
// missing). Level accepts zerolog level names; anything unrecognized means info.
func InitLogging(filePath, level string) {
	writers := []io.Writer{zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}}

	if filePath != "" {
		f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "logger: cannot open %s: %v\n", filePath, err)
		} else {
			writers = append(writers, f)
		}
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	log = zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(lvl).With().Timestamp().Logger()
}

func DebugLog(ctx context.Context, format string, args ...interface{}) {
	log.Debug().Msgf(format, args...)
}

func InfoLog(ctx context.Context, format string, args ...interface{}) {
	log.Info().Msgf(format, args...)
}

func WarnLog(ctx context.Context, format string, args ...interface{}) {
	log.Warn().Msgf(format, args...)
}

func ErrorLog(ctx context.Context, format string, args ...interface{}) {
	log.Error().Msgf(format, args...)
}
