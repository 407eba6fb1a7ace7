// Package logger provides structured logging using zerolog.
package logger

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type contextKey string

const batchIDKey contextKey = "batch_id"

const milliTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Options controls logger initialization.
type Options struct {
	Level   string // zerolog level name; invalid or empty means info
	Dev     bool   // colored console output
	LogFile string // optional file that receives a copy of every line
	Out     io.Writer
}

// Init initializes the global logger.
func Init(opts Options) {
	zerolog.TimeFieldFormat = milliTimeFormat
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }

	const callerWidth = 30
	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		path := fmt.Sprintf("%s:%d", filepath.Base(file), line)
		if len(path) >= callerWidth {
			return path[len(path)-callerWidth:]
		}
		return path + strings.Repeat(" ", callerWidth-len(path))
	}

	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	var output io.Writer = zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: milliTimeFormat,
		NoColor:    !opts.Dev,
	}

	if opts.LogFile != "" {
		f, ferr := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if ferr == nil {
			output = io.MultiWriter(output, f)
		}
	}

	log.Logger = zerolog.New(output).With().Timestamp().Caller().Logger()

	log.Debug().
		Str("level", level.String()).
		Bool("dev", opts.Dev).
		Msg("Logger initialized")
}

// Get returns the global logger instance.
func Get() zerolog.Logger {
	return log.Logger
}

// NewBatchID generates a random 8-character alphanumeric string that tags
// every log line of one command invocation.
func NewBatchID() string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 8

	b := make([]byte, length)
	_, err := rand.Read(b)
	if err != nil {
		return fmt.Sprintf("bat%05d", time.Now().UnixNano()%100000)
	}

	for i := range b {
		b[i] = charset[b[i]%byte(len(charset))]
	}
	return string(b)
}

// WithBatchID returns a new context with the given batch ID stored.
func WithBatchID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, batchIDKey, id)
}

// BatchIDFromContext extracts the batch ID from context, or empty string.
func BatchIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(batchIDKey).(string)
	return id
}

// ForBatch returns a logger enriched with the batch ID from context.
func ForBatch(ctx context.Context) zerolog.Logger {
	id := BatchIDFromContext(ctx)
	if id == "" {
		return log.Logger
	}
	return log.Logger.With().Str("batchId", id).Logger()
}
