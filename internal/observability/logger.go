package observability

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the root logger. Development environments get human readable console
// output; everything else logs JSON lines. Unknown levels fall back to info.
func NewLogger(level, env string) zerolog.Logger {
	return NewLoggerTo(os.Stdout, level, env)
}

// NewLoggerTo is NewLogger writing to out.
func NewLoggerTo(out io.Writer, level, env string) zerolog.Logger {
	parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}

	if strings.EqualFold(env, "development") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).Level(parsed).With().Timestamp().Logger()
}
