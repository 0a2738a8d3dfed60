package logger

import (
	"io"
	"log"
	"log/slog"
	"movietracker/proj/internal/lib/logger/handlers/slogpretty"
	"os"
	"strings"
)

func SetupLogger(debug bool) *slog.Logger {
	return NewLogger(os.Stdout, debug)
}

func NewLogger(out io.Writer, debug bool) *slog.Logger {
	var handler slog.Handler
	if debug {
		handler = slogpretty.NewPrettyHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return slog.New(handler)
}

type out struct {
	stdLog *slog.Logger
}

func (l out) Write(p []byte) (n int, err error) {
	l.stdLog.Error(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// LogAdapter lets components that expect a *log.Logger, like http.Server, write into slog.
func LogAdapter(logger *slog.Logger) *log.Logger {
	return log.New(&out{logger}, "", 0)
}
