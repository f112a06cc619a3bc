package profiler

import (
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/wesleyorama2/markprof/internal/report"
)

// defaultLogger writes human readable logs to w. verbose 0 logs warnings,
// 1 adds info and 2 or more adds debug messages.
func defaultLogger(w io.Writer, verbose int) zerolog.Logger {
	out := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.TimeOnly,
		NoColor:    !report.IsTerminal(w),
	}
	return zerolog.New(out).
		Level(levelFor(verbose)).
		With().
		Timestamp().
		Str("logger", "markprof").
		Logger()
}

func levelFor(verbose int) zerolog.Level {
	switch {
	case verbose >= 2:
		return zerolog.DebugLevel
	case verbose == 1:
		return zerolog.InfoLevel
	default:
		return zerolog.WarnLevel
	}
}
